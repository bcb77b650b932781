package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"vedirect-gateway/internal/config"
	"vedirect-gateway/internal/infra/mq"
)

var (
	ErrClosed       = errors.New("rabbitmq: producer closed")
	ErrNotConnected = errors.New("rabbitmq: not connected")
	ErrNacked       = errors.New("rabbitmq: publish not confirmed")
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// RabbitMQProducer 发布到 topic exchange。连接断开后在后台按指数退避重连，
// 期间 Produce 直接返回 ErrNotConnected，由 dispatcher 记录丢弃。
type RabbitMQProducer struct {
	cfg    config.RabbitMQConfig
	logger *zap.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	isClosed bool

	reconnectC chan struct{}
}

// Ensure RabbitMQProducer implements mq.Producer
var _ mq.Producer = (*RabbitMQProducer)(nil)

// NewRabbitMQProducer 不阻塞等待连接
func NewRabbitMQProducer(cfg config.RabbitMQConfig, logger *zap.Logger) (*RabbitMQProducer, error) {
	if cfg.Exchange == "" {
		return nil, errors.New("rabbitmq: exchange is required")
	}
	p := &RabbitMQProducer{
		cfg:        cfg,
		logger:     logger.With(zap.String("exchange", cfg.Exchange)),
		reconnectC: make(chan struct{}, 1),
	}
	p.signalReconnect()
	go p.handleReconnect()
	return p, nil
}

func (p *RabbitMQProducer) connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return ErrClosed
	}

	connURL := ConnectionURL(p.cfg)
	p.logger.Debug("Connecting to RabbitMQ", zap.String("url", MaskURL(connURL)))
	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := p.declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return err
	}
	if p.cfg.Confirm {
		if err := ch.Confirm(false); err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("failed to enable publisher confirms: %w", err)
		}
	}

	p.conn = conn
	p.ch = ch
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-closed; ok {
			p.logger.Warn("RabbitMQ connection lost", zap.Error(amqpErr))
		}
		p.signalReconnect()
	}()

	p.logger.Info("Connected to RabbitMQ", zap.String("url", MaskURL(connURL)))
	return nil
}

// declare 声明 exchange，配置了队列时同时声明并绑定 (均为幂等操作)
func (p *RabbitMQProducer) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if p.cfg.QueueName == "" {
		return nil
	}
	if _, err := ch.QueueDeclare(p.cfg.QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(p.cfg.QueueName, p.cfg.RoutingKey, p.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	p.logger.Debug("RabbitMQ queue bound",
		zap.String("queue", p.cfg.QueueName),
		zap.String("routing_key", p.cfg.RoutingKey))
	return nil
}

func (p *RabbitMQProducer) signalReconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return
	}
	select {
	case p.reconnectC <- struct{}{}:
	default:
	}
}

func (p *RabbitMQProducer) handleReconnect() {
	for range p.reconnectC {
		backoff := minBackoff
		for {
			err := p.connect()
			if err == nil || errors.Is(err, ErrClosed) {
				break
			}
			p.logger.Error("Failed to connect to RabbitMQ", zap.Error(err), zap.Duration("retry_in", backoff))
			time.Sleep(backoff)
			backoff = nextBackoff(backoff)
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Produce 将 data 序列化为 JSON 发布到 exchange
func (p *RabbitMQProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	p.mu.Lock()
	if p.isClosed {
		p.mu.Unlock()
		return ErrClosed
	}
	ch := p.ch
	p.mu.Unlock()
	if ch == nil || ch.IsClosed() {
		p.signalReconnect()
		return ErrNotConnected
	}

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	routingKey := RoutingKey(p.cfg.RoutingKey, topic, key)
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	if !p.cfg.Confirm {
		if err := ch.PublishWithContext(ctx, p.cfg.Exchange, routingKey, false, false, msg); err != nil {
			return fmt.Errorf("failed to publish message: %w", err)
		}
		return nil
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, p.cfg.Exchange, routingKey, false, false, msg)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm message: %w", err)
	}
	if !acked {
		return fmt.Errorf("%w: routing key %s", ErrNacked, routingKey)
	}
	return nil
}

func (p *RabbitMQProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isClosed {
		return
	}
	p.isClosed = true
	close(p.reconnectC)
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// ConnectionURL builds the AMQP URL for cfg, replacing any vhost in cfg.URL
// with cfg.VirtualHost when set. A leading "/" in the vhost is escaped, so
// "/solar" becomes "%2fsolar".
func ConnectionURL(cfg config.RabbitMQConfig) string {
	connURL := cfg.URL
	if cfg.VirtualHost == "" {
		return connURL
	}
	vhost := cfg.VirtualHost
	if strings.HasPrefix(vhost, "/") {
		vhost = "%2f" + vhost[1:]
	}

	// scheme://host[/vhost]
	parts := strings.SplitN(connURL, "/", 4)
	if len(parts) < 3 {
		return strings.TrimSuffix(connURL, "/") + "/" + vhost
	}
	return strings.Join(parts[:3], "/") + "/" + vhost
}

// MaskURL hides the password in an AMQP URL for logging.
func MaskURL(connURL string) string {
	u, err := amqp.ParseURI(connURL)
	if err != nil {
		return connURL
	}
	u.Password = "******"
	return u.String()
}

// RoutingKey 选择路由键: key (设备序列号) > topic > 配置默认值。
// 序列号作为路由键时加上 topic 前缀，便于按 "vedirect_data.#" 绑定。
func RoutingKey(defaultKey, topic, key string) string {
	switch {
	case key != "" && topic != "":
		return topic + "." + key
	case key != "":
		return key
	case topic != "":
		return topic
	}
	return defaultKey
}
