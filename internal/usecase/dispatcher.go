package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DefaultTopic 未配置 topic 时使用
const DefaultTopic = "vedirect_data"

type DataDispatcher struct {
	dataChan    chan interface{}
	producer    DataProducer
	topic       string
	logger      *zap.Logger
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewDataDispatcher 创建一个新的数据分发器
func NewDataDispatcher(producer DataProducer, topic string, workerCount, bufferSize int, logger *zap.Logger) *DataDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	if topic == "" {
		topic = DefaultTopic
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &DataDispatcher{
		dataChan:    make(chan interface{}, bufferSize), // 带缓冲 Channel，防止阻塞
		producer:    producer,
		topic:       topic,
		workerCount: workerCount,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start 启动 worker 协程池
func (d *DataDispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("DataDispatcher started", zap.Int("workers", d.workerCount), zap.String("topic", d.topic))
}

// Stop 停止分发器并等待所有 worker 退出。通道保持打开，之后的 Dispatch 只会进入缓冲区。
func (d *DataDispatcher) Stop() {
	d.cancel() // 通知 worker 退出
	d.wg.Wait()
	d.logger.Info("DataDispatcher stopped", zap.Int("pending", len(d.dataChan)))
}

// Dispatch 将数据投递到缓冲通道 (非阻塞，如果满则丢弃并返回 false)
func (d *DataDispatcher) Dispatch(data interface{}) bool {
	select {
	case d.dataChan <- data:
		return true
	default:
		d.logger.Warn("DataDispatcher channel full, dropping data")
		return false
	}
}

func (d *DataDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case data := <-d.dataChan:
			d.process(id, data)
		}
	}
}

func (d *DataDispatcher) process(id int, data interface{}) {
	var key string
	if p, ok := data.(MQPayload); ok {
		key = p.Serial
	}
	if err := d.producer.Produce(d.ctx, d.topic, key, data); err != nil {
		d.logger.Error("DataDispatcher failed to send data", zap.Int("worker", id), zap.String("key", key), zap.Error(err))
	}
}
