package usecase

import "context"

// Conn 抽象数据来源 (TCP 连接或本地串口)
type Conn interface {
	RemoteAddr() string
	Close() error
	// Write 向设备发送 HEX 命令
	Write([]byte) (int, error)
}

type DataProducer interface {
	// Produce 发送数据到指定 Topic
	Produce(ctx context.Context, topic string, key string, data interface{}) error
}
