package mq

import (
	"context"
	"sync/atomic"
)

// Producer defines the interface for message queue producers
type Producer interface {
	Produce(ctx context.Context, topic string, key string, data interface{}) error
	Close()
}

// NoOpProducer is used when the message queue is disabled. It only counts
// what it was handed.
type NoOpProducer struct {
	dropped uint64
}

func NewNoOpProducer() *NoOpProducer {
	return &NoOpProducer{}
}

func (p *NoOpProducer) Produce(ctx context.Context, topic string, key string, data interface{}) error {
	atomic.AddUint64(&p.dropped, 1)
	return nil
}

// Dropped returns how many messages were discarded.
func (p *NoOpProducer) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

func (p *NoOpProducer) Close() {}
