package mq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoOpProducer(t *testing.T) {
	var p Producer = NewNoOpProducer()
	for i := 0; i < 3; i++ {
		assert.NoError(t, p.Produce(context.Background(), "vedirect_data", "HQ1", i))
	}
	p.Close()
	assert.Equal(t, uint64(3), p.(*NoOpProducer).Dropped())
}
