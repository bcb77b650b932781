package vedirect

import (
	"errors"
	"fmt"
	"strconv"

	"vedirect-gateway/internal/config"
	"vedirect-gateway/internal/protocol/vedirect"
)

// ErrDeviceNotAllowed 设备不在白名单中
var ErrDeviceNotAllowed = errors.New("device not allowed")

// DeviceFilter 决定是否接收某台设备的数据
type DeviceFilter interface {
	Allow(rec vedirect.Record) error
}

// InMemoryDeviceFilter 基于配置的白名单
type InMemoryDeviceFilter struct {
	// 序列号白名单
	serials map[string]struct{}
	// 产品 ID 白名单
	products map[vedirect.ProductID]struct{}
}

func NewInMemoryDeviceFilter(cfg config.DevicesConfig) (*InMemoryDeviceFilter, error) {
	f := &InMemoryDeviceFilter{
		serials:  make(map[string]struct{}),
		products: make(map[vedirect.ProductID]struct{}),
	}
	for _, s := range cfg.Serials {
		f.serials[s] = struct{}{}
	}
	for _, p := range cfg.ProductIDs {
		id, err := strconv.ParseUint(p, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q: %w", p, err)
		}
		f.products[vedirect.ProductID(id)] = struct{}{}
	}
	return f, nil
}

func (f *InMemoryDeviceFilter) Allow(rec vedirect.Record) error {
	if len(f.serials) > 0 {
		if rec.SerialNumber == nil {
			return fmt.Errorf("%w: no serial number", ErrDeviceNotAllowed)
		}
		if _, ok := f.serials[*rec.SerialNumber]; !ok {
			return fmt.Errorf("%w: serial %s", ErrDeviceNotAllowed, *rec.SerialNumber)
		}
	}
	if len(f.products) > 0 {
		if rec.ProductID == nil {
			return fmt.Errorf("%w: no product id", ErrDeviceNotAllowed)
		}
		if _, ok := f.products[*rec.ProductID]; !ok {
			return fmt.Errorf("%w: product %s", ErrDeviceNotAllowed, *rec.ProductID)
		}
	}
	return nil
}
