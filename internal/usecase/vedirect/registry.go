package vedirect

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"vedirect-gateway/internal/protocol/vedirect"
	"vedirect-gateway/internal/usecase"
)

// Device 代表一台正在上报数据的控制器
type Device struct {
	Key            string // 序列号，设备未上报 SER# 时为来源地址
	Conn           usecase.Conn
	ProductID      *vedirect.ProductID
	ChargerState   *vedirect.ChargerState
	Frames         uint64
	FirstSeen      time.Time // 首次上报时间
	LastActiveTime time.Time // 最后活跃时间
}

// Observation 是一次 Observe 的结果
type Observation struct {
	Device       Device
	New          bool
	StateChanged bool
	PrevState    *vedirect.ChargerState
}

// DeviceRegistry 管理在线设备
type DeviceRegistry struct {
	mu       sync.RWMutex
	devices  map[string]*Device
	bySource map[string]string // RemoteAddr -> Key，用于关联 HEX 报文
	now      func() time.Time
	logger   *zap.Logger
}

// NewDeviceRegistry 创建一个新的设备注册表
func NewDeviceRegistry(logger *zap.Logger) *DeviceRegistry {
	return &DeviceRegistry{
		devices:  make(map[string]*Device),
		bySource: make(map[string]string),
		now:      time.Now,
		logger:   logger,
	}
}

// Observe 记录一条来自 conn 的数据，必要时创建设备
func (r *DeviceRegistry) Observe(key string, conn usecase.Conn, rec vedirect.Record) Observation {
	now := r.now()

	r.mu.Lock()
	dev, ok := r.devices[key]
	if !ok {
		dev = &Device{Key: key, Conn: conn, FirstSeen: now}
		r.devices[key] = dev
	}
	if conn != nil {
		dev.Conn = conn
		r.bySource[conn.RemoteAddr()] = key
	}
	obs := Observation{New: !ok, PrevState: dev.ChargerState}
	if rec.ChargerState != nil {
		obs.StateChanged = ok && (dev.ChargerState == nil || *dev.ChargerState != *rec.ChargerState)
		dev.ChargerState = rec.ChargerState
	}
	if rec.ProductID != nil {
		dev.ProductID = rec.ProductID
	}
	dev.Frames++
	dev.LastActiveTime = now
	obs.Device = *dev
	r.mu.Unlock()

	if obs.New {
		r.logger.Info("[DeviceRegistry] Device Added", zap.String("key", key), zap.String("remote_addr", remoteAddr(conn)))
	}
	return obs
}

// KeyForSource 返回最近一次从该地址上报的设备
func (r *DeviceRegistry) KeyForSource(addr string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.bySource[addr]
	return key, ok
}

// Touch 更新设备的活跃时间
func (r *DeviceRegistry) Touch(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dev, ok := r.devices[key]; ok {
		dev.LastActiveTime = r.now()
	}
}

// Get 获取设备快照
func (r *DeviceRegistry) Get(key string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dev, ok := r.devices[key]
	if !ok {
		return Device{}, false
	}
	return *dev, true
}

// Len 返回在线设备数量
func (r *DeviceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Remove 删除设备，不关闭连接：同一连接可能还承载其他设备
func (r *DeviceRegistry) Remove(key string) {
	r.mu.Lock()
	dev, ok := r.devices[key]
	if ok {
		delete(r.devices, key)
		r.dropSourceLocked(key)
	}
	r.mu.Unlock()
	if ok {
		r.logger.Info("[DeviceRegistry] Device Removed", zap.String("key", dev.Key))
	}
}

// RemoveSource 在连接关闭时删除该连接上的全部设备
func (r *DeviceRegistry) RemoveSource(addr string) {
	r.mu.Lock()
	var removed []string
	for key, dev := range r.devices {
		if dev.Conn != nil && dev.Conn.RemoteAddr() == addr {
			delete(r.devices, key)
			removed = append(removed, key)
		}
	}
	delete(r.bySource, addr)
	r.mu.Unlock()
	for _, key := range removed {
		r.logger.Info("[DeviceRegistry] Device Removed", zap.String("key", key), zap.String("remote_addr", addr))
	}
}

// CheckStale 删除超过 timeout 未上报的设备。连接上已无其他设备时一并关闭连接。
// 返回被删除的设备。
func (r *DeviceRegistry) CheckStale(timeout time.Duration) []string {
	now := r.now()
	var stale []*Device

	r.mu.Lock()
	for key, dev := range r.devices {
		if now.Sub(dev.LastActiveTime) > timeout {
			delete(r.devices, key)
			r.dropSourceLocked(key)
			stale = append(stale, dev)
		}
	}
	closing := make(map[string]bool)
	for _, dev := range stale {
		if dev.Conn != nil && !r.sharedLocked(dev.Conn.RemoteAddr()) {
			closing[dev.Conn.RemoteAddr()] = true
		}
	}
	r.mu.Unlock()

	keys := make([]string, 0, len(stale))
	for _, dev := range stale {
		r.logger.Info("[DeviceRegistry] Device Timeout", zap.String("key", dev.Key), zap.Duration("inactive_duration", now.Sub(dev.LastActiveTime)))
		if dev.Conn != nil && closing[dev.Conn.RemoteAddr()] {
			delete(closing, dev.Conn.RemoteAddr())
			_ = dev.Conn.Close()
		}
		keys = append(keys, dev.Key)
	}
	return keys
}

// sharedLocked 报告是否还有设备经由 addr 上报
func (r *DeviceRegistry) sharedLocked(addr string) bool {
	for _, dev := range r.devices {
		if dev.Conn != nil && dev.Conn.RemoteAddr() == addr {
			return true
		}
	}
	return false
}

func (r *DeviceRegistry) dropSourceLocked(key string) {
	for addr, k := range r.bySource {
		if k == key {
			delete(r.bySource, addr)
		}
	}
}

func remoteAddr(conn usecase.Conn) string {
	if conn == nil {
		return ""
	}
	return conn.RemoteAddr()
}
