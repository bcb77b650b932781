package client

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"vedirect-gateway/internal/protocol/vedirect"
)

// Sample 是一次模拟的 MPPT 控制器测量值 (SI 单位)
type Sample struct {
	BatteryVoltage float64 // V
	BatteryCurrent float64 // A
	PanelVoltage   float64 // V
	PanelPower     int     // W
	LoadOn         bool
	LoadCurrent    float64 // A
	State          vedirect.ChargerState
	YieldToday     float64 // kWh
	MaxPowerToday  int     // W
}

// FrameBuilder 帮助构建测试用的 VE.Direct 文本帧与 HEX 报文
type FrameBuilder struct {
	Serial     string
	ProductID  vedirect.ProductID
	Firmware   string
	HexVersion uint16 // ping 响应中的应用版本
	YieldTotal float64
	Day        int
}

func NewFrameBuilder(serial string) *FrameBuilder {
	return &FrameBuilder{
		Serial:     serial,
		ProductID:  0xA053,
		Firmware:   "164",
		HexVersion: 0x4164,
	}
}

// Fields 生成与 SmartSolar MPPT 输出顺序一致的字段
func (fb *FrameBuilder) Fields(s Sample) []vedirect.Field {
	offReason := "0x00000000"
	tracker := vedirect.TrackerActive
	if s.PanelPower == 0 {
		offReason = "0x00000001"
		tracker = vedirect.TrackerOff
	}
	load := "OFF"
	if s.LoadOn {
		load = "ON"
	}

	return []vedirect.Field{
		{Label: "PID", Value: fmt.Sprintf("0x%04X", uint16(fb.ProductID))},
		{Label: "FW", Value: fb.Firmware},
		{Label: "SER#", Value: fb.Serial},
		{Label: "V", Value: milli(s.BatteryVoltage)},
		{Label: "I", Value: milli(s.BatteryCurrent)},
		{Label: "VPV", Value: milli(s.PanelVoltage)},
		{Label: "PPV", Value: strconv.Itoa(s.PanelPower)},
		{Label: "CS", Value: strconv.Itoa(int(s.State))},
		{Label: "MPPT", Value: strconv.Itoa(int(tracker))},
		{Label: "OR", Value: offReason},
		{Label: "ERR", Value: "0"},
		{Label: "LOAD", Value: load},
		{Label: "IL", Value: milli(s.LoadCurrent)},
		{Label: "H19", Value: hundredth(fb.YieldTotal + s.YieldToday)},
		{Label: "H20", Value: hundredth(s.YieldToday)},
		{Label: "H21", Value: strconv.Itoa(s.MaxPowerToday)},
		{Label: "H22", Value: "0"},
		{Label: "H23", Value: "0"},
		{Label: "HSDS", Value: strconv.Itoa(fb.Day)},
	}
}

// BuildText 生成一个带校验的文本帧
func (fb *FrameBuilder) BuildText(s Sample) []byte {
	return vedirect.EncodeFrame(fb.Fields(s))
}

// BuildPingResponse 生成 ping 响应 (0x5)
func (fb *FrameBuilder) BuildPingResponse() []byte {
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, fb.HexVersion)
	return vedirect.EncodeHex(vedirect.HexPingResponse, payload)
}

// Simulate 生成第 i 个采样点：白天充电，夜间放电
func Simulate(i int) Sample {
	// 96 个点覆盖一天
	phase := float64(i%96) / 96
	sun := math.Max(0, math.Sin(2*math.Pi*(phase-0.25)))

	s := Sample{
		BatteryVoltage: 12.6 + 1.8*sun,
		PanelVoltage:   18.5 * math.Min(1, sun*4),
		PanelPower:     int(math.Round(95 * sun)),
		LoadOn:         true,
		LoadCurrent:    0.8,
		MaxPowerToday:  95,
		YieldToday:     0.31 * phase,
	}
	s.BatteryCurrent = float64(s.PanelPower)/s.BatteryVoltage - s.LoadCurrent

	switch {
	case s.PanelPower == 0:
		s.State = vedirect.StateOff
	case s.BatteryVoltage >= 14.2:
		s.State = vedirect.StateAbsorption
	default:
		s.State = vedirect.StateBulk
	}
	return s
}

func milli(v float64) string {
	return strconv.FormatInt(int64(math.Round(v*1000)), 10)
}

func hundredth(v float64) string {
	return strconv.FormatInt(int64(math.Round(v*100)), 10)
}
