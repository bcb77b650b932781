package vedirect

import (
	"strconv"
	"strings"
)

// Record 一个文本帧解码后的强类型数据。
// 帧中未出现或无法解码的字段为 nil。
type Record struct {
	BatteryVoltage         *float64      `json:"battery_voltage,omitempty"`           // V: 主电池电压 (V) 精度 1mV
	BatteryVoltage2        *float64      `json:"battery_voltage_2,omitempty"`         // V2: 第二通道电池电压 (V)
	BatteryVoltage3        *float64      `json:"battery_voltage_3,omitempty"`         // V3: 第三通道电池电压 (V)
	AuxVoltage             *float64      `json:"aux_voltage,omitempty"`               // VS: 辅助(启动)电池电压 (V)
	MidVoltage             *float64      `json:"mid_voltage,omitempty"`               // VM: 电池组中点电压 (V)
	MidDeviation           *float64      `json:"mid_deviation,omitempty"`             // DM: 中点偏差 (%) 精度 0.1%
	PanelVoltage           *float64      `json:"panel_voltage,omitempty"`             // VPV: 光伏板电压 (V)
	PanelPower             *int32        `json:"panel_power,omitempty"`               // PPV: 光伏板功率 (W)
	BatteryCurrent         *float64      `json:"battery_current,omitempty"`           // I: 主电池电流 (A) 精度 1mA
	BatteryCurrent2        *float64      `json:"battery_current_2,omitempty"`         // I2: 第二通道电池电流 (A)
	BatteryCurrent3        *float64      `json:"battery_current_3,omitempty"`         // I3: 第三通道电池电流 (A)
	LoadCurrent            *float64      `json:"load_current,omitempty"`              // IL: 负载电流 (A)
	LoadOn                 *bool         `json:"load_on,omitempty"`                   // LOAD: 负载输出状态 (ON/OFF)
	BatteryTemperature     *int32        `json:"battery_temperature,omitempty"`       // T: 电池温度 (°C)
	InstantPower           *int32        `json:"instant_power,omitempty"`             // P: 瞬时功率 (W)
	ConsumedAmpHours       *float64      `json:"consumed_amp_hours,omitempty"`        // CE: 已消耗容量 (Ah) 精度 1mAh
	StateOfCharge          *float64      `json:"state_of_charge,omitempty"`           // SOC: 荷电状态 (%) 精度 0.1%
	TimeToGo               *int32        `json:"time_to_go,omitempty"`                // TTG: 剩余时间 (分钟), -1 表示无穷
	AlarmActive            *bool         `json:"alarm_active,omitempty"`              // Alarm: 报警状态
	RelayOn                *bool         `json:"relay_on,omitempty"`                  // Relay: 继电器状态
	AlarmReason            *AlarmReason  `json:"alarm_reason,omitempty"`              // AR: 报警原因
	OffReason              *OffReason    `json:"off_reason,omitempty"`                // OR: 关机原因
	DeepestDischarge       *float64      `json:"deepest_discharge,omitempty"`         // H1: 最深放电深度 (Ah)
	LastDischarge          *float64      `json:"last_discharge,omitempty"`            // H2: 最近一次放电深度 (Ah)
	AverageDischarge       *float64      `json:"average_discharge,omitempty"`         // H3: 平均放电深度 (Ah)
	ChargeCycles           *int32        `json:"charge_cycles,omitempty"`             // H4: 充电循环次数
	FullDischarges         *int32        `json:"full_discharges,omitempty"`           // H5: 完全放电次数
	CumulativeAmpHours     *float64      `json:"cumulative_amp_hours,omitempty"`      // H6: 累计放出容量 (Ah)
	MinBatteryVoltage      *float64      `json:"min_battery_voltage,omitempty"`       // H7: 最低电池电压 (V)
	MaxBatteryVoltage      *float64      `json:"max_battery_voltage,omitempty"`       // H8: 最高电池电压 (V)
	SecondsSinceFullCharge *int32        `json:"seconds_since_full_charge,omitempty"` // H9: 距上次充满的秒数
	AutoSyncs              *int32        `json:"auto_syncs,omitempty"`                // H10: 自动同步次数
	LowVoltageAlarms       *int32        `json:"low_voltage_alarms,omitempty"`        // H11: 低压报警次数
	HighVoltageAlarms      *int32        `json:"high_voltage_alarms,omitempty"`       // H12: 高压报警次数
	LowAuxVoltageAlarms    *int32        `json:"low_aux_voltage_alarms,omitempty"`    // H13: 辅助电池低压报警次数
	HighAuxVoltageAlarms   *int32        `json:"high_aux_voltage_alarms,omitempty"`   // H14: 辅助电池高压报警次数
	MinAuxVoltage          *float64      `json:"min_aux_voltage,omitempty"`           // H15: 辅助电池最低电压 (V)
	MaxAuxVoltage          *float64      `json:"max_aux_voltage,omitempty"`           // H16: 辅助电池最高电压 (V)
	DischargedEnergy       *float64      `json:"discharged_energy,omitempty"`         // H17: 累计放电能量 (kWh) 精度 0.01kWh
	ChargedEnergy          *float64      `json:"charged_energy,omitempty"`            // H18: 累计充电能量 (kWh)
	YieldTotal             *float64      `json:"yield_total,omitempty"`               // H19: 累计发电量 (kWh)
	YieldToday             *float64      `json:"yield_today,omitempty"`               // H20: 今日发电量 (kWh)
	MaxPowerToday          *int32        `json:"max_power_today,omitempty"`           // H21: 今日最大功率 (W)
	YieldYesterday         *float64      `json:"yield_yesterday,omitempty"`           // H22: 昨日发电量 (kWh)
	MaxPowerYesterday      *int32        `json:"max_power_yesterday,omitempty"`       // H23: 昨日最大功率 (W)
	ErrorCode              *ErrorCode    `json:"error_code,omitempty"`                // ERR: 错误码
	ChargerState           *ChargerState `json:"charger_state,omitempty"`             // CS: 充电器状态
	ModelDescription       *string       `json:"model_description,omitempty"`         // BMV: BMV 型号描述
	FirmwareVersion        *string       `json:"firmware_version,omitempty"`          // FW: 固件版本 (16 位)
	FirmwareVersionExt     *string       `json:"firmware_version_ext,omitempty"`      // FWE: 固件版本 (24 位)
	ProductID              *ProductID    `json:"product_id,omitempty"`                // PID: 产品 ID
	SerialNumber           *string       `json:"serial_number,omitempty"`             // SER#: 序列号
	DaySequence            *int32        `json:"day_sequence,omitempty"`              // HSDS: 历史数据日序号 (0..364)
	DeviceMode             *DeviceMode   `json:"device_mode,omitempty"`               // MODE: 设备模式
	ACOutputVoltage        *float64      `json:"ac_output_voltage,omitempty"`         // AC_OUT_V: 交流输出电压 (V) 精度 0.01V
	ACOutputCurrent        *float64      `json:"ac_output_current,omitempty"`         // AC_OUT_I: 交流输出电流 (A) 精度 0.1A
	ACOutputApparentPower  *int32        `json:"ac_output_apparent_power,omitempty"`  // AC_OUT_S: 交流输出视在功率 (VA)
	WarningReason          *AlarmReason  `json:"warning_reason,omitempty"`            // WARN: 警告原因
	TrackerMode            *TrackerMode  `json:"tracker_mode,omitempty"`              // MPPT: MPPT 跟踪状态
	MonitorType            *MonitorType  `json:"monitor_type,omitempty"`              // MON: DC 监控器类型
}

// fieldDecoder assigns one decoded value into its record slot.
type fieldDecoder func(r *Record, value string)

// labelTable maps every known label to its decoder. Labels missing from the
// table are dropped, since firmware revisions keep adding new ones.
var labelTable = map[string]fieldDecoder{
	"V":        decimal(func(r *Record) **float64 { return &r.BatteryVoltage }, milli),
	"V2":       decimal(func(r *Record) **float64 { return &r.BatteryVoltage2 }, milli),
	"V3":       decimal(func(r *Record) **float64 { return &r.BatteryVoltage3 }, milli),
	"VS":       decimal(func(r *Record) **float64 { return &r.AuxVoltage }, milli),
	"VM":       decimal(func(r *Record) **float64 { return &r.MidVoltage }, milli),
	"DM":       decimal(func(r *Record) **float64 { return &r.MidDeviation }, tenth),
	"VPV":      decimal(func(r *Record) **float64 { return &r.PanelVoltage }, milli),
	"PPV":      decimal(func(r *Record) **int32 { return &r.PanelPower }, int32Of),
	"I":        decimal(func(r *Record) **float64 { return &r.BatteryCurrent }, milli),
	"I2":       decimal(func(r *Record) **float64 { return &r.BatteryCurrent2 }, milli),
	"I3":       decimal(func(r *Record) **float64 { return &r.BatteryCurrent3 }, milli),
	"IL":       decimal(func(r *Record) **float64 { return &r.LoadCurrent }, milli),
	"LOAD":     onOff(func(r *Record) **bool { return &r.LoadOn }),
	"T":        decimal(func(r *Record) **int32 { return &r.BatteryTemperature }, int32Of),
	"P":        decimal(func(r *Record) **int32 { return &r.InstantPower }, int32Of),
	"CE":       decimal(func(r *Record) **float64 { return &r.ConsumedAmpHours }, milli),
	"SOC":      decimal(func(r *Record) **float64 { return &r.StateOfCharge }, tenth),
	"TTG":      decimal(func(r *Record) **int32 { return &r.TimeToGo }, int32Of),
	"Alarm":    onOff(func(r *Record) **bool { return &r.AlarmActive }),
	"Relay":    onOff(func(r *Record) **bool { return &r.RelayOn }),
	"AR":       decimal(func(r *Record) **AlarmReason { return &r.AlarmReason }, alarmReasonOf),
	"OR":       hexWord(func(r *Record) **OffReason { return &r.OffReason }, offReasonOf),
	"H1":       decimal(func(r *Record) **float64 { return &r.DeepestDischarge }, milli),
	"H2":       decimal(func(r *Record) **float64 { return &r.LastDischarge }, milli),
	"H3":       decimal(func(r *Record) **float64 { return &r.AverageDischarge }, milli),
	"H4":       decimal(func(r *Record) **int32 { return &r.ChargeCycles }, int32Of),
	"H5":       decimal(func(r *Record) **int32 { return &r.FullDischarges }, int32Of),
	"H6":       decimal(func(r *Record) **float64 { return &r.CumulativeAmpHours }, milli),
	"H7":       decimal(func(r *Record) **float64 { return &r.MinBatteryVoltage }, milli),
	"H8":       decimal(func(r *Record) **float64 { return &r.MaxBatteryVoltage }, milli),
	"H9":       decimal(func(r *Record) **int32 { return &r.SecondsSinceFullCharge }, int32Of),
	"H10":      decimal(func(r *Record) **int32 { return &r.AutoSyncs }, int32Of),
	"H11":      decimal(func(r *Record) **int32 { return &r.LowVoltageAlarms }, int32Of),
	"H12":      decimal(func(r *Record) **int32 { return &r.HighVoltageAlarms }, int32Of),
	"H13":      decimal(func(r *Record) **int32 { return &r.LowAuxVoltageAlarms }, int32Of),
	"H14":      decimal(func(r *Record) **int32 { return &r.HighAuxVoltageAlarms }, int32Of),
	"H15":      decimal(func(r *Record) **float64 { return &r.MinAuxVoltage }, milli),
	"H16":      decimal(func(r *Record) **float64 { return &r.MaxAuxVoltage }, milli),
	"H17":      decimal(func(r *Record) **float64 { return &r.DischargedEnergy }, hundredth),
	"H18":      decimal(func(r *Record) **float64 { return &r.ChargedEnergy }, hundredth),
	"H19":      decimal(func(r *Record) **float64 { return &r.YieldTotal }, hundredth),
	"H20":      decimal(func(r *Record) **float64 { return &r.YieldToday }, hundredth),
	"H21":      decimal(func(r *Record) **int32 { return &r.MaxPowerToday }, int32Of),
	"H22":      decimal(func(r *Record) **float64 { return &r.YieldYesterday }, hundredth),
	"H23":      decimal(func(r *Record) **int32 { return &r.MaxPowerYesterday }, int32Of),
	"ERR":      decimal(func(r *Record) **ErrorCode { return &r.ErrorCode }, errorCodeOf),
	"CS":       decimal(func(r *Record) **ChargerState { return &r.ChargerState }, chargerStateOf),
	"BMV":      text(func(r *Record) **string { return &r.ModelDescription }),
	"FW":       text(func(r *Record) **string { return &r.FirmwareVersion }),
	"FWE":      text(func(r *Record) **string { return &r.FirmwareVersionExt }),
	"PID":      hexWord(func(r *Record) **ProductID { return &r.ProductID }, productIDOf),
	"SER#":     text(func(r *Record) **string { return &r.SerialNumber }),
	"HSDS":     decimal(func(r *Record) **int32 { return &r.DaySequence }, int32Of),
	"MODE":     decimal(func(r *Record) **DeviceMode { return &r.DeviceMode }, deviceModeOf),
	"AC_OUT_V": decimal(func(r *Record) **float64 { return &r.ACOutputVoltage }, hundredth),
	"AC_OUT_I": decimal(func(r *Record) **float64 { return &r.ACOutputCurrent }, tenth),
	"AC_OUT_S": decimal(func(r *Record) **int32 { return &r.ACOutputApparentPower }, int32Of),
	"WARN":     decimal(func(r *Record) **AlarmReason { return &r.WarningReason }, alarmReasonOf),
	"MPPT":     decimal(func(r *Record) **TrackerMode { return &r.TrackerMode }, trackerModeOf),
	"MON":      decimal(func(r *Record) **MonitorType { return &r.MonitorType }, monitorTypeOf),
}

// BuildRecord maps a frame onto a Record. It never fails: a value that does
// not decode leaves its field unset, and a repeated label overwrites the
// earlier occurrence.
func BuildRecord(f Frame) Record {
	var r Record
	for _, field := range f.Fields {
		if decode, ok := labelTable[field.Label]; ok {
			decode(&r, field.Value)
		}
	}
	return r
}

// Known reports whether label has a typed field in Record.
func Known(label string) bool {
	_, ok := labelTable[label]
	return ok
}

func decimal[T any](slot func(*Record) **T, conv func(int64) (T, bool)) fieldDecoder {
	return func(r *Record, value string) {
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			*slot(r) = nil
			return
		}
		v, ok := conv(n)
		if !ok {
			*slot(r) = nil
			return
		}
		*slot(r) = &v
	}
}

func hexWord[T any](slot func(*Record) **T, conv func(uint64) (T, bool)) fieldDecoder {
	return func(r *Record, value string) {
		digits := strings.TrimSpace(value)
		digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
		n, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			*slot(r) = nil
			return
		}
		v, ok := conv(n)
		if !ok {
			*slot(r) = nil
			return
		}
		*slot(r) = &v
	}
}

func text(slot func(*Record) **string) fieldDecoder {
	return func(r *Record, value string) {
		v := value
		*slot(r) = &v
	}
}

func onOff(slot func(*Record) **bool) fieldDecoder {
	return func(r *Record, value string) {
		var v bool
		switch strings.ToUpper(strings.TrimSpace(value)) {
		case "ON":
			v = true
		case "OFF":
			v = false
		default:
			*slot(r) = nil
			return
		}
		*slot(r) = &v
	}
}

func milli(n int64) (float64, bool)     { return float64(n) / 1000, true }
func tenth(n int64) (float64, bool)     { return float64(n) / 10, true }
func hundredth(n int64) (float64, bool) { return float64(n) / 100, true }

func int32Of(n int64) (int32, bool) {
	if n < -1<<31 || n > 1<<31-1 {
		return 0, false
	}
	return int32(n), true
}

func uint8Of(n int64) (uint8, bool) {
	if n < 0 || n > 0xff {
		return 0, false
	}
	return uint8(n), true
}

func chargerStateOf(n int64) (ChargerState, bool) {
	v, ok := uint8Of(n)
	return ChargerState(v), ok
}

func errorCodeOf(n int64) (ErrorCode, bool) {
	v, ok := uint8Of(n)
	return ErrorCode(v), ok
}

func trackerModeOf(n int64) (TrackerMode, bool) {
	v, ok := uint8Of(n)
	return TrackerMode(v), ok
}

func deviceModeOf(n int64) (DeviceMode, bool) {
	v, ok := uint8Of(n)
	return DeviceMode(v), ok
}

func monitorTypeOf(n int64) (MonitorType, bool) {
	if n < -128 || n > 127 {
		return 0, false
	}
	return MonitorType(n), true
}

func alarmReasonOf(n int64) (AlarmReason, bool) {
	if n < 0 || n > 0xffff {
		return 0, false
	}
	return AlarmReason(n), true
}

func offReasonOf(n uint64) (OffReason, bool) {
	if n > 0xffffffff {
		return 0, false
	}
	return OffReason(n), true
}

func productIDOf(n uint64) (ProductID, bool) {
	if n > 0xffff {
		return 0, false
	}
	return ProductID(n), true
}
