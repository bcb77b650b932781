package vedirect

import (
	"fmt"
	"sort"
	"strings"
)

// ChargerState 充电器运行状态 (CS)
type ChargerState uint8

const (
	StateOff                ChargerState = 0
	StateLowPower           ChargerState = 1
	StateFault              ChargerState = 2
	StateBulk               ChargerState = 3
	StateAbsorption         ChargerState = 4
	StateFloat              ChargerState = 5
	StateStorage            ChargerState = 6
	StateEqualizeManual     ChargerState = 7
	StateInverting          ChargerState = 9
	StatePowerSupply        ChargerState = 11
	StateStartingUp         ChargerState = 245
	StateRepeatedAbsorption ChargerState = 246
	StateAutoEqualize       ChargerState = 247
	StateBatterySafe        ChargerState = 248
	StateExternalControl    ChargerState = 252
)

var chargerStateNames = map[ChargerState]string{
	StateOff:                "Off",
	StateLowPower:           "Low power",
	StateFault:              "Fault",
	StateBulk:               "Bulk",
	StateAbsorption:         "Absorption",
	StateFloat:              "Float",
	StateStorage:            "Storage",
	StateEqualizeManual:     "Equalize (manual)",
	StateInverting:          "Inverting",
	StatePowerSupply:        "Power supply",
	StateStartingUp:         "Starting-up",
	StateRepeatedAbsorption: "Repeated absorption",
	StateAutoEqualize:       "Auto equalize / Recondition",
	StateBatterySafe:        "BatterySafe",
	StateExternalControl:    "External control",
}

func (s ChargerState) String() string {
	if name, ok := chargerStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ChargerState(%d)", uint8(s))
}

// ErrorCode 充电器错误码 (ERR)
type ErrorCode uint8

const (
	ErrCodeNone                  ErrorCode = 0
	ErrCodeBatteryVoltageHigh    ErrorCode = 2
	ErrCodeChargerTempHigh       ErrorCode = 17
	ErrCodeChargerOverCurrent    ErrorCode = 18
	ErrCodeChargerCurrentReverse ErrorCode = 19
	ErrCodeBulkTimeLimit         ErrorCode = 20
	ErrCodeCurrentSensor         ErrorCode = 21
	ErrCodeTerminalsOverheated   ErrorCode = 26
	ErrCodeConverter             ErrorCode = 28
	ErrCodeInputVoltageHigh      ErrorCode = 33
	ErrCodeInputCurrentHigh      ErrorCode = 34
	ErrCodeInputShutdownVoltage  ErrorCode = 38
	ErrCodeInputShutdownCurrent  ErrorCode = 39
	ErrCodeLostCommunication     ErrorCode = 65
	ErrCodeSyncChargingConfig    ErrorCode = 66
	ErrCodeBMSConnectionLost     ErrorCode = 67
	ErrCodeNetworkMisconfigured  ErrorCode = 68
	ErrCodeCalibrationLost       ErrorCode = 116
	ErrCodeInvalidFirmware       ErrorCode = 117
	ErrCodeUserSettingsInvalid   ErrorCode = 119
)

var errorCodeNames = map[ErrorCode]string{
	ErrCodeNone:                  "No error",
	ErrCodeBatteryVoltageHigh:    "Battery voltage too high",
	ErrCodeChargerTempHigh:       "Charger temperature too high",
	ErrCodeChargerOverCurrent:    "Charger over current",
	ErrCodeChargerCurrentReverse: "Charger current reversed",
	ErrCodeBulkTimeLimit:         "Bulk time limit exceeded",
	ErrCodeCurrentSensor:         "Current sensor issue",
	ErrCodeTerminalsOverheated:   "Terminals overheated",
	ErrCodeConverter:             "Converter issue",
	ErrCodeInputVoltageHigh:      "Input voltage too high (solar panel)",
	ErrCodeInputCurrentHigh:      "Input current too high (solar panel)",
	ErrCodeInputShutdownVoltage:  "Input shutdown (excessive battery voltage)",
	ErrCodeInputShutdownCurrent:  "Input shutdown (current flow during off mode)",
	ErrCodeLostCommunication:     "Lost communication with one of devices",
	ErrCodeSyncChargingConfig:    "Synchronised charging device configuration issue",
	ErrCodeBMSConnectionLost:     "BMS connection lost",
	ErrCodeNetworkMisconfigured:  "Network misconfigured",
	ErrCodeCalibrationLost:       "Factory calibration data lost",
	ErrCodeInvalidFirmware:       "Invalid/incompatible firmware",
	ErrCodeUserSettingsInvalid:   "User settings invalid",
}

func (e ErrorCode) String() string {
	if name, ok := errorCodeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", uint8(e))
}

// TrackerMode MPPT 跟踪状态 (MPPT)
type TrackerMode uint8

const (
	TrackerOff     TrackerMode = 0
	TrackerLimited TrackerMode = 1
	TrackerActive  TrackerMode = 2
)

func (m TrackerMode) String() string {
	switch m {
	case TrackerOff:
		return "Off"
	case TrackerLimited:
		return "Voltage or current limited"
	case TrackerActive:
		return "MPP Tracker active"
	}
	return fmt.Sprintf("TrackerMode(%d)", uint8(m))
}

// DeviceMode 设备模式 (MODE)
type DeviceMode uint8

const (
	ModeCharger   DeviceMode = 1
	ModeInverter  DeviceMode = 2
	ModeOff       DeviceMode = 4
	ModeEco       DeviceMode = 5
	ModeHibernate DeviceMode = 253
)

func (m DeviceMode) String() string {
	switch m {
	case ModeCharger:
		return "Charger"
	case ModeInverter:
		return "Inverter"
	case ModeOff:
		return "Off"
	case ModeEco:
		return "Eco"
	case ModeHibernate:
		return "Hibernate"
	}
	return fmt.Sprintf("DeviceMode(%d)", uint8(m))
}

// MonitorType DC 监控器类型 (MON)
type MonitorType int8

var monitorTypeNames = map[MonitorType]string{
	-9: "Solar charger",
	-8: "Wind turbine",
	-7: "Shaft generator",
	-6: "Alternator",
	-5: "Fuel cell",
	-4: "Water generator",
	-3: "DC/DC charger",
	-2: "AC charger",
	-1: "Generic source",
	0:  "Battery monitor",
	1:  "Generic load",
	2:  "Electric drive",
	3:  "Fridge",
	4:  "Water pump",
	5:  "Bilge pump",
	6:  "DC system",
	7:  "Inverter",
	8:  "Water heater",
}

func (m MonitorType) String() string {
	if name, ok := monitorTypeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MonitorType(%d)", int8(m))
}

// OffReason 关机原因位图 (OR, 十六进制)
type OffReason uint32

const (
	OffNoInputPower     OffReason = 0x00000001
	OffPowerSwitch      OffReason = 0x00000002
	OffDeviceModeSwitch OffReason = 0x00000004
	OffRemoteInput      OffReason = 0x00000008
	OffProtection       OffReason = 0x00000010
	OffPaygo            OffReason = 0x00000020
	OffBMS              OffReason = 0x00000040
	OffEngineShutdown   OffReason = 0x00000080
	OffAnalysingInput   OffReason = 0x00000100
)

var offReasonNames = map[uint32]string{
	uint32(OffNoInputPower):     "No input power",
	uint32(OffPowerSwitch):      "Switched off (power switch)",
	uint32(OffDeviceModeSwitch): "Switched off (device mode register)",
	uint32(OffRemoteInput):      "Remote input",
	uint32(OffProtection):       "Protection active",
	uint32(OffPaygo):            "Paygo",
	uint32(OffBMS):              "BMS",
	uint32(OffEngineShutdown):   "Engine shutdown detection",
	uint32(OffAnalysingInput):   "Analysing input voltage",
}

// Has reports whether all bits of flag are set.
func (r OffReason) Has(flag OffReason) bool { return r&flag == flag }

func (r OffReason) String() string {
	if r == 0 {
		return "None"
	}
	return flagNames(uint32(r), offReasonNames)
}

// AlarmReason 报警原因位图 (AR, WARN)
type AlarmReason uint16

const (
	AlarmLowVoltage        AlarmReason = 1
	AlarmHighVoltage       AlarmReason = 2
	AlarmLowSOC            AlarmReason = 4
	AlarmLowStarterVoltage AlarmReason = 8
	AlarmHighStarterVolt   AlarmReason = 16
	AlarmLowTemperature    AlarmReason = 32
	AlarmHighTemperature   AlarmReason = 64
	AlarmMidVoltage        AlarmReason = 128
	AlarmOverload          AlarmReason = 256
	AlarmDCRipple          AlarmReason = 512
	AlarmLowACOutVoltage   AlarmReason = 1024
	AlarmHighACOutVoltage  AlarmReason = 2048
	AlarmShortCircuit      AlarmReason = 4096
	AlarmBMSLockout        AlarmReason = 8192
)

var alarmReasonNames = map[uint32]string{
	uint32(AlarmLowVoltage):        "Low voltage",
	uint32(AlarmHighVoltage):       "High voltage",
	uint32(AlarmLowSOC):            "Low SOC",
	uint32(AlarmLowStarterVoltage): "Low starter voltage",
	uint32(AlarmHighStarterVolt):   "High starter voltage",
	uint32(AlarmLowTemperature):    "Low temperature",
	uint32(AlarmHighTemperature):   "High temperature",
	uint32(AlarmMidVoltage):        "Mid voltage",
	uint32(AlarmOverload):          "Overload",
	uint32(AlarmDCRipple):          "DC-ripple",
	uint32(AlarmLowACOutVoltage):   "Low V AC out",
	uint32(AlarmHighACOutVoltage):  "High V AC out",
	uint32(AlarmShortCircuit):      "Short circuit",
	uint32(AlarmBMSLockout):        "BMS lockout",
}

// Has reports whether all bits of flag are set.
func (a AlarmReason) Has(flag AlarmReason) bool { return a&flag == flag }

func (a AlarmReason) String() string {
	if a == 0 {
		return "None"
	}
	return flagNames(uint32(a), alarmReasonNames)
}

func flagNames(v uint32, names map[uint32]string) string {
	bits := make([]uint32, 0, len(names))
	for bit := range names {
		bits = append(bits, bit)
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })

	var parts []string
	rest := v
	for _, bit := range bits {
		if v&bit != 0 {
			parts = append(parts, names[bit])
			rest &^= bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", rest))
	}
	return strings.Join(parts, "|")
}

// ProductID 产品型号 (PID, 十六进制)
type ProductID uint16

var productNames = map[ProductID]string{
	0x0203: "BMV-700",
	0x0204: "BMV-702",
	0x0205: "BMV-700H",
	0xA381: "BMV-712 Smart",
	0xA042: "BlueSolar MPPT 75|15",
	0xA043: "BlueSolar MPPT 100|15",
	0xA053: "SmartSolar MPPT 75|15",
	0xA054: "SmartSolar MPPT 75|10",
	0xA055: "SmartSolar MPPT 100|15",
	0xA056: "SmartSolar MPPT 100|30",
}

// Name returns the product name for known ids.
func (p ProductID) Name() (string, bool) {
	name, ok := productNames[p]
	return name, ok
}

func (p ProductID) String() string {
	if name, ok := productNames[p]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint16(p))
}
