package usecase

import (
	"encoding/json"
	"time"
)

// MQPayload 包装消息队列消息，增加类型标识与设备序列号
type MQPayload struct {
	Type      string      `json:"type"`
	Serial    string      `json:"serial"`
	Source    string      `json:"source,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func (p MQPayload) MarshalJSON() ([]byte, error) {
	// 1. Marshal Data to get a map or basic JSON
	dataBytes, err := json.Marshal(p.Data)
	if err != nil {
		return nil, err
	}

	// 2. Data 为对象时注入类型与序列号，方便下游只消费 data 字段
	type Alias MQPayload
	var dataMap map[string]interface{}
	if err := json.Unmarshal(dataBytes, &dataMap); err != nil || dataMap == nil {
		return json.Marshal(Alias(p))
	}
	dataMap["msgType"] = p.Type
	dataMap["serial"] = p.Serial

	return json.Marshal(&struct {
		Alias
		Data map[string]interface{} `json:"data"`
	}{
		Alias: Alias(p),
		Data:  dataMap,
	})
}
