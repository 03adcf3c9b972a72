package model

import (
	"encoding/json"
	"time"
)

// 推送消息类型
const (
	PushTypeState = "state"
)

// PushMessage 通过 websocket 或 SSE 推送给界面的消息
type PushMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// NewPushMessage 以当前时间创建消息
func NewPushMessage(typ string, data interface{}) *PushMessage {
	return &PushMessage{Type: typ, Data: data, Timestamp: time.Now().Unix()}
}

// ToJSON 序列化
func (m *PushMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
