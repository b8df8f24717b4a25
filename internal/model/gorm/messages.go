package gorm

import (
	"time"
)

// Message 消息表，归档会话中的每条问答消息
type Message struct {
	ID         uint64     `gorm:"primaryKey;column:id;type:bigint"`
	MsgID      string     `gorm:"column:msg_id;type:varchar(64);uniqueIndex;not null"` // 消息ID
	SessionID  string     `gorm:"column:session_id;type:varchar(64);not null;index"`   // 会话ID
	Role       string     `gorm:"column:role;type:varchar(20);not null"`               // 角色: user/assistant
	Content    string     `gorm:"column:content;type:text"`                            // 消息内容
	TokensUsed int        `gorm:"column:tokens_used;type:int"`                         // 使用的token数
	LatencyMs  int        `gorm:"column:latency_ms;type:int"`                          // 延迟毫秒数
	Metadata   JSON       `gorm:"column:metadata;type:json"`                           // 检索引用等扩展信息
	CreateTime *time.Time `gorm:"column:create_time"`                                  // 创建时间
}

// TableName 设置表名
func (Message) TableName() string {
	return "messages"
}
