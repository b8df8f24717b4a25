package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation 会话表
type Conversation struct {
	SessionID  string     `gorm:"primaryKey;column:session_id;type:varchar(64)"`   // 会话ID（主键）
	Title      string     `gorm:"column:title;type:varchar(255)"`                  // 会话标题，取首个问题
	Status     string     `gorm:"column:status;type:varchar(20);default:'active'"` // 状态
	Metadata   JSON       `gorm:"column:metadata;type:json"`                       // 扩展元数据
	CreateTime *time.Time `gorm:"column:create_time;autoCreateTime"`               // 创建时间
	UpdateTime *time.Time `gorm:"column:update_time;autoUpdateTime"`               // 更新时间
}

// TableName 设置表名
func (Conversation) TableName() string {
	return "conversations"
}

// BeforeCreate GORM钩子：创建前自动生成SessionID
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.SessionID == "" {
		c.SessionID = fmt.Sprintf("sess_%s", uuid.New().String())
	}
	return nil
}

// JSON 自定义JSON类型
type JSON json.RawMessage

// Scan 实现sql.Scanner接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON("null")
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	*j = JSON(bytes)
	return nil
}

// Value 实现driver.Valuer接口
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}
