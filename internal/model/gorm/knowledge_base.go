package gorm

import (
	"time"
)

// KnowledgeBase 知识库登记表，记录导入过的知识库及其规模
type KnowledgeBase struct {
	ID            string     `gorm:"primaryKey;column:id;type:varchar(64)" json:"id"`
	Name          string     `gorm:"column:name;type:varchar(255)" json:"name"`
	Description   string     `gorm:"column:description;type:varchar(255)" json:"description"`
	DocumentCount int64      `gorm:"column:document_count;type:bigint" json:"documentCount"`
	Status        int8       `gorm:"column:status;not null;default:1" json:"status"`
	CreateTime    *time.Time `gorm:"column:create_time;autoCreateTime" json:"createTime"`
	UpdateTime    *time.Time `gorm:"column:update_time;autoUpdateTime" json:"updateTime"`
}

// TableName 设置表名
func (KnowledgeBase) TableName() string {
	return "knowledge_base"
}
