package dao

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	gormModel "github.com/knowbase-ai/knowbase/internal/model/gorm"
	"gorm.io/gorm"
)

// ConversationDAO 会话数据访问对象
type ConversationDAO struct{}

var Conversation = &ConversationDAO{}

// Create 创建会话
func (d *ConversationDAO) Create(ctx context.Context, conversation *gormModel.Conversation) error {
	if err := GetDB().WithContext(ctx).Create(conversation).Error; err != nil {
		g.Log().Errorf(ctx, "创建会话失败: %v", err)
		return err
	}
	return nil
}

// GetBySessionID 根据会话ID获取会话
func (d *ConversationDAO) GetBySessionID(ctx context.Context, sessionID string) (*gormModel.Conversation, error) {
	var conversation gormModel.Conversation
	if err := GetDB().WithContext(ctx).Where("session_id = ?", sessionID).First(&conversation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		g.Log().Errorf(ctx, "查询会话失败: %v", err)
		return nil, err
	}
	return &conversation, nil
}

// List 分页获取会话列表
func (d *ConversationDAO) List(ctx context.Context, page, pageSize int) ([]*gormModel.Conversation, int64, error) {
	var conversations []*gormModel.Conversation
	var total int64

	query := GetDB().WithContext(ctx).Model(&gormModel.Conversation{})

	if err := query.Count(&total).Error; err != nil {
		g.Log().Errorf(ctx, "统计会话总数失败: %v", err)
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("update_time DESC").Find(&conversations).Error; err != nil {
		g.Log().Errorf(ctx, "查询会话列表失败: %v", err)
		return nil, 0, err
	}

	return conversations, total, nil
}

// Update 更新会话
func (d *ConversationDAO) Update(ctx context.Context, conversation *gormModel.Conversation) error {
	if err := GetDB().WithContext(ctx).Save(conversation).Error; err != nil {
		g.Log().Errorf(ctx, "更新会话失败: %v", err)
		return err
	}
	return nil
}

// Delete 删除会话
func (d *ConversationDAO) Delete(ctx context.Context, sessionID string) error {
	if err := GetDB().WithContext(ctx).Where("session_id = ?", sessionID).Delete(&gormModel.Conversation{}).Error; err != nil {
		g.Log().Errorf(ctx, "删除会话失败: %v", err)
		return err
	}
	return nil
}
