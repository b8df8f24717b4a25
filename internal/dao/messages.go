package dao

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	gormModel "github.com/knowbase-ai/knowbase/internal/model/gorm"
	"gorm.io/gorm"
)

// MessageDAO 消息数据访问对象
type MessageDAO struct{}

var Message = &MessageDAO{}

// Create 创建消息
func (d *MessageDAO) Create(ctx context.Context, message *gormModel.Message) error {
	if err := GetDB().WithContext(ctx).Create(message).Error; err != nil {
		g.Log().Errorf(ctx, "创建消息失败: %v", err)
		return err
	}
	return nil
}

// CreatePair 在同一事务中写入一轮问答的两条消息
func (d *MessageDAO) CreatePair(ctx context.Context, userMsg, assistantMsg *gormModel.Message) error {
	return GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userMsg).Error; err != nil {
			g.Log().Errorf(ctx, "创建用户消息失败: %v", err)
			return err
		}
		if err := tx.Create(assistantMsg).Error; err != nil {
			g.Log().Errorf(ctx, "创建助手消息失败: %v", err)
			return err
		}
		return nil
	})
}

// GetByMsgID 根据消息ID获取消息
func (d *MessageDAO) GetByMsgID(ctx context.Context, msgID string) (*gormModel.Message, error) {
	var message gormModel.Message
	if err := GetDB().WithContext(ctx).Where("msg_id = ?", msgID).First(&message).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		g.Log().Errorf(ctx, "查询消息失败: %v", err)
		return nil, err
	}
	return &message, nil
}

// ListBySessionID 根据会话ID获取消息列表
func (d *MessageDAO) ListBySessionID(ctx context.Context, sessionID string, page, pageSize int) ([]*gormModel.Message, int64, error) {
	var messages []*gormModel.Message
	var total int64

	query := GetDB().WithContext(ctx).Model(&gormModel.Message{}).Where("session_id = ?", sessionID)

	if err := query.Count(&total).Error; err != nil {
		g.Log().Errorf(ctx, "统计消息总数失败: %v", err)
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("create_time ASC").Find(&messages).Error; err != nil {
		g.Log().Errorf(ctx, "查询消息列表失败: %v", err)
		return nil, 0, err
	}

	return messages, total, nil
}

// DeleteBySessionID 删除会话的全部消息
func (d *MessageDAO) DeleteBySessionID(ctx context.Context, sessionID string) error {
	if err := GetDB().WithContext(ctx).Where("session_id = ?", sessionID).Delete(&gormModel.Message{}).Error; err != nil {
		g.Log().Errorf(ctx, "删除消息失败: %v", err)
		return err
	}
	return nil
}
