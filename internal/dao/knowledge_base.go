package dao

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	gormModel "github.com/knowbase-ai/knowbase/internal/model/gorm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KnowledgeBaseDAO 知识库登记数据访问对象
type KnowledgeBaseDAO struct{}

var KnowledgeBase = &KnowledgeBaseDAO{}

// Upsert 登记知识库，已存在时更新名称与文档数
func (d *KnowledgeBaseDAO) Upsert(ctx context.Context, kb *gormModel.KnowledgeBase) error {
	err := GetDB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "document_count", "update_time"}),
	}).Create(kb).Error
	if err != nil {
		g.Log().Errorf(ctx, "登记知识库失败: %v", err)
		return err
	}
	return nil
}

// GetByID 根据ID获取知识库
func (d *KnowledgeBaseDAO) GetByID(ctx context.Context, id string) (*gormModel.KnowledgeBase, error) {
	var kb gormModel.KnowledgeBase
	if err := GetDB().WithContext(ctx).Where("id = ?", id).First(&kb).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		g.Log().Errorf(ctx, "查询知识库失败: %v", err)
		return nil, err
	}
	return &kb, nil
}

// List 获取全部知识库
func (d *KnowledgeBaseDAO) List(ctx context.Context) ([]*gormModel.KnowledgeBase, error) {
	var kbs []*gormModel.KnowledgeBase
	if err := GetDB().WithContext(ctx).Order("create_time ASC").Find(&kbs).Error; err != nil {
		g.Log().Errorf(ctx, "查询知识库列表失败: %v", err)
		return nil, err
	}
	return kbs, nil
}
