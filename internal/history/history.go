package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"github.com/knowbase-ai/knowbase/internal/dao"
	gormModel "github.com/knowbase-ai/knowbase/internal/model/gorm"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// TurnMetrics 一轮问答的生成指标
type TurnMetrics struct {
	TokensUsed int
	LatencyMs  int
}

// Manager 会话归档管理器，把内存会话中的问答落库
type Manager struct{}

// NewManager 创建归档管理器
func NewManager() *Manager {
	return &Manager{}
}

const titleMaxLen = 64

// ArchiveTurn 归档一轮问答。references 作为assistant消息的元数据保存。
func (h *Manager) ArchiveTurn(ctx context.Context, sessionID, question, answer string, references []*schema.Candidate, metrics *TurnMetrics) error {
	if err := h.ensureConversationExists(ctx, sessionID, question); err != nil {
		return err
	}

	now := time.Now()
	userMsg := &gormModel.Message{
		MsgID:      generateMessageID(),
		SessionID:  sessionID,
		Role:       string(schema.User),
		Content:    question,
		CreateTime: &now,
	}

	assistantMsg := &gormModel.Message{
		MsgID:      generateMessageID(),
		SessionID:  sessionID,
		Role:       string(schema.Assistant),
		Content:    answer,
		CreateTime: &now,
	}
	if metrics != nil {
		assistantMsg.TokensUsed = metrics.TokensUsed
		assistantMsg.LatencyMs = metrics.LatencyMs
	}
	if len(references) > 0 {
		data, err := sonic.Marshal(map[string]interface{}{"references": references})
		if err != nil {
			g.Log().Warningf(ctx, "marshal references failed, archiving without metadata: %v", err)
		} else {
			assistantMsg.Metadata = gormModel.JSON(data)
		}
	}

	return dao.Message.CreatePair(ctx, userMsg, assistantMsg)
}

// History 读取会话的归档历史，按时间升序
func (h *Manager) History(ctx context.Context, sessionID string, limit int) ([]schema.ConversationTurn, error) {
	if limit <= 0 {
		limit = 100
	}

	messages, _, err := dao.Message.ListBySessionID(ctx, sessionID, 1, limit)
	if err != nil {
		return nil, err
	}

	turns := make([]schema.ConversationTurn, 0, len(messages))
	for _, msg := range messages {
		turn := schema.ConversationTurn{
			Role:    schema.RoleType(msg.Role),
			Content: msg.Content,
		}
		if msg.CreateTime != nil {
			turn.CreatedAt = *msg.CreateTime
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// DeleteSession 删除会话及其全部消息
func (h *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	if err := dao.Message.DeleteBySessionID(ctx, sessionID); err != nil {
		return err
	}
	return dao.Conversation.Delete(ctx, sessionID)
}

// ensureConversationExists 会话不存在时创建，标题取首个问题
func (h *Manager) ensureConversationExists(ctx context.Context, sessionID, question string) error {
	conv, err := dao.Conversation.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if conv != nil {
		return nil
	}

	title := strings.TrimSpace(question)
	if r := []rune(title); len(r) > titleMaxLen {
		title = string(r[:titleMaxLen])
	}
	return dao.Conversation.Create(ctx, &gormModel.Conversation{
		SessionID: sessionID,
		Title:     title,
		Status:    "active",
	})
}

// generateMessageID 生成消息ID
func generateMessageID() string {
	return fmt.Sprintf("msg_%s", uuid.New().String())
}
