package chat

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gctx"
	v1 "github.com/knowbase-ai/knowbase/api/knowbase/v1"
	"github.com/knowbase-ai/knowbase/core/common"
	"github.com/knowbase-ai/knowbase/core/config"
	coreErrors "github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/internal/history"
	"github.com/knowbase-ai/knowbase/internal/service"
	"github.com/knowbase-ai/knowbase/pkg/schema"
	"github.com/sashabaranov/go-openai"
)

var chatInstance *Chat

// Chat 问答处理器：检索上下文 -> LLM生成 -> 会话与归档落库
type Chat struct {
	client  *openai.Client
	model   string
	archive *history.Manager
}

// GetChat 获取问答处理器单例
func GetChat() *Chat {
	return chatInstance
}

// InitChat 初始化问答处理器
func InitChat(archive *history.Manager) {
	ctx := gctx.New()
	chatInstance = NewChat(service.GetSharedConfig(), archive)
	g.Log().Infof(ctx, "Chat handler initialized, model: %s", chatInstance.model)
}

// NewChat 创建问答处理器，archive 为 nil 时跳过落库
func NewChat(conf *config.Config, archive *history.Manager) *Chat {
	clientConfig := openai.DefaultConfig(conf.Chat.APIKey)
	if conf.Chat.BaseURL != "" {
		clientConfig.BaseURL = conf.Chat.BaseURL
	}
	return &Chat{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   conf.Chat.Model,
		archive: archive,
	}
}

// ProcessChat 处理一次问答请求
func (x *Chat) ProcessChat(ctx context.Context, req *v1.ChatReq) (*v1.ChatRes, error) {
	orch := service.GetOrchestrator()

	merged, turns, sessionID, err := orch.AnswerContext(ctx, req.Question, req.KnowledgeIds, req.SessionID, req.TopK)
	if err != nil {
		// 所有知识库均无结果时给出固定回复，会话照常推进
		if coreErrors.IsCode(err, coreErrors.ErrNoResults) {
			x.finishTurn(ctx, sessionID, req.Question, noResultAnswer, nil, nil)
			return &v1.ChatRes{
				SessionID: sessionID,
				Answer:    noResultAnswer,
				Degraded:  true,
			}, nil
		}
		return nil, err
	}

	answer, metrics, err := x.Generate(ctx, req.Question, turns, merged.Candidates)
	if err != nil {
		return nil, err
	}

	x.finishTurn(ctx, sessionID, req.Question, answer, merged.Candidates, metrics)

	return &v1.ChatRes{
		SessionID:  sessionID,
		Answer:     answer,
		References: merged.Candidates,
		Degraded:   merged.Degraded,
		Omitted:    merged.Omitted,
	}, nil
}

// Generate 调用LLM生成答案，检索到的文档通过系统提示注入
func (x *Chat) Generate(ctx context.Context, question string, turns []schema.ConversationTurn, candidates []*schema.Candidate) (string, *history.TurnMetrics, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: buildSystemContent(candidates),
	})
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	start := time.Now()
	resp, err := x.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    x.model,
		Messages: messages,
	})
	if err != nil {
		return "", nil, coreErrors.Newf(coreErrors.ErrLLMCallFailed, "chat completion failed: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, coreErrors.New(coreErrors.ErrLLMCallFailed, "received empty choices from API")
	}

	metrics := &history.TurnMetrics{
		TokensUsed: resp.Usage.TotalTokens,
		LatencyMs:  int(time.Since(start).Milliseconds()),
	}
	return resp.Choices[0].Message.Content, metrics, nil
}

// finishTurn 把助手轮写入内存会话并归档整轮问答。
// 用户轮在 AnswerContext 内写入，生成失败时仍保留在会话中。
func (x *Chat) finishTurn(ctx context.Context, sessionID, question, answer string, references []*schema.Candidate, metrics *history.TurnMetrics) {
	if err := service.GetOrchestrator().RecordAnswer(ctx, sessionID, answer); err != nil {
		g.Log().Errorf(ctx, "record answer failed: %v", err)
	}
	if x.archive == nil {
		return
	}
	// 归档异步执行，不阻塞响应
	archiveCtx := context.WithoutCancel(ctx)
	common.SafeGo(archiveCtx, "archive-turn", func() {
		if err := x.archive.ArchiveTurn(archiveCtx, sessionID, question, answer, references, metrics); err != nil {
			g.Log().Errorf(archiveCtx, "archive turn failed: %v", err)
		}
	})
}
