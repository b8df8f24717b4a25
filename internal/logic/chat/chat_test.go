package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/knowbase-ai/knowbase/core/config"
	"github.com/knowbase-ai/knowbase/pkg/schema"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSystemContentEmpty(t *testing.T) {
	content := buildSystemContent(nil)
	assert.Equal(t, systemPrompt, content)
	assert.NotContains(t, content, "相关文档")
}

func TestBuildSystemContentNumbersDocuments(t *testing.T) {
	candidates := []*schema.Candidate{
		{Document: schema.Document{ID: "d1", Content: "合同审批分为三步", KnowledgeID: "legal"}, Score: 0.93},
		{Document: schema.Document{ID: "d2", Content: "报销需要发票", KnowledgeID: "business"}, Score: 0.71},
	}

	content := buildSystemContent(candidates)
	assert.Contains(t, content, "相关文档 1:")
	assert.Contains(t, content, "相关文档 2:")
	assert.Contains(t, content, "来源知识库: legal")
	assert.Contains(t, content, "合同审批分为三步")
	assert.Contains(t, content, "相关度: 0.93")
	// 规则在文档之前
	assert.Less(t, strings.Index(content, "只使用相关文档"), strings.Index(content, "相关文档 1:"))
}

func TestGenerate(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "根据相关文档 1，审批分为三步。"}},
			},
			Usage: openai.Usage{TotalTokens: 42},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	conf := &config.Config{
		Chat: config.ModelConfig{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "qwen-plus"},
	}
	x := NewChat(conf, nil)

	turns := []schema.ConversationTurn{
		{Role: schema.User, Content: "之前的问题"},
		{Role: schema.Assistant, Content: "之前的回答"},
	}
	candidates := []*schema.Candidate{
		{Document: schema.Document{ID: "d1", Content: "合同审批分为三步", KnowledgeID: "legal"}, Score: 0.93},
	}

	answer, metrics, err := x.Generate(context.Background(), "合同怎么审批", turns, candidates)
	require.NoError(t, err)
	assert.Equal(t, "根据相关文档 1，审批分为三步。", answer)
	require.NotNil(t, metrics)
	assert.Equal(t, 42, metrics.TokensUsed)

	// system + 两条历史 + 当前问题
	require.Len(t, gotReq.Messages, 4)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "合同审批分为三步")
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "assistant", gotReq.Messages[2].Role)
	assert.Equal(t, "合同怎么审批", gotReq.Messages[3].Content)
	assert.Equal(t, "qwen-plus", gotReq.Model)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	conf := &config.Config{
		Chat: config.ModelConfig{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "qwen-plus"},
	}
	x := NewChat(conf, nil)

	_, _, err := x.Generate(context.Background(), "q", nil, nil)
	require.Error(t, err)
}
