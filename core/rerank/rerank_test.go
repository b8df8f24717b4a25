package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// mockConfig 用于测试的mock配置
type mockConfig struct {
	apiKey  string
	baseURL string
	model   string
}

func (m *mockConfig) GetRerankAPIKey() string  { return m.apiKey }
func (m *mockConfig) GetRerankBaseURL() string { return m.baseURL }
func (m *mockConfig) GetRerankModel() string   { return m.model }

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		config  *mockConfig
		wantErr bool
	}{
		{
			name: "valid config",
			config: &mockConfig{
				apiKey:  "test-key",
				baseURL: "https://api.example.com/v1",
				model:   "rerank-test",
			},
			wantErr: false,
		},
		{
			name: "missing baseURL",
			config: &mockConfig{
				apiKey:  "test-key",
				baseURL: "",
				model:   "rerank-test",
			},
			wantErr: true,
		},
		{
			name: "missing model (should use default)",
			config: &mockConfig{
				apiKey:  "test-key",
				baseURL: "https://api.example.com/v1",
				model:   "",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(ctx, tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && client == nil {
				t.Error("NewClient() returned nil client")
			}
		})
	}
}

func TestRerankEmptyCandidates(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, &mockConfig{
		apiKey:  "test-key",
		baseURL: "https://api.example.com/v1",
		model:   "rerank-test",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	result, err := client.Rerank(ctx, "test query", []*schema.Candidate{}, 5)
	if err != nil {
		t.Errorf("Rerank() with empty candidates error = %v, want nil", err)
	}
	if len(result) != 0 {
		t.Errorf("Rerank() with empty candidates returned %d results, want 0", len(result))
	}
}

func TestRerankOrdering(t *testing.T) {
	ctx := context.Background()

	// 服务端按相关性返回与输入不同的顺序
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Documents) != 3 {
			t.Errorf("got %d documents, want 3", len(req.Documents))
		}
		resp := Response{
			ID: "test",
			Results: []*Result{
				{Index: 2, RelevanceScore: 0.95},
				{Index: 0, RelevanceScore: 0.60},
				{Index: 1, RelevanceScore: 0.30},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewClient(ctx, &mockConfig{
		apiKey:  "test-key",
		baseURL: server.URL,
		model:   "rerank-test",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	candidates := []*schema.Candidate{
		{Document: schema.Document{ID: "a", Content: "alpha"}, Score: 0.9, Origin: schema.OriginFused},
		{Document: schema.Document{ID: "b", Content: "beta"}, Score: 0.8, Origin: schema.OriginFused},
		{Document: schema.Document{ID: "c", Content: "gamma"}, Score: 0.7, Origin: schema.OriginFused},
	}

	result, err := client.Rerank(ctx, "query", candidates, 2)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("got %d results, want 2", len(result))
	}
	if result[0].ID != "c" || result[1].ID != "a" {
		t.Errorf("got order [%s %s], want [c a]", result[0].ID, result[1].ID)
	}
	if result[0].Origin != schema.OriginReranked {
		t.Errorf("got origin %s, want reranked", result[0].Origin)
	}
	if result[0].Score != 0.95 {
		t.Errorf("got score %v, want 0.95", result[0].Score)
	}
}

func TestRerankServerError(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "upstream unavailable"},
		})
	}))
	defer server.Close()

	client, err := NewClient(ctx, &mockConfig{
		apiKey:  "test-key",
		baseURL: server.URL,
		model:   "rerank-test",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	candidates := []*schema.Candidate{
		{Document: schema.Document{ID: "a", Content: "alpha"}},
	}
	_, err = client.Rerank(ctx, "query", candidates, 1)
	if err == nil {
		t.Fatal("Rerank() expected error on HTTP 500, got nil")
	}
}
