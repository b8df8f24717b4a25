package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/knowbase-ai/knowbase/core/errors"
	"github.com/knowbase-ai/knowbase/pkg/schema"
)

// Config 接口，用于提取rerank配置
type Config interface {
	GetRerankAPIKey() string
	GetRerankBaseURL() string
	GetRerankModel() string
}

// Client 自定义rerank客户端
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Request rerank API请求结构
type Request struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

// Result rerank结果项
type Result struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Response rerank API响应结构
type Response struct {
	ID      string    `json:"id"`
	Results []*Result `json:"results"`
}

// errorResponse API错误响应
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// NewClient 创建rerank客户端
func NewClient(ctx context.Context, conf Config) (*Client, error) {
	apiKey := conf.GetRerankAPIKey()
	baseURL := conf.GetRerankBaseURL()
	model := conf.GetRerankModel()

	if apiKey == "" {
		apiKey = os.Getenv("RERANK_API_KEY")
	}
	if baseURL == "" {
		baseURL = os.Getenv("RERANK_BASE_URL")
		if baseURL == "" {
			return nil, errors.New(errors.ErrInvalidParameter, "rerank baseURL is required")
		}
	}
	if model == "" {
		model = "rerank-v1"
	}

	// 创建自定义HTTP客户端，优化连接复用和超时
	httpClient := &http.Client{
		Timeout: 2 * time.Minute, // rerank 通常比 embedding 快
		Transport: &http.Transport{
			Dial: (&net.Dialer{
				Timeout:   30 * time.Second, // 连接超时
				KeepAlive: 30 * time.Second,
			}).Dial,
			TLSHandshakeTimeout:   30 * time.Second, // TLS握手超时
			ResponseHeaderTimeout: 60 * time.Second, // 等待响应头超时
			ExpectContinueTimeout: 1 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
		},
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
	}, nil
}

// Rerank 对候选按查询相关性重排序，返回截取 topK 的新切片。
// 返回的候选 Score 为 rerank 相关性分数，Origin 标记为 reranked。
func (r *Client) Rerank(ctx context.Context, query string, candidates []*schema.Candidate, topK int) ([]*schema.Candidate, error) {
	if len(candidates) == 0 {
		return []*schema.Candidate{}, nil
	}

	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}

	// 提取文档内容
	documents := make([]string, len(candidates))
	for i, c := range candidates {
		documents[i] = c.Content
	}

	// 构造请求
	req := Request{
		Model:           r.model,
		Query:           query,
		Documents:       documents,
		TopN:            topK,
		ReturnDocuments: false,
	}

	// 序列化请求
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Newf(errors.ErrRerankFailed, "failed to marshal request: %v", err)
	}

	// 创建HTTP请求
	url := r.baseURL + "/rerank"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Newf(errors.ErrRerankFailed, "failed to create request: %v", err)
	}

	// 设置请求头
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	// 发送请求
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Newf(errors.ErrRerankFailed, "failed to send request: %v", err)
	}
	defer resp.Body.Close()

	// 检查HTTP状态码
	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return nil, errors.Newf(errors.ErrRerankFailed, "HTTP %d: failed to decode error response: %v", resp.StatusCode, err)
		}
		return nil, errors.Newf(errors.ErrRerankFailed, "API error (HTTP %d): %s", resp.StatusCode, errResp.Error.Message)
	}

	// 解析响应
	var rerankResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, errors.Newf(errors.ErrRerankFailed, "failed to decode response: %v", err)
	}

	// 空结果按降级处理，交给调用方回退到融合顺序
	if len(rerankResp.Results) == 0 {
		return nil, errors.New(errors.ErrRerankFailed, "rerank returned no results")
	}

	// 构造返回结果
	result := make([]*schema.Candidate, 0, len(rerankResp.Results))
	for _, res := range rerankResp.Results {
		if res.Index >= len(candidates) || res.Index < 0 {
			return nil, errors.Newf(errors.ErrRerankFailed, "invalid result index: %d", res.Index)
		}
		src := candidates[res.Index]
		result = append(result, &schema.Candidate{
			Document: src.Document,
			Score:    res.RelevanceScore,
			Origin:   schema.OriginReranked,
		})
	}
	if len(result) > topK {
		result = result[:topK]
	}

	return result, nil
}
