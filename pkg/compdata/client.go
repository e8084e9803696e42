package compdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iWorld-y/growth_radar/pkg/model"
)

// Client 竞争指标 API 客户端
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient 创建 HTTP 数据源客户端
func NewClient(baseURL, apiKey string, timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 15
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Ensure Client implements Provider
var _ Provider = (*Client)(nil)

// metricsRequest API 请求参数
type metricsRequest struct {
	Query     string `json:"query,omitempty"`
	Scope     string `json:"scope"` // keyword / account
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// metricsResponse API 响应
type metricsResponse struct {
	Found   bool `json:"found"`
	Metrics struct {
		ImpressionShare float64 `json:"impression_share"`
		AvgCPC          float64 `json:"avg_cpc"`
		CompetitorCount int     `json:"competitor_count"`
		TopOfPageRate   float64 `json:"top_of_page_rate"`
	} `json:"metrics"`
}

// KeywordMetrics implements Provider
func (c *Client) KeywordMetrics(ctx context.Context, query string, dr model.DateRange) (*model.CompetitiveMetrics, error) {
	return c.fetch(ctx, metricsRequest{
		Query:     query,
		Scope:     "keyword",
		StartDate: dr.Start,
		EndDate:   dr.End,
	})
}

// AccountMetrics implements Provider
func (c *Client) AccountMetrics(ctx context.Context, dr model.DateRange) (*model.CompetitiveMetrics, error) {
	return c.fetch(ctx, metricsRequest{
		Scope:     "account",
		StartDate: dr.Start,
		EndDate:   dr.End,
	})
}

func (c *Client) fetch(ctx context.Context, req metricsRequest) (*model.CompetitiveMetrics, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/metrics", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Add("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Add("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("compdata api error (status %d): %s", res.StatusCode, string(body))
	}

	var resp metricsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	if !resp.Found {
		return nil, ErrNoData
	}

	return &model.CompetitiveMetrics{
		ImpressionShare: resp.Metrics.ImpressionShare,
		AvgCPC:          resp.Metrics.AvgCPC,
		CompetitorCount: resp.Metrics.CompetitorCount,
		TopOfPageRate:   resp.Metrics.TopOfPageRate,
	}, nil
}
