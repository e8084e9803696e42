// Package llm 封装对外部推理服务的调用：限流、429 退避、围栏剥离与 JSON 解析。
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

// JSONGenerator 结构化生成接口，便于测试替换
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system, user string, out any) error
}

// Caller 基于 eino ChatModel 的默认实现
type Caller struct {
	cm      model.ChatModel
	limiter *rate.Limiter
}

// NewCaller 创建调用器
func NewCaller(cm model.ChatModel, limiter *rate.Limiter) *Caller {
	return &Caller{cm: cm, limiter: limiter}
}

// Ensure Caller implements JSONGenerator
var _ JSONGenerator = (*Caller)(nil)

// GenerateJSON 调用推理服务并把响应解析进 out。
// 仅对 429 限流做指数退避重试；响应格式不合法立即失败，不做部分接受。
func (c *Caller) GenerateJSON(ctx context.Context, system, user string, out any) error {
	maxRetries := 3
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: system},
			{Role: schema.User, Content: user},
		}

		resp, err := c.cm.Generate(ctx, messages)
		if err != nil {
			if strings.Contains(err.Error(), "429") || strings.Contains(strings.ToLower(err.Error()), "too many requests") {
				lastErr = err
				if i < maxRetries {
					time.Sleep(baseDelay * time.Duration(1<<i))
					continue
				}
			}
			return err
		}

		cleaned := StripFences(resp.Content)
		if err := json.Unmarshal([]byte(cleaned), out); err != nil {
			return fmt.Errorf("malformed reasoning response: %w", err)
		}
		return nil
	}
	return lastErr
}

// StripFences 剥离模型偶尔带上的 markdown 代码围栏
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
