// Package promptkit 负责把补全数据序列化为体量受控的提示词。
// 超出预算时切换精简模式并按优先级打分截断，绝不超过硬上限。
package promptkit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iWorld-y/growth_radar/pkg/logger"
	"github.com/iWorld-y/growth_radar/pkg/model"
	"github.com/iWorld-y/growth_radar/pkg/skill"
)

// Mode 渲染模式
type Mode string

const (
	ModeFull    Mode = "full"
	ModeCompact Mode = "compact"
)

// Prompt 组装完成的提示词
type Prompt struct {
	System   string
	User     string
	Mode     Mode
	Included int
	Dropped  int
	Tokens   int // 全文估算 token 数
}

// EstimateTokens 估算 token 数：字符数除以 4 向上取整。近似值，非精确分词。
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// systemPrompt 两个渠道共用的系统提示
const systemPrompt = "You are a structured JSON generator. Respond with a single JSON object and nothing else."

// agentContract Agent 输出格式契约
const agentContract = `Respond strictly in this JSON shape, no markdown fences:
{
  "actions": [
    {"action": "...", "target_level": "keyword|page|campaign|account|site", "impact": "high|medium|low", "rationale": "..."}
  ]
}`

// BuildAgentPrompt 为单个分析渠道组装提示词
func BuildAgentPrompt(channel model.Channel, items []model.EnrichedItem, cfg *skill.AgentConfig, client model.ClientContext, dr model.DateRange) (*Prompt, error) {
	selected, dropped, mode := selectItems(items, cfg)

	var sb strings.Builder

	// 角色上下文
	sb.WriteString(cfg.RoleContext)
	fmt.Fprintf(&sb, "\n\nClient: %s (%s), business category: %s. Reporting window: %s to %s.\n",
		client.Name, client.Domain, client.Category, dr.Start, dr.End)

	// KPI 口径
	fmt.Fprintf(&sb, "\nPrimary KPIs: %s\n", strings.Join(cfg.PrimaryKPIs, ", "))
	if mode == ModeFull && len(cfg.SecondaryKPIs) > 0 {
		fmt.Fprintf(&sb, "Secondary KPIs: %s\n", strings.Join(cfg.SecondaryKPIs, ", "))
	}

	// 基准
	if len(cfg.Benchmarks) > 0 {
		sb.WriteString("\nBenchmarks:\n")
		for _, b := range cfg.Benchmarks {
			fmt.Fprintf(&sb, "- %s\n", b)
		}
	}

	// 模式库，精简模式下压缩为单行
	if len(cfg.Patterns) > 0 {
		if mode == ModeFull {
			sb.WriteString("\nKnown patterns to look for:\n")
			for _, p := range cfg.Patterns {
				fmt.Fprintf(&sb, "- %s\n", p)
			}
		} else {
			fmt.Fprintf(&sb, "\nKnown patterns: %s\n", strings.Join(cfg.Patterns, "; "))
		}
	}

	// 数据载荷
	fmt.Fprintf(&sb, "\nAnalysis data (%d of %d items", len(selected), len(items))
	if dropped > 0 {
		fmt.Fprintf(&sb, ", %d lower-priority items omitted", dropped)
	}
	sb.WriteString("):\n")
	for i := range selected {
		renderItem(&sb, &selected[i], mode)
	}

	// 示例，精简模式只保留一个
	examples := cfg.Examples
	if mode == ModeCompact && len(examples) > 1 {
		examples = examples[:1]
	}
	if len(examples) > 0 {
		sb.WriteString("\nExample actions:\n")
		for _, e := range examples {
			fmt.Fprintf(&sb, "%s\n", e)
		}
	}

	// 约束
	if len(cfg.Constraints) > 0 {
		sb.WriteString("\nConstraints:\n")
		for _, c := range cfg.Constraints {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}

	// 输出契约
	sb.WriteString("\n")
	sb.WriteString(agentContract)

	user := sb.String()
	tokens := EstimateTokens(systemPrompt) + EstimateTokens(user)

	// 安全网：截断逻辑正确时不应触发
	if cfg.HardTokenCeiling > 0 && tokens > cfg.HardTokenCeiling {
		return nil, fmt.Errorf("prompt for %s exceeds hard token ceiling: %d > %d", channel, tokens, cfg.HardTokenCeiling)
	}

	logger.Log.Debugf("提示词组装完成 [%s]: mode=%s items=%d dropped=%d tokens=%d",
		channel, mode, len(selected), dropped, tokens)

	return &Prompt{
		System:   systemPrompt,
		User:     user,
		Mode:     mode,
		Included: len(selected),
		Dropped:  dropped,
		Tokens:   tokens,
	}, nil
}

// selectItems 决定渲染模式并按优先级分数截断
func selectItems(items []model.EnrichedItem, cfg *skill.AgentConfig) ([]model.EnrichedItem, int, Mode) {
	mode := ModeFull
	limit := cfg.MaxItemsFull
	if limit <= 0 {
		limit = 25
	}

	// 预估全量数据载荷体量
	payload := 0
	for i := range items {
		var sb strings.Builder
		renderItem(&sb, &items[i], ModeFull)
		payload += EstimateTokens(sb.String())
	}

	if len(items) > limit || (cfg.TokenBudget > 0 && payload > cfg.TokenBudget) {
		mode = ModeCompact
		limit = cfg.MaxItemsCompact
		if limit <= 0 {
			limit = 10
		}
	}

	if len(items) <= limit {
		return items, 0, mode
	}

	scored := make([]model.EnrichedItem, len(items))
	copy(scored, items)
	sort.SliceStable(scored, func(i, j int) bool {
		return itemScore(&scored[i]) > itemScore(&scored[j])
	})

	return scored[:limit], len(items) - limit, mode
}

// itemScore 截断用优先分：原因类别打底，花费、展示量与补全数据加成
func itemScore(item *model.EnrichedItem) float64 {
	score := 0.0
	switch item.Priority {
	case model.PriorityHigh:
		score = 100
	case model.PriorityMedium:
		score = 50
	case model.PriorityLow:
		score = 20
	}
	// 浪费型花费问题优先于一般问题
	if item.Reason == "high-spend-low-return" || item.Reason == "organic-cannibalization-risk" {
		score += 10
	}
	score += item.Spend() / 10
	score += float64(item.Impressions()) / 1000
	if item.Competitive != nil {
		score += 15
	}
	if item.Content != nil {
		score += 10
	}
	return score
}

// renderItem 渲染单个数据条目
func renderItem(sb *strings.Builder, item *model.EnrichedItem, mode Mode) {
	if mode == ModeCompact {
		fmt.Fprintf(sb, "- [%s/%s] %q", item.Priority, item.Reason, item.Query)
		if item.Paid != nil {
			fmt.Fprintf(sb, " spend=%.0f roas=%.1f", item.Paid.Spend, item.Paid.ROAS)
		}
		if item.Organic != nil && item.Organic.Position > 0 {
			fmt.Fprintf(sb, " pos=%.1f", item.Organic.Position)
		}
		sb.WriteString("\n")
		return
	}

	fmt.Fprintf(sb, "\n### %s %q (priority: %s, reason: %s)\n", item.Kind, item.Query, item.Priority, item.Reason)
	if item.URL != "" {
		fmt.Fprintf(sb, "URL: %s\n", item.URL)
	}
	if item.Paid != nil {
		fmt.Fprintf(sb, "Paid: spend=%.2f roas=%.2f clicks=%d impressions=%d ctr=%.3f\n",
			item.Paid.Spend, item.Paid.ROAS, item.Paid.Clicks, item.Paid.Impressions, item.Paid.CTR)
	}
	if item.Organic != nil {
		fmt.Fprintf(sb, "Organic: position=%.1f impressions=%d ctr=%.3f\n",
			item.Organic.Position, item.Organic.Impressions, item.Organic.CTR)
	}
	if item.Behavior != nil {
		fmt.Fprintf(sb, "Behavior: bounce=%.2f sessions=%d cvr=%.3f\n",
			item.Behavior.BounceRate, item.Behavior.Sessions, item.Behavior.ConversionRate)
	}
	if item.Competitive != nil {
		fmt.Fprintf(sb, "Competitive (%s-level): impression_share=%.2f avg_cpc=%.2f competitors=%d top_of_page=%.2f\n",
			item.Competitive.Granularity, item.Competitive.Metrics.ImpressionShare,
			item.Competitive.Metrics.AvgCPC, item.Competitive.Metrics.CompetitorCount,
			item.Competitive.Metrics.TopOfPageRate)
	}
	if item.Content != nil {
		fmt.Fprintf(sb, "Page: type=%s words=%d title=%q schema=[%s]\n",
			item.Content.PageType, item.Content.WordCount, item.Content.Title,
			strings.Join(item.Content.SchemaTypes, ", "))
		for _, v := range item.Content.SchemaViolations {
			fmt.Fprintf(sb, "Schema issue: %s\n", v)
		}
	}
	if item.FetchFailed {
		sb.WriteString("Page: fetch failed, no content available\n")
	}
}
