// Package agent 实现单渠道分析 Agent：组装提示词、调用推理服务、
// 校验输出结构并按技能配置过滤排序。
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/iWorld-y/growth_radar/pkg/guard"
	"github.com/iWorld-y/growth_radar/pkg/llm"
	"github.com/iWorld-y/growth_radar/pkg/logger"
	"github.com/iWorld-y/growth_radar/pkg/model"
	"github.com/iWorld-y/growth_radar/pkg/promptkit"
	"github.com/iWorld-y/growth_radar/pkg/skill"
)

// Agent 单渠道分析执行器
type Agent struct {
	channel model.Channel
	gen     llm.JSONGenerator
}

// New 创建指定渠道的 Agent
func New(channel model.Channel, gen llm.JSONGenerator) *Agent {
	return &Agent{channel: channel, gen: gen}
}

// agentResponse 推理服务响应的固定结构
type agentResponse struct {
	Actions []model.AgentAction `json:"actions"`
}

// Run 执行分析。空输入直接返回空输出，不调用推理服务。
// 响应结构不合法立即失败，调用方应视为可重试的外部依赖错误。
func (a *Agent) Run(ctx context.Context, items []model.EnrichedItem, cfg *skill.AgentConfig, client model.ClientContext, dr model.DateRange) (*model.AgentOutput, error) {
	relevant := a.relevantItems(items)
	if len(relevant) == 0 {
		logger.Log.Infof("渠道 [%s] 无可分析数据，跳过推理调用", a.channel)
		return &model.AgentOutput{Channel: a.channel}, nil
	}

	prompt, err := promptkit.BuildAgentPrompt(a.channel, relevant, cfg, client, dr)
	if err != nil {
		return nil, fmt.Errorf("build %s prompt: %w", a.channel, err)
	}

	var resp agentResponse
	if err := a.gen.GenerateJSON(ctx, prompt.System, prompt.User, &resp); err != nil {
		return nil, fmt.Errorf("%s reasoning call: %w", a.channel, err)
	}

	if err := validateShape(resp.Actions); err != nil {
		return nil, fmt.Errorf("%s response shape invalid: %w", a.channel, err)
	}

	actions := a.filterActions(resp.Actions, cfg)

	return &model.AgentOutput{
		Channel: a.channel,
		Actions: actions,
		Dropped: prompt.Dropped,
	}, nil
}

// relevantItems 选出本渠道关心的条目
func (a *Agent) relevantItems(items []model.EnrichedItem) []model.EnrichedItem {
	var out []model.EnrichedItem
	for i := range items {
		item := &items[i]
		switch a.channel {
		case model.ChannelSEM:
			if item.Kind == model.ItemKeyword && item.Paid != nil {
				out = append(out, *item)
			}
		case model.ChannelSEO:
			if item.Kind == model.ItemPage || item.Organic != nil {
				out = append(out, *item)
			}
		}
	}
	return out
}

// validateShape 校验固定输出结构，任何缺字段都算阶段失败
func validateShape(actions []model.AgentAction) error {
	if len(actions) == 0 {
		return fmt.Errorf("empty actions list")
	}
	for i, action := range actions {
		if strings.TrimSpace(action.Action) == "" {
			return fmt.Errorf("action %d: empty action text", i)
		}
		if strings.TrimSpace(action.TargetLevel) == "" {
			return fmt.Errorf("action %d: empty target_level", i)
		}
		switch action.Impact {
		case "high", "medium", "low":
		default:
			return fmt.Errorf("action %d: invalid impact %q", i, action.Impact)
		}
	}
	return nil
}

// filterActions 应用技能输出过滤：类型黑名单、优先排序、数量截断
func (a *Agent) filterActions(actions []model.AgentAction, cfg *skill.AgentConfig) []model.AgentAction {
	kept := make([]model.AgentAction, 0, len(actions))
	for _, action := range actions {
		category := guard.InferCategory(a.channel, strings.ToLower(action.Action))
		if contains(cfg.ExcludeTypes, category) {
			logger.Log.Debugf("渠道 [%s] 按技能配置排除动作类型 %s: %q", a.channel, category, action.Action)
			continue
		}
		kept = append(kept, action)
	}

	// 稳定排序：prioritize 类型靠前，deprioritize 类型靠后，其余保持相对顺序
	rank := func(action *model.AgentAction) int {
		category := guard.InferCategory(a.channel, strings.ToLower(action.Action))
		if contains(cfg.PrioritizeTypes, category) {
			return 0
		}
		if contains(cfg.DeprioritizeTypes, category) {
			return 2
		}
		return 1
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return rank(&kept[i]) < rank(&kept[j])
	})

	if cfg.MaxActions > 0 && len(kept) > cfg.MaxActions {
		kept = kept[:cfg.MaxActions]
	}
	return kept
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
