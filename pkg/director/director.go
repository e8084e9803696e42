// Package director 实现综合阶段：合并双渠道输出、调用推理服务生成
// 统一推荐，再做约束过滤、加权排序与硬性裁剪。
package director

import (
	"context"
	"encoding/json"
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

// Director 综合阶段执行器。单协程使用，内部累计本阶段的拦截数。
type Director struct {
	gen        llm.JSONGenerator
	validator  *guard.Validator
	violations int
}

// New 创建综合执行器。validator 由编排器传入，与渠道阶段共用同一套规则。
func New(gen llm.JSONGenerator, validator *guard.Validator) *Director {
	return &Director{gen: gen, validator: validator}
}

// Violations 返回综合阶段累计拦截数
func (d *Director) Violations() int {
	return d.violations
}

const systemPrompt = "You are a structured JSON generator. Respond with a single JSON object and nothing else."

const outputContract = `Respond strictly in this JSON shape, no markdown fences:
{
  "executive_summary": "...",
  "recommendations": [
    {"title": "...", "category": "sem|seo|hybrid", "impact": "high|medium|low", "effort": "high|medium|low", "description": "...", "action_items": ["..."]}
  ]
}`

// Run 执行综合。推理服务失败或响应不合法都立即失败。
func (d *Director) Run(ctx context.Context, sem, seo *model.AgentOutput, cfg *skill.DirectorConfig, client model.ClientContext, dr model.DateRange) (*model.DirectorOutput, error) {
	user, err := d.buildPrompt(sem, seo, cfg, client, dr)
	if err != nil {
		return nil, err
	}

	var out model.DirectorOutput
	if err := d.gen.GenerateJSON(ctx, systemPrompt, user, &out); err != nil {
		return nil, fmt.Errorf("director reasoning call: %w", err)
	}
	if err := validateShape(&out); err != nil {
		return nil, fmt.Errorf("director response shape invalid: %w", err)
	}

	out.Recommendations = d.applyConstraints(out.Recommendations, cfg)
	scoreAndRank(out.Recommendations, cfg.Weights)
	out.Recommendations = applyHardFilters(out.Recommendations, cfg)

	return &out, nil
}

// buildPrompt 序列化双渠道输出，附带冲突解决与协同识别指引。
// 这些规则只作为提示词上下文，不在代码路径里机械执行。
func (d *Director) buildPrompt(sem, seo *model.AgentOutput, cfg *skill.DirectorConfig, client model.ClientContext, dr model.DateRange) (string, error) {
	semJSON, err := json.MarshalIndent(sem.Actions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sem output: %w", err)
	}
	seoJSON, err := json.MarshalIndent(seo.Actions, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal seo output: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are the marketing director synthesizing paid-search and organic-search recommendations into one prioritized cross-channel plan.\n")
	fmt.Fprintf(&sb, "\nClient: %s (%s), business category: %s. Reporting window: %s to %s.\n",
		client.Name, client.Domain, client.Category, dr.Start, dr.End)

	if len(cfg.ConflictRules) > 0 {
		sb.WriteString("\nConflict resolution guidance:\n")
		for _, r := range cfg.ConflictRules {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	if len(cfg.SynergyRules) > 0 {
		sb.WriteString("\nSynergy guidance:\n")
		for _, r := range cfg.SynergyRules {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}

	fmt.Fprintf(&sb, "\nPaid-search (SEM) recommendations:\n%s\n", semJSON)
	fmt.Fprintf(&sb, "\nOrganic-search (SEO) recommendations:\n%s\n", seoJSON)

	sb.WriteString("\nMerge overlapping actions, resolve declared conflicts, call out cross-channel synergies, and write a concise executive summary.\n")
	sb.WriteString("\n")
	sb.WriteString(outputContract)

	user := sb.String()
	tokens := promptkit.EstimateTokens(systemPrompt) + promptkit.EstimateTokens(user)
	if cfg.HardTokenCeiling > 0 && tokens > cfg.HardTokenCeiling {
		return "", fmt.Errorf("director prompt exceeds hard token ceiling: %d > %d", tokens, cfg.HardTokenCeiling)
	}
	return user, nil
}

func validateShape(out *model.DirectorOutput) error {
	if strings.TrimSpace(out.ExecutiveSummary) == "" {
		return fmt.Errorf("empty executive_summary")
	}
	for i, rec := range out.Recommendations {
		if strings.TrimSpace(rec.Title) == "" {
			return fmt.Errorf("recommendation %d: empty title", i)
		}
		switch rec.Category {
		case "sem", "seo", "hybrid":
		default:
			return fmt.Errorf("recommendation %d: invalid category %q", i, rec.Category)
		}
		switch rec.Impact {
		case "high", "medium", "low":
		default:
			return fmt.Errorf("recommendation %d: invalid impact %q", i, rec.Impact)
		}
		switch rec.Effort {
		case "high", "medium", "low":
		default:
			return fmt.Errorf("recommendation %d: invalid effort %q", i, rec.Effort)
		}
	}
	return nil
}

// applyConstraints 逐条过滤动作条目，动作全被拦掉的推荐整条剔除
func (d *Director) applyConstraints(recs []model.UnifiedRecommendation, _ *skill.DirectorConfig) []model.UnifiedRecommendation {
	kept := make([]model.UnifiedRecommendation, 0, len(recs))
	for _, rec := range recs {
		items, dropped := d.validator.FilterItems(rec.Category, rec.ActionItems)
		d.violations += dropped
		if len(rec.ActionItems) > 0 && len(items) == 0 {
			logger.Log.Warnf("推荐 [%s] 的全部动作被约束校验拦截，整条剔除", rec.Title)
			continue
		}
		rec.ActionItems = items
		kept = append(kept, rec)
	}
	return kept
}

// scoreAndRank 按技能加权系数打分并稳定排序。
// 影响度吃收入与成本权重，低投入加分，跨渠道项按风险权重扣分。
func scoreAndRank(recs []model.UnifiedRecommendation, w skill.ImpactWeights) {
	for i := range recs {
		rec := &recs[i]
		impact := levelValue(rec.Impact)
		effort := 4 - levelValue(rec.Effort) // low effort 得分高
		risk := 1.0
		if rec.Category == "hybrid" {
			risk = 2.0
		}
		rec.Score = (w.Revenue+w.Cost)*float64(impact) + w.Effort*float64(effort) - w.Risk*risk
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
}

func levelValue(level string) int {
	switch level {
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}

// applyHardFilters 硬性保留/剔除规则、最低影响度裁剪与数量截断
func applyHardFilters(recs []model.UnifiedRecommendation, cfg *skill.DirectorConfig) []model.UnifiedRecommendation {
	minImpact := levelValue(cfg.MinImpact)

	kept := make([]model.UnifiedRecommendation, 0, len(recs))
	for _, rec := range recs {
		text := strings.ToLower(rec.Title + " " + rec.Description)

		if matchesAny(text, cfg.MustExclude) {
			logger.Log.Infof("推荐 [%s] 命中硬性剔除规则", rec.Title)
			continue
		}
		mustKeep := matchesAny(text, cfg.MustInclude)
		if !mustKeep && levelValue(rec.Impact) < minImpact {
			continue
		}
		kept = append(kept, rec)
	}

	if cfg.MaxRecommendations > 0 && len(kept) > cfg.MaxRecommendations {
		kept = kept[:cfg.MaxRecommendations]
	}
	return kept
}

func matchesAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(text, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
