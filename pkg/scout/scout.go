// Package scout 实现初筛阶段：把原始查询数据按技能规则分类为带优先级的候选项。
// 纯函数，无 IO，相同输入必须产生字节一致的输出。
package scout

import (
	"sort"

	"github.com/iWorld-y/growth_radar/pkg/model"
	"github.com/iWorld-y/growth_radar/pkg/skill"
)

// Run 执行初筛。规则列表非空时按声明顺序求值，否则走内置默认判定链。
func Run(records []model.RawQueryRecord, cfg skill.TriageConfig) model.ScoutFindings {
	var keywords, pages []model.CandidateItem

	for i := range records {
		rec := &records[i]
		if !rec.HasMetrics() {
			continue
		}

		priority, reason, matched := classify(rec, cfg)
		if !matched {
			continue
		}

		item := model.CandidateItem{
			Kind:     model.ItemKeyword,
			Query:    rec.Query,
			Paid:     rec.Paid,
			Organic:  rec.Organic,
			Behavior: rec.Behavior,
			Priority: priority,
			Reason:   reason,
		}
		keywords = append(keywords, item)

		// 带自然落地页的记录同时产出页面候选项
		if rec.Organic != nil && rec.Organic.URL != "" {
			page := item
			page.Kind = model.ItemPage
			page.URL = rec.Organic.URL
			pages = append(pages, page)
		}
	}

	keywords = dedupKeywords(keywords)
	pages = dedupPages(pages)

	sortCandidates(keywords)
	sortCandidates(pages)

	if cfg.MaxKeywords > 0 && len(keywords) > cfg.MaxKeywords {
		keywords = keywords[:cfg.MaxKeywords]
	}
	if cfg.MaxPages > 0 && len(pages) > cfg.MaxPages {
		pages = pages[:cfg.MaxPages]
	}

	return model.ScoutFindings{
		Keywords:          keywords,
		Pages:             pages,
		AppliedThresholds: appliedThresholds(cfg.Thresholds),
		TotalRecords:      len(records),
		KeywordCount:      len(keywords),
		PageCount:         len(pages),
	}
}

// classify 对单条记录求值，返回优先级、原因码和是否命中
func classify(rec *model.RawQueryRecord, cfg skill.TriageConfig) (model.Priority, string, bool) {
	if len(cfg.Rules) > 0 {
		for _, rule := range cfg.Rules {
			if !rule.Enabled {
				continue
			}
			if matchAll(rec, rule.Conditions) {
				return model.Priority(rule.Priority), rule.Reason, true
			}
		}
		return "", "", false
	}
	return classifyDefault(rec, cfg.Thresholds)
}

// classifyDefault 内置默认判定链，四个固定谓词按序求值，首个命中生效
func classifyDefault(rec *model.RawQueryRecord, t skill.TriageThresholds) (model.Priority, string, bool) {
	// 1. 高花费低回报
	if rec.Paid != nil && rec.Paid.Spend >= t.HighSpend && rec.Paid.ROAS < t.LowROAS {
		return model.PriorityHigh, "high-spend-low-return", true
	}
	// 2. 自然排名相食风险：自然排名已经很好，却还在付费买同一个词
	if rec.Paid != nil && rec.Paid.Spend > 0 &&
		rec.Organic != nil && rec.Organic.Position > 0 && rec.Organic.Position <= t.GoodPosition {
		return model.PriorityHigh, "organic-cannibalization-risk", true
	}
	// 3. 增长潜力：曝光充足但点击率偏低
	if impressions(rec) >= t.MinImpressions && ctr(rec) < t.LowCTR && ctr(rec) >= 0 {
		return model.PriorityMedium, "growth-potential", true
	}
	// 4. 竞争压力：自然排名滑出首屏
	if rec.Organic != nil && rec.Organic.Position >= t.SlippingPosition {
		return model.PriorityLow, "competitive-pressure", true
	}
	return "", "", false
}

func matchAll(rec *model.RawQueryRecord, conds []skill.Condition) bool {
	if len(conds) == 0 {
		return false
	}
	for _, c := range conds {
		v, ok := fieldValue(rec, c.Field)
		if !ok || !compare(v, c.Op, c.Value) {
			return false
		}
	}
	return true
}

// fieldValue 读取条件字段；对应指标组缺失时视为不可比较
func fieldValue(rec *model.RawQueryRecord, field string) (float64, bool) {
	switch field {
	case "spend":
		if rec.Paid == nil {
			return 0, false
		}
		return rec.Paid.Spend, true
	case "roas":
		if rec.Paid == nil {
			return 0, false
		}
		return rec.Paid.ROAS, true
	case "organic_position":
		if rec.Organic == nil || rec.Organic.Position <= 0 {
			return 0, false
		}
		return rec.Organic.Position, true
	case "bounce_rate":
		if rec.Behavior == nil {
			return 0, false
		}
		return rec.Behavior.BounceRate, true
	case "impressions":
		return float64(impressions(rec)), true
	case "ctr":
		c := ctr(rec)
		if c < 0 {
			return 0, false
		}
		return c, true
	default:
		return 0, false
	}
}

func compare(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case "<":
		return v < threshold
	case ">=":
		return v >= threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}

func impressions(rec *model.RawQueryRecord) int {
	n := 0
	if rec.Paid != nil {
		n += rec.Paid.Impressions
	}
	if rec.Organic != nil {
		n += rec.Organic.Impressions
	}
	return n
}

// ctr 付费优先，其次自然；两者都缺返回 -1
func ctr(rec *model.RawQueryRecord) float64 {
	if rec.Paid != nil {
		return rec.Paid.CTR
	}
	if rec.Organic != nil {
		return rec.Organic.CTR
	}
	return -1
}

// dedupKeywords 同一归一化查询词只保留优先级最高者，平手时取花费更高者
func dedupKeywords(items []model.CandidateItem) []model.CandidateItem {
	best := make(map[string]int) // 归一化词 -> items 下标
	var order []string
	for i := range items {
		key := model.NormalizeQuery(items[i].Query)
		j, seen := best[key]
		if !seen {
			best[key] = i
			order = append(order, key)
			continue
		}
		if betterCandidate(&items[i], &items[j]) {
			best[key] = i
		}
	}
	out := make([]model.CandidateItem, 0, len(order))
	for _, key := range order {
		out = append(out, items[best[key]])
	}
	return out
}

// dedupPages 同一 URL 只保留优先级最高者
func dedupPages(items []model.CandidateItem) []model.CandidateItem {
	best := make(map[string]int)
	var order []string
	for i := range items {
		key := items[i].URL
		j, seen := best[key]
		if !seen {
			best[key] = i
			order = append(order, key)
			continue
		}
		if betterCandidate(&items[i], &items[j]) {
			best[key] = i
		}
	}
	out := make([]model.CandidateItem, 0, len(order))
	for _, key := range order {
		out = append(out, items[best[key]])
	}
	return out
}

func betterCandidate(a, b *model.CandidateItem) bool {
	if a.Priority.Rank() != b.Priority.Rank() {
		return a.Priority.Rank() > b.Priority.Rank()
	}
	return a.Spend() > b.Spend()
}

// sortCandidates 优先级降序，其次量级（花费，再展示量）降序，最后按词稳定
func sortCandidates(items []model.CandidateItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if a.Spend() != b.Spend() {
			return a.Spend() > b.Spend()
		}
		if a.Impressions() != b.Impressions() {
			return a.Impressions() > b.Impressions()
		}
		return a.Query < b.Query
	})
}

func appliedThresholds(t skill.TriageThresholds) map[string]float64 {
	return map[string]float64{
		"high_spend":        t.HighSpend,
		"low_roas":          t.LowROAS,
		"good_position":     t.GoodPosition,
		"slipping_position": t.SlippingPosition,
		"high_bounce":       t.HighBounce,
		"min_impressions":   float64(t.MinImpressions),
		"low_ctr":           t.LowCTR,
	}
}
