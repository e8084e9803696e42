// Package researcher 实现补全阶段：为候选项补充竞争指标与页面内容。
// 单项失败只记录缺失，绝不让整个流水线失败。
package researcher

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/growth_radar/pkg/compdata"
	"github.com/iWorld-y/growth_radar/pkg/logger"
	"github.com/iWorld-y/growth_radar/pkg/model"
	"github.com/iWorld-y/growth_radar/pkg/skill"
)

// Researcher 补全阶段执行器
type Researcher struct {
	provider compdata.Provider // 可为 nil，表示跳过竞争数据
	fetcher  PageFetcher
	cfg      skill.EnrichmentConfig
}

// New 创建补全执行器。fetcher 为 nil 时使用默认 HTTP 抓取器。
func New(provider compdata.Provider, fetcher PageFetcher, cfg skill.EnrichmentConfig) *Researcher {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	return &Researcher{provider: provider, fetcher: fetcher, cfg: cfg}
}

// Run 执行补全，输出包含数据质量统计
func (r *Researcher) Run(ctx context.Context, findings *model.ScoutFindings, dr model.DateRange) (*model.ResearchData, error) {
	items := make([]model.EnrichedItem, 0, len(findings.Keywords)+len(findings.Pages))
	for _, k := range findings.Keywords {
		items = append(items, model.EnrichedItem{CandidateItem: k})
	}
	for _, p := range findings.Pages {
		items = append(items, model.EnrichedItem{CandidateItem: p})
	}

	if r.provider != nil {
		r.enrichCompetitive(ctx, items, dr)
	}
	r.enrichPages(ctx, items)

	data := &model.ResearchData{Items: items}
	for i := range items {
		if items[i].Competitive != nil {
			data.Quality.WithCompetitive++
		}
		if items[i].Content != nil {
			data.Quality.WithContent++
			if len(items[i].Content.SchemaTypes) > 0 {
				data.Quality.WithSchema++
			}
		}
		if items[i].FetchFailed {
			data.Quality.FetchFailed++
		}
	}
	return data, nil
}

// enrichCompetitive 分级查询竞争指标：关键词级优先，账户级兜底，都缺则留空
func (r *Researcher) enrichCompetitive(ctx context.Context, items []model.EnrichedItem, dr model.DateRange) {
	// 账户级数据整轮只取一次
	account, err := r.provider.AccountMetrics(ctx, dr)
	if err != nil && !errors.Is(err, compdata.ErrNoData) {
		logger.Log.Warnf("账户级竞争数据查询失败: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())

	for i := range items {
		item := &items[i]
		g.Go(func() error {
			m, err := r.provider.KeywordMetrics(gctx, item.Query, dr)
			switch {
			case err == nil:
				item.Competitive = &model.CompetitiveRecord{Metrics: *m, Granularity: model.GranularityKeyword}
			case errors.Is(err, compdata.ErrNoData):
				if account != nil {
					item.Competitive = &model.CompetitiveRecord{Metrics: *account, Granularity: model.GranularityAccount}
				}
			default:
				// 查询出错按缺失处理
				logger.Log.Warnf("关键词竞争数据查询失败 [%s]: %v", item.Query, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range items {
		applyBoost(&items[i], r.cfg.BoostRules)
	}
}

// applyBoost 按修正规则累计增减。净值为正时非 high 项提升到 high；
// 净值为负时 high 项压到 medium。负向修正不会把 medium 压到 low，
// 这个不对称边界是有意保留的。
func applyBoost(item *model.EnrichedItem, rules []skill.BoostRule) {
	if item.Competitive == nil || len(rules) == 0 {
		return
	}

	net := 0
	for _, rule := range rules {
		v, ok := boostMetric(&item.Competitive.Metrics, rule.Metric)
		if !ok {
			continue
		}
		if compareOp(v, rule.Op, rule.Value) {
			net += rule.Boost
		}
	}

	switch {
	case net > 0 && item.Priority != model.PriorityHigh:
		item.Priority = model.PriorityHigh
	case net < 0 && item.Priority == model.PriorityHigh:
		item.Priority = model.PriorityMedium
	}
}

func boostMetric(m *model.CompetitiveMetrics, name string) (float64, bool) {
	switch name {
	case "impression_share":
		return m.ImpressionShare, true
	case "avg_cpc":
		return m.AvgCPC, true
	case "competitor_count":
		return float64(m.CompetitorCount), true
	case "top_of_page_rate":
		return m.TopOfPageRate, true
	default:
		return 0, false
	}
}

func compareOp(v float64, op string, threshold float64) bool {
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

// enrichPages 分批抓取页面内容，批内并发不超过技能配置上限
func (r *Researcher) enrichPages(ctx context.Context, items []model.EnrichedItem) {
	timeout := time.Duration(r.cfg.FetchTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency())

	for i := range items {
		item := &items[i]
		if item.Kind != model.ItemPage || item.URL == "" {
			continue
		}
		g.Go(func() error {
			// 每次抓取独立超时，超时只影响自身
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			body, err := r.fetcher.Fetch(fctx, item.URL)
			if err != nil {
				logger.Log.Warnf("页面抓取失败 [%s]: %v", item.URL, err)
				item.FetchFailed = true
				return nil
			}

			content, err := parsePage(body, item.URL, &r.cfg)
			if err != nil {
				logger.Log.Warnf("页面解析失败 [%s]: %v", item.URL, err)
				item.FetchFailed = true
				return nil
			}
			item.Content = content
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Researcher) concurrency() int {
	if r.cfg.FetchConcurrency > 0 {
		return r.cfg.FetchConcurrency
	}
	return 4
}
