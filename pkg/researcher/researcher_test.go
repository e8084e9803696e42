package researcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iWorld-y/growth_radar/pkg/compdata"
	"github.com/iWorld-y/growth_radar/pkg/model"
	"github.com/iWorld-y/growth_radar/pkg/skill"
)

// fakeProvider 关键词级数据按 map 查询，查不到回落 ErrNoData
type fakeProvider struct {
	keywords   map[string]model.CompetitiveMetrics
	account    *model.CompetitiveMetrics
	keywordErr error
}

func (f *fakeProvider) KeywordMetrics(ctx context.Context, query string, dr model.DateRange) (*model.CompetitiveMetrics, error) {
	if f.keywordErr != nil {
		return nil, f.keywordErr
	}
	if m, ok := f.keywords[query]; ok {
		return &m, nil
	}
	return nil, compdata.ErrNoData
}

func (f *fakeProvider) AccountMetrics(ctx context.Context, dr model.DateRange) (*model.CompetitiveMetrics, error) {
	if f.account == nil {
		return nil, compdata.ErrNoData
	}
	return f.account, nil
}

type fakeFetcher struct {
	pages map[string][]byte
	delay time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return body, nil
}

func findingsWith(items ...model.CandidateItem) *model.ScoutFindings {
	findings := &model.ScoutFindings{}
	for _, item := range items {
		if item.Kind == model.ItemPage {
			findings.Pages = append(findings.Pages, item)
		} else {
			findings.Keywords = append(findings.Keywords, item)
		}
	}
	return findings
}

func TestTieredCompetitiveLookup(t *testing.T) {
	provider := &fakeProvider{
		keywords: map[string]model.CompetitiveMetrics{
			"running shoes": {ImpressionShare: 0.5, AvgCPC: 1.2},
		},
		account: &model.CompetitiveMetrics{ImpressionShare: 0.4, AvgCPC: 2.0},
	}
	r := New(provider, &fakeFetcher{}, skill.EnrichmentConfig{})

	findings := findingsWith(
		model.CandidateItem{Kind: model.ItemKeyword, Query: "running shoes", Priority: model.PriorityMedium},
		model.CandidateItem{Kind: model.ItemKeyword, Query: "trail boots", Priority: model.PriorityMedium},
	)

	data, err := r.Run(context.Background(), findings, model.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	byQuery := make(map[string]model.EnrichedItem)
	for _, item := range data.Items {
		byQuery[item.Query] = item
	}

	shoes := byQuery["running shoes"]
	if shoes.Competitive == nil || shoes.Competitive.Granularity != model.GranularityKeyword {
		t.Errorf("expected keyword granularity for direct hit, got %+v", shoes.Competitive)
	}
	boots := byQuery["trail boots"]
	if boots.Competitive == nil || boots.Competitive.Granularity != model.GranularityAccount {
		t.Errorf("expected account fallback, got %+v", boots.Competitive)
	}
	if data.Quality.WithCompetitive != 2 {
		t.Errorf("with_competitive = %d, want 2", data.Quality.WithCompetitive)
	}
}

func TestCompetitiveMissLeavesItemEmpty(t *testing.T) {
	provider := &fakeProvider{} // 两级都无数据
	r := New(provider, &fakeFetcher{}, skill.EnrichmentConfig{})

	findings := findingsWith(
		model.CandidateItem{Kind: model.ItemKeyword, Query: "obscure term", Priority: model.PriorityLow},
	)
	data, err := r.Run(context.Background(), findings, model.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	if data.Items[0].Competitive != nil {
		t.Error("expected no competitive record on double miss")
	}
	if data.Quality.WithCompetitive != 0 {
		t.Errorf("with_competitive = %d, want 0", data.Quality.WithCompetitive)
	}
}

func TestProviderErrorDoesNotFailRun(t *testing.T) {
	provider := &fakeProvider{keywordErr: errors.New("upstream 500")}
	r := New(provider, &fakeFetcher{}, skill.EnrichmentConfig{})

	findings := findingsWith(
		model.CandidateItem{Kind: model.ItemKeyword, Query: "anything", Priority: model.PriorityHigh},
	)
	data, err := r.Run(context.Background(), findings, model.DateRange{})
	if err != nil {
		t.Fatalf("run should not fail on provider error: %v", err)
	}
	if data.Items[0].Competitive != nil {
		t.Error("errored lookup should be treated as missing")
	}
}

func TestApplyBoostAsymmetry(t *testing.T) {
	rules := []skill.BoostRule{
		{Metric: "impression_share", Op: "<", Value: 0.3, Boost: 1},
		{Metric: "competitor_count", Op: "<=", Value: 1, Boost: -1},
	}

	tests := []struct {
		name    string
		start   model.Priority
		metrics model.CompetitiveMetrics
		want    model.Priority
	}{
		{
			name:    "positive net promotes to high",
			start:   model.PriorityLow,
			metrics: model.CompetitiveMetrics{ImpressionShare: 0.1, CompetitorCount: 5},
			want:    model.PriorityHigh,
		},
		{
			name:    "negative net demotes high to medium",
			start:   model.PriorityHigh,
			metrics: model.CompetitiveMetrics{ImpressionShare: 0.9, CompetitorCount: 0},
			want:    model.PriorityMedium,
		},
		{
			name:    "negative net never demotes medium to low",
			start:   model.PriorityMedium,
			metrics: model.CompetitiveMetrics{ImpressionShare: 0.9, CompetitorCount: 0},
			want:    model.PriorityMedium,
		},
		{
			name:    "zero net keeps priority",
			start:   model.PriorityMedium,
			metrics: model.CompetitiveMetrics{ImpressionShare: 0.1, CompetitorCount: 0},
			want:    model.PriorityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &model.EnrichedItem{
				CandidateItem: model.CandidateItem{Priority: tt.start},
				Competitive:   &model.CompetitiveRecord{Metrics: tt.metrics},
			}
			applyBoost(item, rules)
			if item.Priority != tt.want {
				t.Errorf("priority = %s, want %s", item.Priority, tt.want)
			}
		})
	}
}

func TestApplyBoostWithoutCompetitiveData(t *testing.T) {
	item := &model.EnrichedItem{
		CandidateItem: model.CandidateItem{Priority: model.PriorityLow},
	}
	applyBoost(item, []skill.BoostRule{{Metric: "avg_cpc", Op: ">", Value: 0, Boost: 1}})
	if item.Priority != model.PriorityLow {
		t.Errorf("boost must not apply without competitive data, got %s", item.Priority)
	}
}

func TestPageFetchFailureMarksItem(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]byte{
		"https://shop.example/ok": []byte("<html><head><title>OK</title></head><body><h1>OK</h1></body></html>"),
	}}
	cfg := skill.EnrichmentConfig{Extract: skill.ExtractToggles{Title: true, H1: true}}
	r := New(nil, fetcher, cfg)

	findings := findingsWith(
		model.CandidateItem{Kind: model.ItemPage, Query: "a", URL: "https://shop.example/ok", Priority: model.PriorityHigh},
		model.CandidateItem{Kind: model.ItemPage, Query: "b", URL: "https://shop.example/missing", Priority: model.PriorityHigh},
	)

	data, err := r.Run(context.Background(), findings, model.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	byURL := make(map[string]model.EnrichedItem)
	for _, item := range data.Items {
		byURL[item.URL] = item
	}

	ok := byURL["https://shop.example/ok"]
	if ok.Content == nil || ok.Content.Title != "OK" {
		t.Errorf("expected parsed content, got %+v", ok.Content)
	}
	missing := byURL["https://shop.example/missing"]
	if !missing.FetchFailed || missing.Content != nil {
		t.Errorf("expected fetch_failed mark, got %+v", missing)
	}
	if data.Quality.FetchFailed != 1 || data.Quality.WithContent != 1 {
		t.Errorf("quality = %+v", data.Quality)
	}
}

func TestSlowFetchTimesOutWithoutFailingRun(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string][]byte{"https://shop.example/slow": []byte("<html></html>")},
		delay: 300 * time.Millisecond,
	}
	r := New(nil, fetcher, skill.EnrichmentConfig{})

	findings := findingsWith(
		model.CandidateItem{Kind: model.ItemPage, Query: "slow", URL: "https://shop.example/slow", Priority: model.PriorityLow},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	data, err := r.Run(ctx, findings, model.DateRange{})
	if err != nil {
		t.Fatalf("timeout must not fail the run: %v", err)
	}
	if !data.Items[0].FetchFailed {
		t.Error("timed-out fetch should mark the item failed")
	}
}
