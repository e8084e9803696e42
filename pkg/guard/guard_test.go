package guard

import (
	"reflect"
	"sync"
	"testing"

	"github.com/iWorld-y/growth_radar/pkg/model"
)

func TestInferCategory(t *testing.T) {
	tests := []struct {
		name    string
		channel model.Channel
		text    string
		want    string
	}{
		{
			name:    "schema removal beats addition",
			channel: model.ChannelSEO,
			text:    "remove the product schema from category pages",
			want:    "structured-data-remove",
		},
		{
			name:    "schema addition",
			channel: model.ChannelSEO,
			text:    "add product schema with price and availability",
			want:    "structured-data-add",
		},
		{
			name:    "bid adjustment",
			channel: model.ChannelSEM,
			text:    "lower bids on broad match terms",
			want:    "bid-adjustment",
		},
		{
			name:    "budget allocation",
			channel: model.ChannelSEM,
			text:    "shift budget from generic to branded campaigns",
			want:    "budget-allocation",
		},
		{
			name:    "technical fix",
			channel: model.ChannelSEO,
			text:    "fix the redirect chain on old urls",
			want:    "technical-fix",
		},
		{
			name:    "sem default",
			channel: model.ChannelSEM,
			text:    "do something unusual",
			want:    "keyword-targeting",
		},
		{
			name:    "seo default",
			channel: model.ChannelSEO,
			text:    "do something unusual",
			want:    "content-change",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferCategory(tt.channel, tt.text); got != tt.want {
				t.Errorf("InferCategory = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalizeExtraction(t *testing.T) {
	na := Normalize(model.ChannelSEM, `Pause the 'running shoes' ad group; ROAS is 0.8 and CPC keeps rising`)
	if !reflect.DeepEqual(na.QuotedTerms, []string{"running shoes"}) {
		t.Errorf("quoted terms = %v", na.QuotedTerms)
	}
	wantMetrics := []string{"roas", "cpc"}
	if !reflect.DeepEqual(na.Metrics, wantMetrics) {
		t.Errorf("metrics = %v, want %v", na.Metrics, wantMetrics)
	}

	na = Normalize(model.ChannelSEO, "Implement Product and Review schema on product pages")
	if len(na.SchemaTypes) != 2 {
		t.Errorf("schema types = %v, want Product and Review", na.SchemaTypes)
	}
}

func TestMetricRuleMatchesOnlyNamedMetric(t *testing.T) {
	v := NewValidator([]string{"metric:roas"})

	actions := []model.AgentAction{
		{Action: "Improve ROAS by pruning broad match", Rationale: "spend is wasted"},
		{Action: "Reduce cost per lead on the contact campaign", Rationale: "cpl doubled"},
		{Action: "Raise bids on exact match winners", Rationale: "strong conversion rate"},
	}

	kept, dropped := v.FilterActions(model.ChannelSEM, actions)
	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}
	for _, a := range kept {
		if a.Action == "Improve ROAS by pruning broad match" {
			t.Error("roas action should have been removed")
		}
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestSchemaRuleOnlyBlocksAdditions(t *testing.T) {
	v := NewValidator([]string{"schema:Product"})

	actions := []model.AgentAction{
		{Action: "Add Product schema to the top 20 product pages", Rationale: "missing rich results"},
		{Action: "Remove the stale Product schema from blog posts", Rationale: "wrong page type"},
	}

	kept, _ := v.FilterActions(model.ChannelSEO, actions)
	if len(kept) != 1 {
		t.Fatalf("kept = %d, want 1", len(kept))
	}
	if kept[0].Action != "Remove the stale Product schema from blog posts" {
		t.Errorf("removal action should survive, kept %q", kept[0].Action)
	}
}

func TestTypeRuleMatchesCategory(t *testing.T) {
	v := NewValidator([]string{"type:technical fix"})

	actions := []model.AgentAction{
		{Action: "Fix crawl errors and clean the sitemap", Rationale: "index bloat"},
		{Action: "Rewrite the meta description on the homepage", Rationale: "low ctr"},
	}

	kept, _ := v.FilterActions(model.ChannelSEO, actions)
	if len(kept) != 1 {
		t.Fatalf("kept = %d, want 1", len(kept))
	}
	if kept[0].Action != "Rewrite the meta description on the homepage" {
		t.Errorf("kept wrong action: %q", kept[0].Action)
	}
}

func TestPlainSubstringRule(t *testing.T) {
	v := NewValidator([]string{"site migration"})

	kept, _ := v.FilterActions(model.ChannelSEO, []model.AgentAction{
		{Action: "Plan a full site migration to a new platform", Rationale: "legacy cms"},
		{Action: "Refresh thin category content", Rationale: "word count under 100"},
	})
	if len(kept) != 1 || kept[0].Action != "Refresh thin category content" {
		t.Errorf("substring rule failed, kept %+v", kept)
	}
}

func TestFilterItems(t *testing.T) {
	v := NewValidator([]string{"metric:aov", "schema:Product"})

	items := []string{
		"Raise average order value with bundle offers",
		"Add Product schema to every product detail page",
		"Publish comparison pages for competitor queries",
	}

	kept, dropped := v.FilterItems("seo", items)
	if len(kept) != 1 {
		t.Fatalf("kept = %d, want 1", len(kept))
	}
	if kept[0] != "Publish comparison pages for competitor queries" {
		t.Errorf("kept wrong item: %q", kept[0])
	}
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
}

func TestValidatorWithoutRules(t *testing.T) {
	v := NewValidator(nil)
	actions := []model.AgentAction{{Action: "anything goes", Rationale: "no rules"}}
	kept, dropped := v.FilterActions(model.ChannelSEM, actions)
	if len(kept) != 1 {
		t.Errorf("empty rule set must keep everything, kept %d", len(kept))
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
}

func TestSchemaTypeNeedsWholeWord(t *testing.T) {
	// "production" 与 "reviewed" 不应提取出 Product / Review
	na := Normalize(model.ChannelSEO, "Move the staging markup into production after it is reviewed")
	if len(na.SchemaTypes) != 0 {
		t.Errorf("schema types = %v, want none", na.SchemaTypes)
	}

	v := NewValidator([]string{"schema:Product"})
	kept, dropped := v.FilterActions(model.ChannelSEO, []model.AgentAction{
		{Action: "Add FAQPage schema before the production launch", Rationale: "rich results"},
	})
	if len(kept) != 1 || dropped != 0 {
		t.Errorf("whole-word rule over-filtered: kept %d, dropped %d", len(kept), dropped)
	}
}

func TestSharedValidatorAcrossChannels(t *testing.T) {
	v := NewValidator([]string{"metric:cpl"})
	semActions := []model.AgentAction{
		{Action: "Cut cost per lead on the contact campaign", Rationale: "cpl doubled"},
		{Action: "Raise bids on exact match winners", Rationale: "strong conversions"},
	}
	seoActions := []model.AgentAction{
		{Action: "Lower CPL with a dedicated landing page", Rationale: "cpl too high"},
		{Action: "Refresh thin category content", Rationale: "word count under 100"},
	}

	// 两个渠道并发共用同一校验器，各自拿到自己的拦截数
	for i := 0; i < 20; i++ {
		var semDrops, seoDrops int
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, semDrops = v.FilterActions(model.ChannelSEM, semActions)
		}()
		go func() {
			defer wg.Done()
			_, seoDrops = v.FilterActions(model.ChannelSEO, seoActions)
		}()
		wg.Wait()

		if semDrops+seoDrops != 2 {
			t.Fatalf("total drops = %d, want 2", semDrops+seoDrops)
		}
	}
}
