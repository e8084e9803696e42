package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iWorld-y/growth_radar/pkg/model"
	"github.com/iWorld-y/growth_radar/pkg/skill"
)

// fakeGenerator 返回预置 JSON，并记录调用次数
type fakeGenerator struct {
	response string
	calls    int
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, system, user string, out any) error {
	f.calls++
	return json.Unmarshal([]byte(f.response), out)
}

func agentConfig() *skill.AgentConfig {
	return &skill.AgentConfig{
		RoleContext:      "You are a strategist.",
		PrimaryKPIs:      []string{"ROAS"},
		TokenBudget:      6000,
		HardTokenCeiling: 12000,
		MaxItemsFull:     25,
		MaxItemsCompact:  10,
		MaxActions:       8,
	}
}

func semItem(query string) model.EnrichedItem {
	return model.EnrichedItem{
		CandidateItem: model.CandidateItem{
			Kind:     model.ItemKeyword,
			Query:    query,
			Priority: model.PriorityHigh,
			Reason:   "high-spend-low-return",
			Paid:     &model.PaidMetrics{Spend: 100, ROAS: 1.0},
		},
	}
}

func TestEmptyInputSkipsReasoningCall(t *testing.T) {
	gen := &fakeGenerator{}
	a := New(model.ChannelSEM, gen)

	// 只有页面类条目，SEM 渠道视为空输入
	items := []model.EnrichedItem{
		{CandidateItem: model.CandidateItem{Kind: model.ItemPage, URL: "https://x.example/p"}},
	}

	out, err := a.Run(context.Background(), items, agentConfig(), model.ClientContext{}, model.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	if gen.calls != 0 {
		t.Errorf("reasoning called %d times, want 0", gen.calls)
	}
	if out.Channel != model.ChannelSEM || len(out.Actions) != 0 {
		t.Errorf("unexpected output: %+v", out)
	}
}

func TestInvalidShapeFailsRun(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"empty actions", `{"actions": []}`},
		{"missing action text", `{"actions": [{"action": "", "target_level": "keyword", "impact": "high"}]}`},
		{"missing target level", `{"actions": [{"action": "do x", "target_level": "", "impact": "high"}]}`},
		{"invalid impact", `{"actions": [{"action": "do x", "target_level": "keyword", "impact": "huge"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(model.ChannelSEM, &fakeGenerator{response: tt.response})
			_, err := a.Run(context.Background(), []model.EnrichedItem{semItem("q")}, agentConfig(), model.ClientContext{}, model.DateRange{})
			if err == nil {
				t.Fatal("expected shape validation error")
			}
		})
	}
}

func TestValidResponsePassesThrough(t *testing.T) {
	gen := &fakeGenerator{response: `{"actions": [
		{"action": "Add negative keywords for informational queries", "target_level": "campaign", "impact": "high", "rationale": "wasted spend"}
	]}`}
	a := New(model.ChannelSEM, gen)

	out, err := a.Run(context.Background(), []model.EnrichedItem{semItem("running shoes")}, agentConfig(), model.ClientContext{}, model.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(out.Actions))
	}
	if out.Actions[0].Impact != "high" {
		t.Errorf("impact = %s", out.Actions[0].Impact)
	}
}

func TestExcludeTypesFiltered(t *testing.T) {
	gen := &fakeGenerator{response: `{"actions": [
		{"action": "Fix crawl errors across the sitemap", "target_level": "site", "impact": "medium", "rationale": "index bloat"},
		{"action": "Lower bids on broad match terms", "target_level": "campaign", "impact": "high", "rationale": "low roas"}
	]}`}
	cfg := agentConfig()
	cfg.ExcludeTypes = []string{"technical-fix"}
	a := New(model.ChannelSEM, gen)

	out, err := a.Run(context.Background(), []model.EnrichedItem{semItem("q")}, cfg, model.ClientContext{}, model.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Actions) != 1 {
		t.Fatalf("actions = %d, want 1 after exclusion", len(out.Actions))
	}
	if out.Actions[0].Action != "Lower bids on broad match terms" {
		t.Errorf("kept wrong action: %q", out.Actions[0].Action)
	}
}

func TestPrioritizeOrderingAndTruncation(t *testing.T) {
	gen := &fakeGenerator{response: `{"actions": [
		{"action": "Restructure the campaign by intent", "target_level": "campaign", "impact": "medium", "rationale": "mixed intent"},
		{"action": "Shift budget to branded terms", "target_level": "account", "impact": "high", "rationale": "branded converts"},
		{"action": "Adjust bids on exact match winners", "target_level": "keyword", "impact": "high", "rationale": "headroom"}
	]}`}
	cfg := agentConfig()
	cfg.PrioritizeTypes = []string{"bid-adjustment", "budget-allocation"}
	cfg.DeprioritizeTypes = []string{"campaign-structure"}
	cfg.MaxActions = 2
	a := New(model.ChannelSEM, gen)

	out, err := a.Run(context.Background(), []model.EnrichedItem{semItem("q")}, cfg, model.ClientContext{}, model.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Actions) != 2 {
		t.Fatalf("actions = %d, want 2 after truncation", len(out.Actions))
	}
	// 靠前的两条应是加权优先的预算与出价动作，campaign-structure 被截掉
	for _, a := range out.Actions {
		if a.Action == "Restructure the campaign by intent" {
			t.Error("deprioritized action survived truncation")
		}
	}
}

func TestRelevantItemsByChannel(t *testing.T) {
	items := []model.EnrichedItem{
		semItem("paid keyword"),
		{CandidateItem: model.CandidateItem{Kind: model.ItemKeyword, Query: "organic only", Organic: &model.OrganicMetrics{Position: 5}}},
		{CandidateItem: model.CandidateItem{Kind: model.ItemPage, Query: "page item", URL: "https://x.example/p"}},
	}

	sem := New(model.ChannelSEM, nil).relevantItems(items)
	if len(sem) != 1 || sem[0].Query != "paid keyword" {
		t.Errorf("sem relevant = %+v", sem)
	}

	seo := New(model.ChannelSEO, nil).relevantItems(items)
	if len(seo) != 2 {
		t.Errorf("seo relevant = %d items, want 2", len(seo))
	}
}
