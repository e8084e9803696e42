package model

import (
	"strings"
	"time"
)

// Priority 候选项优先级
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank 返回优先级排序权重，越大越靠前
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// DateRange 报告日期范围
type DateRange struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`
}

// ClientContext 业务客户上下文
type ClientContext struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Category string `json:"category"`
}

// PaidMetrics 付费搜索指标
type PaidMetrics struct {
	Spend       float64 `json:"spend"`
	ROAS        float64 `json:"roas"`
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
}

// OrganicMetrics 自然搜索指标
type OrganicMetrics struct {
	Position    float64 `json:"position"` // 平均排名，0 表示无排名
	URL         string  `json:"url"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
}

// BehaviorMetrics 行为指标
type BehaviorMetrics struct {
	BounceRate     float64 `json:"bounce_rate"`
	Sessions       int     `json:"sessions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// RawQueryRecord 单条原始查询数据
type RawQueryRecord struct {
	Query    string           `json:"query"`
	Paid     *PaidMetrics     `json:"paid,omitempty"`
	Organic  *OrganicMetrics  `json:"organic,omitempty"`
	Behavior *BehaviorMetrics `json:"behavior,omitempty"`
}

// HasMetrics 是否包含任一可用指标
func (r *RawQueryRecord) HasMetrics() bool {
	return r.Paid != nil || r.Organic != nil || r.Behavior != nil
}

// NormalizeQuery 查询词归一化：小写并压缩空白。
// 初筛去重与竞争数据查询使用同一套键。
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// ItemKind 候选项类型
type ItemKind string

const (
	ItemKeyword ItemKind = "keyword" // 核心争夺词
	ItemPage    ItemKind = "page"    // 关键页面
)

// CandidateItem 初筛产出的候选项，生成后不可变
type CandidateItem struct {
	Kind     ItemKind         `json:"kind"`
	Query    string           `json:"query"`
	URL      string           `json:"url,omitempty"`
	Paid     *PaidMetrics     `json:"paid,omitempty"`
	Organic  *OrganicMetrics  `json:"organic,omitempty"`
	Behavior *BehaviorMetrics `json:"behavior,omitempty"`
	Priority Priority         `json:"priority"`
	Reason   string           `json:"reason"`
}

// Spend 便捷读取付费花费，缺失时为 0
func (c *CandidateItem) Spend() float64 {
	if c.Paid == nil {
		return 0
	}
	return c.Paid.Spend
}

// Impressions 付费与自然展示量之和
func (c *CandidateItem) Impressions() int {
	n := 0
	if c.Paid != nil {
		n += c.Paid.Impressions
	}
	if c.Organic != nil {
		n += c.Organic.Impressions
	}
	return n
}

// Granularity 竞争数据粒度
type Granularity string

const (
	GranularityKeyword Granularity = "keyword"
	GranularityAccount Granularity = "account"
)

// CompetitiveMetrics 竞争指标
type CompetitiveMetrics struct {
	ImpressionShare float64 `json:"impression_share"`
	AvgCPC          float64 `json:"avg_cpc"`
	CompetitorCount int     `json:"competitor_count"`
	TopOfPageRate   float64 `json:"top_of_page_rate"`
}

// CompetitiveRecord 带粒度标记的竞争数据
type CompetitiveRecord struct {
	Metrics     CompetitiveMetrics `json:"metrics"`
	Granularity Granularity        `json:"granularity"`
}

// PageContent 页面内容解析结果
type PageContent struct {
	WordCount        int             `json:"word_count"`
	Title            string          `json:"title,omitempty"`
	H1               string          `json:"h1,omitempty"`
	MetaDescription  string          `json:"meta_description,omitempty"`
	Canonical        string          `json:"canonical,omitempty"`
	SchemaTypes      []string        `json:"schema_types,omitempty"`
	SchemaViolations []string        `json:"schema_violations,omitempty"`
	Signals          map[string]bool `json:"signals,omitempty"`
	PageType         string          `json:"page_type,omitempty"`
}

// EnrichedItem 经过补全的候选项，下游只读
type EnrichedItem struct {
	CandidateItem
	Competitive *CompetitiveRecord `json:"competitive,omitempty"`
	Content     *PageContent       `json:"content,omitempty"`
	FetchFailed bool               `json:"fetch_failed,omitempty"`
}

// ScoutFindings 初筛阶段快照
type ScoutFindings struct {
	Keywords          []CandidateItem    `json:"keywords"`
	Pages             []CandidateItem    `json:"pages"`
	AppliedThresholds map[string]float64 `json:"applied_thresholds"`
	TotalRecords      int                `json:"total_records"`
	KeywordCount      int                `json:"keyword_count"`
	PageCount         int                `json:"page_count"`
}

// DataQuality 补全阶段数据质量统计
type DataQuality struct {
	WithCompetitive int `json:"with_competitive"`
	WithContent     int `json:"with_content"`
	WithSchema      int `json:"with_schema"`
	FetchFailed     int `json:"fetch_failed"`
}

// ResearchData 补全阶段快照
type ResearchData struct {
	Items   []EnrichedItem `json:"items"`
	Quality DataQuality    `json:"quality"`
}

// Channel 推荐来源渠道
type Channel string

const (
	ChannelSEM Channel = "sem"
	ChannelSEO Channel = "seo"
)

// AgentAction 单条推荐动作
type AgentAction struct {
	Action      string `json:"action"`
	TargetLevel string `json:"target_level"` // keyword / page / campaign / account / site
	Impact      string `json:"impact"`       // high / medium / low
	Rationale   string `json:"rationale"`
}

// AgentOutput 分析 Agent 的结构化输出
type AgentOutput struct {
	Channel Channel       `json:"channel"`
	Actions []AgentAction `json:"actions"`
	Dropped int           `json:"dropped_items"` // 提示词截断丢弃的条目数
}

// UnifiedRecommendation 综合后的统一推荐
type UnifiedRecommendation struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"` // sem / seo / hybrid
	Impact      string   `json:"impact"`
	Effort      string   `json:"effort"`
	Description string   `json:"description"`
	ActionItems []string `json:"action_items"`
	Score       float64  `json:"score,omitempty"`
}

// DirectorOutput 综合阶段最终产出
type DirectorOutput struct {
	ExecutiveSummary string                  `json:"executive_summary"`
	Recommendations  []UnifiedRecommendation `json:"recommendations"`
}

// RunStatus 报告运行状态机
type RunStatus string

const (
	StatusPending     RunStatus = "pending"
	StatusResearching RunStatus = "researching"
	StatusAnalyzing   RunStatus = "analyzing"
	StatusCompleted   RunStatus = "completed"
	StatusFailed      RunStatus = "failed"
)

// Terminal 是否终态
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ReportRun 一次报告运行的聚合根，仅由编排器持有
type ReportRun struct {
	ID          int        `json:"id"`
	UUID        string     `json:"uuid"`
	Client      string     `json:"client"`
	Category    string     `json:"category"`
	DateRange   DateRange  `json:"date_range"`
	Status      RunStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
