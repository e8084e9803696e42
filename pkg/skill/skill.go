package skill

// Bundle 按业务类型划分的技能配置包，进程启动时创建，运行期只读
type Bundle struct {
	Category string
	Version  string

	Triage     TriageConfig
	Enrichment EnrichmentConfig
	SEMAgent   AgentConfig
	SEOAgent   AgentConfig
	Director   DirectorConfig

	// Exclusions 约束校验器使用的排除规则，支持 metric: / schema: / type: 前缀
	Exclusions []string
	// ForbiddenMetrics 该业务类型不应出现的指标名，供输出分析器交叉比对
	ForbiddenMetrics []string
}

// Condition 声明式规则条件：字段、比较符、阈值
type Condition struct {
	Field string  // spend / roas / organic_position / bounce_rate / impressions / ctr
	Op    string  // > < >= <= == !=
	Value float64
}

// TriageRule 初筛规则，按声明顺序求值，首个命中生效
type TriageRule struct {
	ID         string
	Enabled    bool
	Conditions []Condition // 全部满足才算命中
	Priority   string      // high / medium / low
	Reason     string
}

// TriageThresholds 初筛阈值
type TriageThresholds struct {
	HighSpend        float64 // 高花费界线
	LowROAS          float64 // 低回报界线
	GoodPosition     float64 // 自然排名良好界线（越小越好）
	SlippingPosition float64 // 排名下滑界线
	HighBounce       float64 // 高跳出率界线
	MinImpressions   int     // 增长潜力所需最小展示量
	LowCTR           float64 // 低点击率界线
}

// TriageConfig 初筛阶段配置
type TriageConfig struct {
	Thresholds  TriageThresholds
	Rules       []TriageRule // 为空时走内置默认判定链
	MaxKeywords int
	MaxPages    int
}

// BoostRule 竞争数据触发的优先级修正规则
type BoostRule struct {
	Metric string  // impression_share / avg_cpc / competitor_count / top_of_page_rate
	Op     string  // > < >= <= == !=
	Value  float64
	Boost  int // 正数提升，负数压低
}

// ExtractToggles 页面提取开关
type ExtractToggles struct {
	Title           bool
	H1              bool
	MetaDescription bool
	Canonical       bool
	WordCount       bool
}

// SchemaRule 结构化数据规则
type SchemaRule struct {
	Type string // schema.org 类型名
	Mode string // "flag_if_present" / "flag_if_missing"
}

// SignalRule 内容信号检测：指定元素上属性包含某子串即命中
type SignalRule struct {
	Name     string
	Tag      string // 元素名，如 form / img / a
	Attr     string // 属性名，空则只看元素是否存在
	Contains string // 属性值需包含的子串
}

// PageTypeRule URL 模式到页面类型的映射
type PageTypeRule struct {
	Pattern    string // 正则，匹配 URL
	Type       string
	Confidence float64
}

// EnrichmentConfig 补全阶段配置
type EnrichmentConfig struct {
	FetchTimeoutSec   int
	FetchConcurrency  int
	BoostRules        []BoostRule
	Extract           ExtractToggles
	SchemaRules       []SchemaRule
	Signals           []SignalRule
	PageTypes         []PageTypeRule
	PageTypeThreshold float64
	DefaultPageType   string
}

// AgentConfig 单渠道分析 Agent 的提示词与过滤配置
type AgentConfig struct {
	RoleContext   string
	PrimaryKPIs   []string
	SecondaryKPIs []string
	Benchmarks    []string
	Patterns      []string
	Examples      []string
	Constraints   []string

	TokenBudget      int // 数据段预算
	HardTokenCeiling int // 全文硬上限，超出即失败
	MaxItemsFull     int
	MaxItemsCompact  int

	ExcludeTypes      []string // 动作类型黑名单
	PrioritizeTypes   []string
	DeprioritizeTypes []string
	MaxActions        int
}

// ImpactWeights 综合阶段加权系数
type ImpactWeights struct {
	Revenue float64
	Cost    float64
	Effort  float64
	Risk    float64
}

// DirectorConfig 综合阶段配置
type DirectorConfig struct {
	ConflictRules      []string // 冲突解决指引，仅作为提示词上下文
	SynergyRules       []string // 协同识别指引，仅作为提示词上下文
	Weights            ImpactWeights
	MustInclude        []string // 命中即保留
	MustExclude        []string // 命中即剔除
	MinImpact          string   // 低于该影响度的推荐被裁剪
	MaxRecommendations int

	TokenBudget      int
	HardTokenCeiling int
}
