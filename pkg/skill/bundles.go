package skill

// 内置技能包。每个业务类型一份，版本号随配置内容演进。
// 提示词素材为英文，与客户数据及输出契约保持同一语言。

func defaultExtract() ExtractToggles {
	return ExtractToggles{
		Title:           true,
		H1:              true,
		MetaDescription: true,
		Canonical:       true,
		WordCount:       true,
	}
}

func defaultBudgets(a *AgentConfig) {
	a.TokenBudget = 6000
	a.HardTokenCeiling = 12000
	a.MaxItemsFull = 25
	a.MaxItemsCompact = 10
	a.MaxActions = 8
}

// ecommerceBundle 电商类技能包
func ecommerceBundle() *Bundle {
	sem := AgentConfig{
		RoleContext: "You are a senior paid-search strategist for an e-commerce retailer. " +
			"The account sells physical products online and is judged on return on ad spend.",
		PrimaryKPIs:   []string{"ROAS", "revenue", "conversion rate"},
		SecondaryKPIs: []string{"CPC", "impression share", "CTR"},
		Benchmarks: []string{
			"Healthy e-commerce ROAS benchmark: 4.0 or above",
			"Branded-term CPC should stay under 25% of non-brand CPC",
		},
		Patterns: []string{
			"High spend with ROAS below 2.0 usually signals broad match bleed",
			"Paid clicks on queries ranking organically in the top 3 indicate cannibalization",
			"Rising CPC with flat impression share points at new auction entrants",
		},
		Examples: []string{
			`{"action": "Add negative keywords for informational modifiers on the 'running shoes' ad group", "target_level": "campaign", "impact": "high", "rationale": "Spend is concentrated on queries with ROAS 0.8"}`,
			`{"action": "Shift 20% of budget from generic to branded campaigns", "target_level": "account", "impact": "medium", "rationale": "Branded ROAS is 6x generic"}`,
		},
		Constraints: []string{
			"Never recommend removing conversion tracking",
			"Do not recommend lead-generation metrics such as cost per lead; this is a transactional store",
		},
		ExcludeTypes:      []string{"technical-fix"},
		PrioritizeTypes:   []string{"bid-adjustment", "budget-allocation"},
		DeprioritizeTypes: []string{"campaign-structure"},
	}
	defaultBudgets(&sem)

	seo := AgentConfig{
		RoleContext: "You are a senior SEO consultant for an e-commerce retailer. " +
			"Focus on product and category page performance in organic search.",
		PrimaryKPIs:   []string{"organic revenue", "organic CTR", "average position"},
		SecondaryKPIs: []string{"bounce rate", "indexed pages"},
		Benchmarks: []string{
			"Category pages should hold positions 1-5 for head terms",
			"Product pages below 300 words rarely rank for non-brand queries",
		},
		Patterns: []string{
			"Missing Product schema on product pages suppresses rich results",
			"High bounce rate with good position usually means intent mismatch",
			"Thin category pages losing positions to editorial competitors",
		},
		Examples: []string{
			`{"action": "Add Product schema with price and availability to the top 20 product pages", "target_level": "page", "impact": "high", "rationale": "No product rich results are showing for any tracked query"}`,
		},
		Constraints: []string{
			"Only recommend changes to existing pages; site migrations are out of scope",
		},
		ExcludeTypes:      nil,
		PrioritizeTypes:   []string{"structured-data-add", "content-change"},
		DeprioritizeTypes: []string{"technical-fix"},
	}
	defaultBudgets(&seo)

	return &Bundle{
		Category: "ecommerce",
		Version:  "1.3.0",
		Triage: TriageConfig{
			Thresholds: TriageThresholds{
				HighSpend:        100,
				LowROAS:          2.0,
				GoodPosition:     3.0,
				SlippingPosition: 8.0,
				HighBounce:       0.65,
				MinImpressions:   1000,
				LowCTR:           0.01,
			},
			Rules: []TriageRule{
				{
					ID:      "wasted-spend",
					Enabled: true,
					Conditions: []Condition{
						{Field: "spend", Op: ">=", Value: 100},
						{Field: "roas", Op: "<", Value: 2.0},
					},
					Priority: "high",
					Reason:   "high-spend-low-return",
				},
				{
					ID:      "cannibalization",
					Enabled: true,
					Conditions: []Condition{
						{Field: "spend", Op: ">", Value: 0},
						{Field: "organic_position", Op: "<=", Value: 3.0},
					},
					Priority: "high",
					Reason:   "organic-cannibalization-risk",
				},
				{
					ID:      "growth",
					Enabled: true,
					Conditions: []Condition{
						{Field: "impressions", Op: ">=", Value: 1000},
						{Field: "ctr", Op: "<", Value: 0.01},
					},
					Priority: "medium",
					Reason:   "growth-potential",
				},
				{
					ID:      "slipping",
					Enabled: true,
					Conditions: []Condition{
						{Field: "organic_position", Op: ">=", Value: 8.0},
						{Field: "bounce_rate", Op: ">=", Value: 0.65},
					},
					Priority: "medium",
					Reason:   "competitive-pressure",
				},
			},
			MaxKeywords: 30,
			MaxPages:    20,
		},
		Enrichment: EnrichmentConfig{
			FetchTimeoutSec:  10,
			FetchConcurrency: 5,
			BoostRules: []BoostRule{
				{Metric: "impression_share", Op: "<", Value: 0.3, Boost: 1},
				{Metric: "avg_cpc", Op: ">", Value: 3.0, Boost: 1},
				{Metric: "competitor_count", Op: "<=", Value: 1, Boost: -1},
			},
			Extract: defaultExtract(),
			SchemaRules: []SchemaRule{
				{Type: "Product", Mode: "flag_if_missing"},
				{Type: "Review", Mode: "flag_if_missing"},
			},
			Signals: []SignalRule{
				{Name: "has_reviews_widget", Tag: "div", Attr: "class", Contains: "review"},
				{Name: "has_add_to_cart", Tag: "button", Attr: "class", Contains: "cart"},
				{Name: "has_video", Tag: "iframe", Attr: "src", Contains: "youtube"},
			},
			PageTypes: []PageTypeRule{
				{Pattern: `/product[s]?/|/p/`, Type: "product", Confidence: 0.9},
				{Pattern: `/category/|/collections?/|/c/`, Type: "category", Confidence: 0.85},
				{Pattern: `/blog/|/guide[s]?/`, Type: "editorial", Confidence: 0.8},
				{Pattern: `^https?://[^/]+/?$`, Type: "home", Confidence: 0.95},
			},
			PageTypeThreshold: 0.7,
			DefaultPageType:   "other",
		},
		SEMAgent: sem,
		SEOAgent: seo,
		Director: DirectorConfig{
			ConflictRules: []string{
				"If SEM recommends bidding on a query that SEO already ranks top 3 for, prefer the SEO recommendation and reduce the bid instead",
				"If both channels target the same page, merge into a single hybrid recommendation",
			},
			SynergyRules: []string{
				"Paid-search query data can seed organic content topics",
				"Pages with strong organic CTR are good landing-page candidates for paid traffic",
			},
			Weights:            ImpactWeights{Revenue: 1.5, Cost: 1.0, Effort: 0.8, Risk: 0.5},
			MustExclude:        []string{"site migration"},
			MinImpact:          "low",
			MaxRecommendations: 10,
			TokenBudget:        6000,
			HardTokenCeiling:   12000,
		},
		Exclusions: []string{
			"metric:cpl",
			"type:technical fix",
		},
		ForbiddenMetrics: []string{"cpl", "cost per lead", "mrr", "churn"},
	}
}

// saasBundle SaaS 类技能包。初筛规则留空，走内置默认判定链。
func saasBundle() *Bundle {
	sem := AgentConfig{
		RoleContext: "You are a senior paid-search strategist for a B2B SaaS company. " +
			"The funnel is trial signup to paid conversion; judge spend on cost per acquisition and LTV.",
		PrimaryKPIs:   []string{"CPA", "trial signups", "LTV"},
		SecondaryKPIs: []string{"CTR", "impression share"},
		Benchmarks: []string{
			"SaaS non-brand CPA benchmark: under one third of first-year contract value",
		},
		Patterns: []string{
			"Competitor-brand campaigns with low quality scores drain budget",
			"High-intent 'pricing' and 'alternative' queries convert far above average",
		},
		Examples: []string{
			`{"action": "Break 'competitor alternative' queries into a dedicated campaign with tailored landing pages", "target_level": "campaign", "impact": "high", "rationale": "These queries convert at 3x account average but share budget with generic terms"}`,
		},
		Constraints: []string{
			"Do not reference e-commerce metrics such as average order value; there is no cart",
		},
		PrioritizeTypes:   []string{"campaign-structure", "keyword-targeting"},
		DeprioritizeTypes: []string{"bid-adjustment"},
	}
	defaultBudgets(&sem)

	seo := AgentConfig{
		RoleContext: "You are a senior SEO consultant for a B2B SaaS company. " +
			"Focus on feature, comparison and documentation pages.",
		PrimaryKPIs:   []string{"signups from organic", "average position", "organic CTR"},
		SecondaryKPIs: []string{"bounce rate"},
		Benchmarks: []string{
			"Comparison pages should target positions 1-3 for 'X vs Y' queries",
		},
		Patterns: []string{
			"Missing SoftwareApplication schema hides pricing rich results",
			"Documentation ranking for commercial queries signals a content-gap on marketing pages",
		},
		Examples: []string{
			`{"action": "Publish comparison pages for the top 5 competitor-vs queries", "target_level": "site", "impact": "high", "rationale": "Competitors own every comparison SERP"}`,
		},
		Constraints:       []string{"Do not recommend Product schema; use SoftwareApplication"},
		PrioritizeTypes:   []string{"content-change"},
		DeprioritizeTypes: nil,
	}
	defaultBudgets(&seo)

	return &Bundle{
		Category: "saas",
		Version:  "1.1.0",
		Triage: TriageConfig{
			Thresholds: TriageThresholds{
				HighSpend:        200,
				LowROAS:          1.5,
				GoodPosition:     3.0,
				SlippingPosition: 10.0,
				HighBounce:       0.7,
				MinImpressions:   500,
				LowCTR:           0.015,
			},
			MaxKeywords: 25,
			MaxPages:    15,
		},
		Enrichment: EnrichmentConfig{
			FetchTimeoutSec:  10,
			FetchConcurrency: 4,
			BoostRules: []BoostRule{
				{Metric: "competitor_count", Op: ">=", Value: 4, Boost: 1},
				{Metric: "top_of_page_rate", Op: "<", Value: 0.2, Boost: 1},
			},
			Extract: defaultExtract(),
			SchemaRules: []SchemaRule{
				{Type: "SoftwareApplication", Mode: "flag_if_missing"},
				{Type: "Product", Mode: "flag_if_present"},
			},
			Signals: []SignalRule{
				{Name: "has_signup_form", Tag: "form", Attr: "action", Contains: "signup"},
				{Name: "has_pricing_table", Tag: "table", Attr: "class", Contains: "pricing"},
				{Name: "has_demo_cta", Tag: "a", Attr: "href", Contains: "demo"},
			},
			PageTypes: []PageTypeRule{
				{Pattern: `/pricing`, Type: "pricing", Confidence: 0.95},
				{Pattern: `/features?/|/product/`, Type: "feature", Confidence: 0.85},
				{Pattern: `/vs[-/]|/compare`, Type: "comparison", Confidence: 0.9},
				{Pattern: `/docs?/|/help/`, Type: "documentation", Confidence: 0.85},
				{Pattern: `/blog/`, Type: "editorial", Confidence: 0.8},
			},
			PageTypeThreshold: 0.7,
			DefaultPageType:   "marketing",
		},
		SEMAgent: sem,
		SEOAgent: seo,
		Director: DirectorConfig{
			ConflictRules: []string{
				"When SEM and SEO both target competitor-brand queries, keep the SEM bid but let SEO own the comparison content",
			},
			SynergyRules: []string{
				"Paid landing pages with strong conversion rates are candidates for organic comparison content",
			},
			Weights:            ImpactWeights{Revenue: 1.2, Cost: 1.2, Effort: 1.0, Risk: 0.8},
			MustExclude:        []string{"shopping feed"},
			MinImpact:          "medium",
			MaxRecommendations: 8,
			TokenBudget:        6000,
			HardTokenCeiling:   12000,
		},
		Exclusions: []string{
			"metric:aov",
			"schema:Product",
		},
		ForbiddenMetrics: []string{"aov", "average order value"},
	}
}

// leadgenBundle 线索获取类技能包
func leadgenBundle() *Bundle {
	sem := AgentConfig{
		RoleContext: "You are a senior paid-search strategist for a lead-generation service business. " +
			"There is no online revenue; judge spend purely on cost per lead and lead quality.",
		PrimaryKPIs:   []string{"cost per lead", "lead volume", "conversion rate"},
		SecondaryKPIs: []string{"CTR", "CPC"},
		Benchmarks: []string{
			"Local-service CPL benchmark: under $60 for emergency intent, under $120 otherwise",
		},
		Patterns: []string{
			"Emergency-intent queries with slow landing pages waste the highest-value clicks",
			"Broad match on service terms pulls in DIY and job-seeker intent",
		},
		Examples: []string{
			`{"action": "Split emergency-intent queries into their own campaign with call-only ads", "target_level": "campaign", "impact": "high", "rationale": "After-hours emergency queries convert at 2x but share bids with research queries"}`,
		},
		Constraints: []string{
			"Never reference return on ad spend or revenue; conversions are offline leads",
		},
		PrioritizeTypes:   []string{"keyword-targeting"},
		DeprioritizeTypes: []string{"budget-allocation"},
	}
	defaultBudgets(&sem)

	seo := AgentConfig{
		RoleContext: "You are a senior local-SEO consultant for a service business generating leads. " +
			"Focus on service pages and local landing pages.",
		PrimaryKPIs:   []string{"calls from organic", "form fills", "average position"},
		SecondaryKPIs: []string{"bounce rate"},
		Benchmarks: []string{
			"Service pages should hold top 5 positions inside the service area",
		},
		Patterns: []string{
			"Missing LocalBusiness schema suppresses map-pack visibility",
			"Service pages without a phone number above the fold lose call conversions",
		},
		Examples: []string{
			`{"action": "Add LocalBusiness schema with service area to every city landing page", "target_level": "page", "impact": "high", "rationale": "No tracked page is eligible for local rich results"}`,
		},
		Constraints:       []string{"Do not recommend Product schema; this business sells services"},
		PrioritizeTypes:   []string{"content-change", "structured-data-add"},
		DeprioritizeTypes: nil,
	}
	defaultBudgets(&seo)

	return &Bundle{
		Category: "leadgen",
		Version:  "1.2.1",
		Triage: TriageConfig{
			Thresholds: TriageThresholds{
				HighSpend:        80,
				LowROAS:          1.0, // 线索业务无 ROAS，仅在数据误带时触发
				GoodPosition:     3.0,
				SlippingPosition: 7.0,
				HighBounce:       0.6,
				MinImpressions:   300,
				LowCTR:           0.02,
			},
			MaxKeywords: 20,
			MaxPages:    15,
		},
		Enrichment: EnrichmentConfig{
			FetchTimeoutSec:  8,
			FetchConcurrency: 3,
			BoostRules: []BoostRule{
				{Metric: "avg_cpc", Op: ">", Value: 5.0, Boost: 1},
				{Metric: "impression_share", Op: ">=", Value: 0.8, Boost: -1},
			},
			Extract: defaultExtract(),
			SchemaRules: []SchemaRule{
				{Type: "LocalBusiness", Mode: "flag_if_missing"},
				{Type: "Product", Mode: "flag_if_present"},
			},
			Signals: []SignalRule{
				{Name: "has_contact_form", Tag: "form", Attr: "", Contains: ""},
				{Name: "has_phone_link", Tag: "a", Attr: "href", Contains: "tel:"},
				{Name: "has_map_embed", Tag: "iframe", Attr: "src", Contains: "maps"},
			},
			PageTypes: []PageTypeRule{
				{Pattern: `/services?/`, Type: "service", Confidence: 0.9},
				{Pattern: `/locations?/|/areas?/`, Type: "local-landing", Confidence: 0.85},
				{Pattern: `/contact`, Type: "contact", Confidence: 0.95},
				{Pattern: `/blog/|/tips/`, Type: "editorial", Confidence: 0.8},
			},
			PageTypeThreshold: 0.7,
			DefaultPageType:   "other",
		},
		SEMAgent: sem,
		SEOAgent: seo,
		Director: DirectorConfig{
			ConflictRules: []string{
				"If SEM and SEO both target a service query in the same city, consolidate into one recommendation owning the whole SERP",
			},
			SynergyRules: []string{
				"Call data from paid campaigns identifies which services deserve dedicated organic pages",
			},
			Weights:            ImpactWeights{Revenue: 1.0, Cost: 1.3, Effort: 1.0, Risk: 0.7},
			MustExclude:        []string{"shopping campaign"},
			MinImpact:          "low",
			MaxRecommendations: 8,
			TokenBudget:        5000,
			HardTokenCeiling:   10000,
		},
		Exclusions: []string{
			"metric:roas",
			"metric:aov",
			"schema:Product",
		},
		ForbiddenMetrics: []string{"roas", "return on ad spend", "aov", "average order value"},
	}
}
