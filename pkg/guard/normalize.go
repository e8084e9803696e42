// Package guard 实现约束校验器：把推荐动作归一化为规范记录，
// 再按技能声明的排除规则过滤。属于纵深防御，上游推理阶段漂移时兜底。
package guard

import (
	"regexp"
	"strings"

	"github.com/iWorld-y/growth_radar/pkg/model"
)

// NormalizedAction 动作的规范化只读视图，仅在约束校验内部使用
type NormalizedAction struct {
	Channel     model.Channel
	Category    string
	Text        string // 已小写
	QuotedTerms []string
	Metrics     []string
	SchemaTypes []string
}

// 动作类别推断的正则族，按声明顺序求值，首个命中生效。
// 删除类要排在添加类前面，否则 "remove Product schema" 会被误判为添加。
var categoryPatterns = []struct {
	category string
	re       *regexp.Regexp
}{
	{"structured-data-remove", regexp.MustCompile(`(remove|delete|strip|drop)[^.]*\b(schema|structured data|json-?ld|markup)`)},
	{"structured-data-add", regexp.MustCompile(`(add|implement|deploy|mark\s?up|include|recommend)[^.]*\b(schema|structured data|json-?ld|rich (snippet|result)s?)`)},
	{"bid-adjustment", regexp.MustCompile(`\b(bid|bids|bidding|cpc target|tcpa|troas)\b`)},
	{"budget-allocation", regexp.MustCompile(`\bbudget`)},
	{"campaign-structure", regexp.MustCompile(`\b(campaign|ad group|restructure|consolidat)`)},
	{"keyword-targeting", regexp.MustCompile(`\b(keyword|negative|match type|search term|query)\b`)},
	{"content-change", regexp.MustCompile(`\b(content|rewrite|copy|title tag|meta description|heading)\b`)},
	{"technical-fix", regexp.MustCompile(`\b(redirect|404|page speed|core web vitals|crawl|index|canonical|sitemap)\b`)},
}

// 渠道默认类别，所有正则族都未命中时使用
var channelDefaultCategory = map[model.Channel]string{
	model.ChannelSEM: "keyword-targeting",
	model.ChannelSEO: "content-change",
}

// 业务指标提取词典，名称固定
var metricPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"roas", regexp.MustCompile(`\broas\b|return on ad spend`)},
	{"revenue", regexp.MustCompile(`\brevenue\b`)},
	{"aov", regexp.MustCompile(`\baov\b|average order value`)},
	{"cpl", regexp.MustCompile(`\bcpl\b|cost per lead`)},
	{"cpc", regexp.MustCompile(`\bcpc\b|cost per click`)},
	{"ctr", regexp.MustCompile(`\bctr\b|click-?through rate`)},
	{"cpa", regexp.MustCompile(`\bcpa\b|cost per acquisition`)},
	{"ltv", regexp.MustCompile(`\bltv\b|lifetime value`)},
	{"mrr", regexp.MustCompile(`\bmrr\b|\barr\b|recurring revenue`)},
	{"churn", regexp.MustCompile(`\bchurn\b`)},
}

// schema.org 类型固定词表，整词匹配，避免 "production" 误提取 Product
var schemaVocabulary = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Product", regexp.MustCompile(`\bproduct\b`)},
	{"Review", regexp.MustCompile(`\breview\b`)},
	{"AggregateRating", regexp.MustCompile(`\baggregaterating\b`)},
	{"Offer", regexp.MustCompile(`\boffer\b`)},
	{"FAQPage", regexp.MustCompile(`\bfaqpage\b`)},
	{"HowTo", regexp.MustCompile(`\bhowto\b`)},
	{"LocalBusiness", regexp.MustCompile(`\blocalbusiness\b`)},
	{"Organization", regexp.MustCompile(`\borganization\b`)},
	{"Article", regexp.MustCompile(`\barticle\b`)},
	{"BreadcrumbList", regexp.MustCompile(`\bbreadcrumblist\b`)},
	{"Event", regexp.MustCompile(`\bevent\b`)},
	{"Recipe", regexp.MustCompile(`\brecipe\b`)},
	{"VideoObject", regexp.MustCompile(`\bvideoobject\b`)},
	{"SoftwareApplication", regexp.MustCompile(`\bsoftwareapplication\b`)},
	{"Service", regexp.MustCompile(`\bservice\b`)},
}

var quotedTermRe = regexp.MustCompile(`'([^']+)'|"([^"]+)"|\[([^\]]+)\]`)

// Normalize 把一条动作文本归一化为规范记录。确定性纯函数。
func Normalize(channel model.Channel, text string) NormalizedAction {
	lower := strings.ToLower(text)

	return NormalizedAction{
		Channel:     channel,
		Category:    InferCategory(channel, lower),
		Text:        lower,
		QuotedTerms: extractQuotedTerms(lower),
		Metrics:     extractMetrics(lower),
		SchemaTypes: extractSchemaTypes(lower),
	}
}

// InferCategory 从文本推断动作类别，未命中时按渠道给默认值
func InferCategory(channel model.Channel, lower string) string {
	for _, p := range categoryPatterns {
		if p.re.MatchString(lower) {
			return p.category
		}
	}
	if c, ok := channelDefaultCategory[channel]; ok {
		return c
	}
	return "unknown"
}

func extractQuotedTerms(lower string) []string {
	var terms []string
	for _, m := range quotedTermRe.FindAllStringSubmatch(lower, -1) {
		for _, g := range m[1:] {
			if g != "" {
				terms = append(terms, g)
			}
		}
	}
	return terms
}

func extractMetrics(lower string) []string {
	var metrics []string
	for _, p := range metricPatterns {
		if p.re.MatchString(lower) {
			metrics = append(metrics, p.name)
		}
	}
	return metrics
}

func extractSchemaTypes(lower string) []string {
	var types []string
	for _, t := range schemaVocabulary {
		if t.re.MatchString(lower) {
			types = append(types, t.name)
		}
	}
	return types
}
