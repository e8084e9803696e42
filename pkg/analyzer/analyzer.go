// Package analyzer 对最终产出做一次正则扫描，检测绕过前置过滤的
// 业务类型禁用指标与结构化数据话术。只做观测，不改写任何内容。
package analyzer

import (
	"regexp"
	"strings"

	"github.com/iWorld-y/growth_radar/pkg/model"
)

// Report 扫描结果
type Report struct {
	MetricHits      map[string]int `json:"metric_hits"`     // 指标名 -> 出现次数
	SchemaPhrases   []string       `json:"schema_phrases"`  // 命中的 Product schema 话术
	InvalidMetrics  []string       `json:"invalid_metrics"` // 业务类型禁用指标命中
	TotalViolations int            `json:"total_violations"`
	ScannedCategory string         `json:"scanned_category"`
}

// HasViolations 是否存在任何命中
func (r *Report) HasViolations() bool {
	return r.TotalViolations > 0
}

// 指标出现次数统计用的固定正则
var metricRegexes = map[string]*regexp.Regexp{
	"roas":    regexp.MustCompile(`(?i)\broas\b|return on ad spend`),
	"revenue": regexp.MustCompile(`(?i)\brevenue\b`),
	"aov":     regexp.MustCompile(`(?i)\baov\b|average order value`),
	"cpl":     regexp.MustCompile(`(?i)\bcpl\b|cost per lead`),
	"cpa":     regexp.MustCompile(`(?i)\bcpa\b|cost per acquisition`),
	"ltv":     regexp.MustCompile(`(?i)\bltv\b|lifetime value`),
	"mrr":     regexp.MustCompile(`(?i)\bmrr\b|\barr\b|recurring revenue`),
	"churn":   regexp.MustCompile(`(?i)\bchurn\b`),
}

// productSchemaRe "添加 Product 结构化数据" 类话术
var productSchemaRe = regexp.MustCompile(`(?i)(add|implement|recommend|deploy|include)[^.]*\bproduct\b[^.]*(schema|structured data|markup|json-?ld)`)

// invalidMetricsByCategory 各业务类型不应出现的指标名，固定表
var invalidMetricsByCategory = map[string][]string{
	"ecommerce": {"cpl", "mrr", "churn"},
	"saas":      {"aov"},
	"leadgen":   {"roas", "aov"},
}

// Analyze 扫描完整的综合阶段产出。无命中时返回空报告，绝不报错。
func Analyze(out *model.DirectorOutput, category string) *Report {
	report := &Report{
		MetricHits:      make(map[string]int),
		ScannedCategory: category,
	}
	if out == nil {
		return report
	}

	text := assembleText(out)

	for name, re := range metricRegexes {
		if n := len(re.FindAllString(text, -1)); n > 0 {
			report.MetricHits[name] = n
		}
	}

	for _, phrase := range productSchemaRe.FindAllString(text, -1) {
		report.SchemaPhrases = append(report.SchemaPhrases, strings.TrimSpace(phrase))
	}

	for _, name := range invalidMetricsByCategory[category] {
		if report.MetricHits[name] > 0 {
			report.InvalidMetrics = append(report.InvalidMetrics, name)
		}
	}

	report.TotalViolations = len(report.SchemaPhrases) + len(report.InvalidMetrics)
	return report
}

// assembleText 拼接摘要与每条推荐的标题、描述和动作条目
func assembleText(out *model.DirectorOutput) string {
	var sb strings.Builder
	sb.WriteString(out.ExecutiveSummary)
	for _, rec := range out.Recommendations {
		sb.WriteString("\n")
		sb.WriteString(rec.Title)
		sb.WriteString("\n")
		sb.WriteString(rec.Description)
		for _, item := range rec.ActionItems {
			sb.WriteString("\n")
			sb.WriteString(item)
		}
	}
	return sb.String()
}
