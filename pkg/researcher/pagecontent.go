package researcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/iWorld-y/growth_radar/pkg/model"
	"github.com/iWorld-y/growth_radar/pkg/skill"
)

// userAgent 抓取时携带的标识，方便目标站点识别来源
const userAgent = "GrowthRadar/1.0 (+https://github.com/iWorld-y/growth_radar)"

// maxBodyBytes 单页面原始内容读取上限
const maxBodyBytes = 2 << 20

// PageFetcher 页面抓取接口
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher 默认 HTTP 抓取器，只取原始标记，不执行脚本
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher 创建默认抓取器
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{}}
}

// Ensure HTTPFetcher implements PageFetcher
var _ PageFetcher = (*HTTPFetcher)(nil)

// Fetch implements PageFetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	return body, nil
}

// parsePage 从原始标记提取结构化信息
func parsePage(body []byte, pageURL string, cfg *skill.EnrichmentConfig) (*model.PageContent, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html failed: %w", err)
	}

	content := &model.PageContent{}

	if cfg.Extract.Title {
		content.Title = firstText(root, "title")
	}
	if cfg.Extract.H1 {
		content.H1 = firstText(root, "h1")
	}
	if cfg.Extract.MetaDescription {
		content.MetaDescription = metaContent(root, "description")
	}
	if cfg.Extract.Canonical {
		content.Canonical = canonicalHref(root)
	}
	if cfg.Extract.WordCount {
		content.WordCount = wordCount(body, pageURL)
	}

	content.SchemaTypes = collectSchemaTypes(root)
	content.SchemaViolations = schemaViolations(content.SchemaTypes, cfg.SchemaRules)
	content.Signals = detectSignals(root, cfg.Signals)
	content.PageType = classifyURL(pageURL, cfg)

	return content, nil
}

// wordCount 用 readability 清洗正文后统计词数
func wordCount(body []byte, pageURL string) int {
	u, err := nurl.Parse(pageURL)
	if err != nil {
		return 0
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return 0
	}
	return len(strings.Fields(article.TextContent))
}

// firstText 返回首个指定标签的文本内容
func firstText(root *html.Node, tag string) string {
	node := findFirst(root, tag)
	if node == nil {
		return ""
	}
	var sb strings.Builder
	collectText(node, &sb)
	return strings.TrimSpace(sb.String())
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func metaContent(root *html.Node, name string) string {
	var result string
	walk(root, func(n *html.Node) {
		if result != "" || n.Type != html.ElementNode || n.Data != "meta" {
			return
		}
		if strings.EqualFold(attrValue(n, "name"), name) {
			result = attrValue(n, "content")
		}
	})
	return result
}

func canonicalHref(root *html.Node) string {
	var result string
	walk(root, func(n *html.Node) {
		if result != "" || n.Type != html.ElementNode || n.Data != "link" {
			return
		}
		if strings.EqualFold(attrValue(n, "rel"), "canonical") {
			result = attrValue(n, "href")
		}
	})
	return result
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// collectSchemaTypes 收集 JSON-LD 块中出现的全部 @type，含嵌套 @graph 与数组
func collectSchemaTypes(root *html.Node) []string {
	seen := make(map[string]bool)
	var types []string

	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "script" {
			return
		}
		if !strings.EqualFold(attrValue(n, "type"), "application/ld+json") {
			return
		}
		var sb strings.Builder
		collectText(n, &sb)

		var doc any
		if err := json.Unmarshal([]byte(sb.String()), &doc); err != nil {
			// 坏块跳过，不影响其余块
			return
		}
		walkJSONLD(doc, func(t string) {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		})
	})
	return types
}

func walkJSONLD(node any, emit func(string)) {
	switch v := node.(type) {
	case map[string]any:
		if t, ok := v["@type"]; ok {
			switch tv := t.(type) {
			case string:
				emit(tv)
			case []any:
				for _, item := range tv {
					if s, ok := item.(string); ok {
						emit(s)
					}
				}
			}
		}
		for _, child := range v {
			walkJSONLD(child, emit)
		}
	case []any:
		for _, item := range v {
			walkJSONLD(item, emit)
		}
	}
}

// schemaViolations 按技能规则检查结构化数据的存在性
func schemaViolations(types []string, rules []skill.SchemaRule) []string {
	present := make(map[string]bool, len(types))
	for _, t := range types {
		present[t] = true
	}

	var violations []string
	for _, rule := range rules {
		switch rule.Mode {
		case "flag_if_present":
			if present[rule.Type] {
				violations = append(violations, fmt.Sprintf("schema type %s present but disallowed", rule.Type))
			}
		case "flag_if_missing":
			if !present[rule.Type] {
				violations = append(violations, fmt.Sprintf("schema type %s expected but missing", rule.Type))
			}
		}
	}
	return violations
}

// detectSignals 按声明的元素匹配器检测内容信号
func detectSignals(root *html.Node, rules []skill.SignalRule) map[string]bool {
	if len(rules) == 0 {
		return nil
	}
	signals := make(map[string]bool, len(rules))
	for _, rule := range rules {
		signals[rule.Name] = false
	}

	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		for _, rule := range rules {
			if signals[rule.Name] || n.Data != rule.Tag {
				continue
			}
			if rule.Attr == "" {
				signals[rule.Name] = true
				continue
			}
			val := attrValue(n, rule.Attr)
			if rule.Contains == "" && val != "" {
				signals[rule.Name] = true
				continue
			}
			if rule.Contains != "" && strings.Contains(strings.ToLower(val), strings.ToLower(rule.Contains)) {
				signals[rule.Name] = true
			}
		}
	})
	return signals
}

// classifyURL 按 URL 模式分类页面类型，取置信度达标的最高者，否则用默认类型
func classifyURL(pageURL string, cfg *skill.EnrichmentConfig) string {
	bestType := cfg.DefaultPageType
	bestConfidence := 0.0

	for _, rule := range cfg.PageTypes {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			continue
		}
		if !re.MatchString(pageURL) {
			continue
		}
		if rule.Confidence >= cfg.PageTypeThreshold && rule.Confidence > bestConfidence {
			bestType = rule.Type
			bestConfidence = rule.Confidence
		}
	}
	return bestType
}
