package guard

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/growth_radar/pkg/logger"
	"github.com/iWorld-y/growth_radar/pkg/model"
)

// previewLen 日志中动作内容预览长度
const previewLen = 80

// Rule 单条排除规则
type Rule struct {
	ID    string
	Raw   string
	match func(*NormalizedAction) bool
}

// Matches 判断规则是否命中
func (r *Rule) Matches(a *NormalizedAction) bool {
	return r.match(a)
}

// CompileRules 把技能声明的排除模式编译为规则。
// 支持三种前缀约定：metric:X、schema:X、type:X，其余按子串匹配。
func CompileRules(patterns []string) []Rule {
	rules := make([]Rule, 0, len(patterns))
	for i, pattern := range patterns {
		rule := Rule{
			ID:  fmt.Sprintf("excl-%d", i+1),
			Raw: pattern,
		}

		switch {
		case strings.HasPrefix(pattern, "metric:"):
			name := strings.ToLower(strings.TrimPrefix(pattern, "metric:"))
			rule.match = func(a *NormalizedAction) bool {
				for _, m := range a.Metrics {
					if m == name {
						return true
					}
				}
				return false
			}

		case strings.HasPrefix(pattern, "schema:"):
			// 只拦添加类动作：提到该类型且类别是结构化数据添加
			typeName := strings.TrimPrefix(pattern, "schema:")
			rule.match = func(a *NormalizedAction) bool {
				if a.Category != "structured-data-add" {
					return false
				}
				for _, t := range a.SchemaTypes {
					if strings.EqualFold(t, typeName) {
						return true
					}
				}
				return false
			}

		case strings.HasPrefix(pattern, "type:"):
			phrase := strings.ToLower(strings.TrimPrefix(pattern, "type:"))
			rule.match = func(a *NormalizedAction) bool {
				return strings.Contains(strings.ReplaceAll(a.Category, "-", " "), phrase)
			}

		default:
			sub := strings.ToLower(pattern)
			rule.match = func(a *NormalizedAction) bool {
				return strings.Contains(a.Text, sub)
			}
		}

		rules = append(rules, rule)
	}
	return rules
}

// Validator 约束校验器。机制与业务类型无关，技能只提供排除模式。
// 编译后无可变状态，可在并发渠道分支间安全共享；
// 拦截数由调用方汇总各次过滤的返回值得到。
type Validator struct {
	rules []Rule
}

// NewValidator 按技能排除模式创建校验器
func NewValidator(patterns []string) *Validator {
	return &Validator{rules: CompileRules(patterns)}
}

// check 返回首个命中的规则；规则按声明顺序求值，命中一条即足够
func (v *Validator) check(a *NormalizedAction) *Rule {
	for i := range v.rules {
		if v.rules[i].Matches(a) {
			return &v.rules[i]
		}
	}
	return nil
}

// FilterActions 过滤单渠道动作列表，返回保留的动作与拦截数，每次拦截都记录日志
func (v *Validator) FilterActions(channel model.Channel, actions []model.AgentAction) ([]model.AgentAction, int) {
	kept := make([]model.AgentAction, 0, len(actions))
	dropped := 0
	for _, action := range actions {
		na := Normalize(channel, action.Action+" "+action.Rationale)
		if rule := v.check(&na); rule != nil {
			logDrop(rule, channel, action.Action)
			dropped++
			continue
		}
		kept = append(kept, action)
	}
	return kept, dropped
}

// FilterItems 过滤综合阶段推荐的动作条目，返回保留的条目与拦截数
func (v *Validator) FilterItems(category string, items []string) ([]string, int) {
	channel := model.ChannelSEO
	if category == "sem" {
		channel = model.ChannelSEM
	}

	kept := make([]string, 0, len(items))
	dropped := 0
	for _, item := range items {
		na := Normalize(channel, item)
		if rule := v.check(&na); rule != nil {
			logDrop(rule, channel, item)
			dropped++
			continue
		}
		kept = append(kept, item)
	}
	return kept, dropped
}

func logDrop(rule *Rule, channel model.Channel, content string) {
	preview := content
	if len(preview) > previewLen {
		preview = preview[:previewLen] + "..."
	}
	logger.Log.Warnf("约束校验拦截 [%s] 规则 %s (%s): %q", channel, rule.ID, rule.Raw, preview)
}
