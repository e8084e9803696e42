package skill

import (
	"errors"
	"fmt"

	"github.com/iWorld-y/growth_radar/pkg/logger"
)

// ErrUnknownCategory 业务类型既无技能包也无回退映射
var ErrUnknownCategory = errors.New("unknown business category")

// Resolution 技能包解析结果
type Resolution struct {
	Bundle        *Bundle
	UsingFallback bool
	FallbackFrom  string
	Warning       string
}

// Registry 技能注册表，按业务类型持有只读配置包
type Registry struct {
	bundles  map[string]*Bundle
	fallback map[string]string
}

// NewRegistry 构建包含内置技能包的注册表
func NewRegistry() *Registry {
	r := &Registry{
		bundles:  make(map[string]*Bundle),
		fallback: defaultFallbackMap(),
	}
	for _, b := range []*Bundle{ecommerceBundle(), saasBundle(), leadgenBundle()} {
		r.bundles[b.Category] = b
	}
	return r
}

// defaultFallbackMap 不支持类型到受支持类型的静态回退映射
func defaultFallbackMap() map[string]string {
	return map[string]string{
		"retail":         "ecommerce",
		"marketplace":    "ecommerce",
		"d2c":            "ecommerce",
		"subscription":   "saas",
		"app":            "saas",
		"b2b_services":   "leadgen",
		"local_services": "leadgen",
	}
}

// Register 注册或覆盖一个技能包（测试用）
func (r *Registry) Register(b *Bundle) {
	r.bundles[b.Category] = b
}

// Resolve 按业务类型解析技能包，未注册时走回退映射
func (r *Registry) Resolve(category string) (*Resolution, error) {
	if b, ok := r.bundles[category]; ok {
		return &Resolution{Bundle: b}, nil
	}

	target, ok := r.fallback[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	b, ok := r.bundles[target]
	if !ok {
		// 回退映射指向了不存在的技能包，属于部署缺陷
		return nil, fmt.Errorf("%w: fallback %q -> %q not registered", ErrUnknownCategory, category, target)
	}

	warning := fmt.Sprintf("业务类型 [%s] 未注册技能包，已回退到 [%s]", category, target)
	logger.Log.Warn(warning)

	return &Resolution{
		Bundle:        b,
		UsingFallback: true,
		FallbackFrom:  category,
		Warning:       warning,
	}, nil
}
