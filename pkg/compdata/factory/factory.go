package factory

import (
	"fmt"

	"github.com/iWorld-y/growth_radar/pkg/compdata"
	"github.com/iWorld-y/growth_radar/pkg/config"
)

// NewProvider 根据配置创建竞争数据源实例
func NewProvider(cfg *config.Config) (compdata.Provider, error) {
	switch cfg.CompData.Provider {
	case "http":
		if cfg.CompData.HTTP.BaseURL == "" {
			return nil, fmt.Errorf("compdata http base url is missing")
		}
		if cfg.CompData.HTTP.APIKey == "" {
			return nil, fmt.Errorf("compdata http api key is missing")
		}
		return compdata.NewClient(cfg.CompData.HTTP.BaseURL, cfg.CompData.HTTP.APIKey, cfg.CompData.HTTP.Timeout), nil

	case "static":
		if cfg.CompData.Static.Path == "" {
			return nil, fmt.Errorf("compdata static path is missing")
		}
		return compdata.NewStaticProvider(cfg.CompData.Static.Path)

	case "":
		// 未配置数据源时允许跳过竞争数据补全
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown compdata provider: %s", cfg.CompData.Provider)
	}
}
