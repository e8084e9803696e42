package compdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/iWorld-y/growth_radar/pkg/model"
)

// StaticProvider 本地文件数据源，开发与测试环境使用
type StaticProvider struct {
	keywords map[string]model.CompetitiveMetrics
	account  *model.CompetitiveMetrics
}

// Ensure StaticProvider implements Provider
var _ Provider = (*StaticProvider)(nil)

// staticFile 本地数据文件格式
type staticFile struct {
	Keywords map[string]model.CompetitiveMetrics `json:"keywords"`
	Account  *model.CompetitiveMetrics           `json:"account"`
}

// NewStaticProvider 从 JSON 文件加载静态竞争数据
func NewStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compdata file failed: %w", err)
	}

	var f staticFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse compdata file failed: %w", err)
	}

	// 查询词做归一化，与初筛阶段保持一致
	keywords := make(map[string]model.CompetitiveMetrics, len(f.Keywords))
	for q, m := range f.Keywords {
		keywords[model.NormalizeQuery(q)] = m
	}

	return &StaticProvider{keywords: keywords, account: f.Account}, nil
}

// KeywordMetrics implements Provider
func (p *StaticProvider) KeywordMetrics(_ context.Context, query string, _ model.DateRange) (*model.CompetitiveMetrics, error) {
	m, ok := p.keywords[model.NormalizeQuery(query)]
	if !ok {
		return nil, ErrNoData
	}
	return &m, nil
}

// AccountMetrics implements Provider
func (p *StaticProvider) AccountMetrics(_ context.Context, _ model.DateRange) (*model.CompetitiveMetrics, error) {
	if p.account == nil {
		return nil, ErrNoData
	}
	m := *p.account
	return &m, nil
}
