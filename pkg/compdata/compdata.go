// Package compdata 定义竞争指标数据源的通用接口。
// 数据分两级粒度：关键词级优先，账户级兜底。
package compdata

import (
	"context"
	"errors"

	"github.com/iWorld-y/growth_radar/pkg/model"
)

// ErrNoData 数据源中不存在请求粒度的数据
var ErrNoData = errors.New("compdata: no data for requested scope")

// Provider 竞争指标数据源
type Provider interface {
	// KeywordMetrics 查询关键词级竞争指标，缺失时返回 ErrNoData
	KeywordMetrics(ctx context.Context, query string, dr model.DateRange) (*model.CompetitiveMetrics, error)
	// AccountMetrics 查询账户级竞争指标，缺失时返回 ErrNoData
	AccountMetrics(ctx context.Context, dr model.DateRange) (*model.CompetitiveMetrics, error)
}
