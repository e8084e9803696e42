package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/growth_radar/pkg/agent"
	"github.com/iWorld-y/growth_radar/pkg/analyzer"
	"github.com/iWorld-y/growth_radar/pkg/compdata"
	"github.com/iWorld-y/growth_radar/pkg/compdata/factory"
	"github.com/iWorld-y/growth_radar/pkg/config"
	"github.com/iWorld-y/growth_radar/pkg/director"
	"github.com/iWorld-y/growth_radar/pkg/guard"
	"github.com/iWorld-y/growth_radar/pkg/llm"
	"github.com/iWorld-y/growth_radar/pkg/logger"
	gm "github.com/iWorld-y/growth_radar/pkg/model"
	"github.com/iWorld-y/growth_radar/pkg/researcher"
	"github.com/iWorld-y/growth_radar/pkg/scout"
	"github.com/iWorld-y/growth_radar/pkg/skill"
	"github.com/iWorld-y/growth_radar/pkg/storage"
)

// ErrInsufficientData 初筛后没有任何候选项，运行在调用推理服务前终止
var ErrInsufficientData = errors.New("insufficient data: no candidate items after triage")

// Engine 核心编排引擎，驱动一次完整报告运行
type Engine struct {
	cfg       *config.Config
	store     *storage.Storage
	chatModel model.ChatModel
	provider  compdata.Provider
	limiter   *rate.Limiter
	registry  *skill.Registry
}

// NewEngine 创建引擎实例
func NewEngine(cfg *config.Config, store *storage.Storage) (*Engine, error) {
	ctx := context.Background()

	// 初始化 LLM
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	// 初始化限流器
	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	burst := cfg.Concurrency.QPS
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	// 初始化竞争数据源（可为空，表示跳过竞争指标补全）
	provider, err := factory.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("竞争数据源初始化失败: %w", err)
	}

	return &Engine{
		cfg:       cfg,
		store:     store,
		chatModel: chatModel,
		provider:  provider,
		limiter:   limiter,
		registry:  skill.NewRegistry(),
	}, nil
}

// RunOptions 运行选项
type RunOptions struct {
	Records          []gm.RawQueryRecord
	ProgressCallback func(status string, progress int)
}

// Run 执行一次推荐报告生成任务
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*gm.DirectorOutput, error) {
	client := gm.ClientContext{
		Name:     e.cfg.Client.Name,
		Domain:   e.cfg.Client.Domain,
		Category: e.cfg.Client.Category,
	}

	now := time.Now()
	dr := gm.DateRange{
		Start: now.AddDate(0, 0, -e.cfg.ReportDays).Format(time.DateOnly),
		End:   now.Format(time.DateOnly),
	}

	logger.Log.Infof("开始为客户 [%s] 生成报告，业务类型 [%s]，共 %d 条原始记录",
		client.Name, client.Category, len(opts.Records))
	e.progress(opts, "starting", 0)

	// 创建本次运行记录
	run := &gm.ReportRun{
		UUID:      uuid.NewString(),
		Client:    client.Name,
		Category:  client.Category,
		DateRange: dr,
		Status:    gm.StatusPending,
	}
	var runID int
	if e.store != nil {
		rid, err := e.store.CreateRun(run)
		if err != nil {
			logger.Log.Errorf("无法创建运行记录: %v", err)
		} else {
			runID = rid
		}
	}

	// 1. 解析技能包
	res, err := e.registry.Resolve(client.Category)
	if err != nil {
		return nil, e.failRun(runID, fmt.Errorf("技能包解析失败: %w", err))
	}
	bundle := res.Bundle
	logger.Log.Infof("使用技能包 [%s] 版本 [%s]", bundle.Category, bundle.Version)

	// 2. 规则初筛
	findings := scout.Run(opts.Records, bundle.Triage)
	logger.Log.Infof("初筛完成: %d 个关键词候选, %d 个页面候选",
		len(findings.Keywords), len(findings.Pages))
	e.snapshot(runID, "scout", findings)
	e.progress(opts, "triage completed", 15)

	// 数据不足时直接终止，不再调用任何 LLM
	if len(findings.Keywords) == 0 && len(findings.Pages) == 0 {
		return nil, e.failRun(runID, ErrInsufficientData)
	}

	// 3. 数据补全
	e.setStatus(runID, gm.StatusResearching)
	rsr := researcher.New(e.provider, nil, bundle.Enrichment)
	data, err := rsr.Run(ctx, &findings, dr)
	if err != nil {
		return nil, e.failRun(runID, fmt.Errorf("数据补全失败: %w", err))
	}
	logger.Log.Infof("补全完成: 竞争数据 %d 条, 页面内容 %d 条, 抓取失败 %d 条",
		data.Quality.WithCompetitive, data.Quality.WithContent, data.Quality.FetchFailed)
	e.snapshot(runID, "researcher", data)
	e.progress(opts, "enrichment completed", 40)

	// 4. 双渠道 Agent 并发推理
	e.setStatus(runID, gm.StatusAnalyzing)
	validator := guard.NewValidator(bundle.Exclusions)
	caller := llm.NewCaller(e.chatModel, e.limiter)

	// 两个协程各写各的结果与拦截数，批次汇合后再合并统计
	var semOut, seoOut *gm.AgentOutput
	var semDrops, seoDrops int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := agent.New(gm.ChannelSEM, caller).Run(gctx, data.Items, &bundle.SEMAgent, client, dr)
		if err != nil {
			return fmt.Errorf("SEM agent: %w", err)
		}
		out.Actions, semDrops = validator.FilterActions(gm.ChannelSEM, out.Actions)
		semOut = out
		return nil
	})
	g.Go(func() error {
		out, err := agent.New(gm.ChannelSEO, caller).Run(gctx, data.Items, &bundle.SEOAgent, client, dr)
		if err != nil {
			return fmt.Errorf("SEO agent: %w", err)
		}
		out.Actions, seoDrops = validator.FilterActions(gm.ChannelSEO, out.Actions)
		seoOut = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, e.failRun(runID, err)
	}
	logger.Log.Infof("渠道推理完成: SEM %d 条建议, SEO %d 条建议",
		len(semOut.Actions), len(seoOut.Actions))
	e.snapshot(runID, "sem", semOut)
	e.snapshot(runID, "seo", seoOut)
	e.progress(opts, "channel reasoning completed", 70)

	// 5. 综合决策
	dir := director.New(caller, validator)
	final, err := dir.Run(ctx, semOut, seoOut, &bundle.Director, client, dr)
	if err != nil {
		return nil, e.failRun(runID, fmt.Errorf("综合决策失败: %w", err))
	}
	e.snapshot(runID, "director", final)
	e.progress(opts, "synthesis completed", 90)

	// 6. 输出体检，仅记录不拦截
	report := analyzer.Analyze(final, bundle.Category)
	if report.HasViolations() {
		logger.Log.Warnf("输出体检发现 %d 处疑似越界: 指标 %v, 结构化数据 %d 处",
			report.TotalViolations, report.MetricHits, len(report.SchemaPhrases))
	}
	if n := semDrops + seoDrops + dir.Violations(); n > 0 {
		logger.Log.Infof("约束校验共拦截 %d 条违规动作", n)
	}

	if e.store != nil && runID > 0 {
		if err := e.store.MarkCompleted(runID); err != nil {
			logger.Log.Errorf("无法标记运行完成: %v", err)
		}
	}
	e.progress(opts, "completed", 100)
	logger.Log.Infof("报告生成完成: %d 条统一推荐", len(final.Recommendations))
	return final, nil
}

func (e *Engine) progress(opts RunOptions, status string, pct int) {
	if opts.ProgressCallback != nil {
		opts.ProgressCallback(status, pct)
	}
}

func (e *Engine) setStatus(runID int, status gm.RunStatus) {
	if e.store == nil || runID <= 0 {
		return
	}
	if err := e.store.UpdateStatus(runID, status); err != nil {
		logger.Log.Errorf("无法更新运行状态 [%s]: %v", status, err)
	}
}

func (e *Engine) snapshot(runID int, stage string, payload any) {
	if e.store == nil || runID <= 0 {
		return
	}
	if err := e.store.SaveSnapshot(runID, stage, payload); err != nil {
		logger.Log.Errorf("无法保存阶段快照 [%s]: %v", stage, err)
	}
}

func (e *Engine) failRun(runID int, err error) error {
	logger.Log.Errorf("运行失败: %v", err)
	if e.store != nil && runID > 0 {
		if serr := e.store.MarkFailed(runID, err.Error()); serr != nil {
			logger.Log.Errorf("无法标记运行失败: %v", serr)
		}
	}
	return err
}
