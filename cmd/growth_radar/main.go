package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iWorld-y/growth_radar/pkg/config"
	"github.com/iWorld-y/growth_radar/pkg/engine"
	"github.com/iWorld-y/growth_radar/pkg/logger"
	gm "github.com/iWorld-y/growth_radar/pkg/model"
	"github.com/iWorld-y/growth_radar/pkg/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	recordsPath := flag.String("records", "data/records.json", "原始查询记录文件路径")
	outputPath := flag.String("output", "", "报告输出路径，默认 report_<日期>.json")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动增长雷达...")

	// 3. 加载原始查询记录
	records, err := loadRecords(*recordsPath)
	if err != nil {
		logger.Log.Fatalf("无法加载查询记录: %v", err)
	}
	logger.Log.Infof("已加载 %d 条查询记录", len(records))

	// 初始化数据库连接
	// 如果配置了数据库信息，则尝试连接；否则仅生成本地报告文件
	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("无法连接数据库: %v. 将仅生成本地报告文件。", err)
		} else {
			store = s
			defer store.Close()
			logger.Log.Info("已成功连接到数据库")
		}
	} else {
		logger.Log.Info("未配置数据库信息，跳过数据库连接")
	}

	// 4. 初始化引擎并执行
	eng, err := engine.NewEngine(cfg, store)
	if err != nil {
		logger.Log.Fatalf("无法初始化引擎: %v", err)
	}

	ctx := context.Background()
	final, err := eng.Run(ctx, engine.RunOptions{
		Records: records,
		ProgressCallback: func(status string, progress int) {
			logger.Log.Debugf("进度 %d%%: %s", progress, status)
		},
	})
	if err != nil {
		logger.Log.Fatalf("报告生成失败: %v", err)
	}

	// 5. 写出报告
	path := *outputPath
	if path == "" {
		path = fmt.Sprintf("report_%s.json", time.Now().Format(time.DateOnly))
	}
	if err := writeReport(path, final); err != nil {
		logger.Log.Fatalf("无法写出报告: %v", err)
	}
	logger.Log.Infof("报告已写出至 %s，共 %d 条推荐", path, len(final.Recommendations))
}

// loadRecords 从 JSON 文件读取原始查询记录
func loadRecords(path string) ([]gm.RawQueryRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []gm.RawQueryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("解析查询记录失败: %w", err)
	}
	return records, nil
}

func writeReport(path string, out *gm.DirectorOutput) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
