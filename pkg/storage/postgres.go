// Package storage 负责报告运行记录的 postgres 持久化。
// 每个阶段的快照只写一次，历史运行不允许原地改写。
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/growth_radar/pkg/config"
	"github.com/iWorld-y/growth_radar/pkg/model"
)

type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS report_runs (
			id SERIAL PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			client TEXT NOT NULL,
			category TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			error TEXT,
			scout_findings JSONB,
			researcher_data JSONB,
			sem_output JSONB,
			seo_output JSONB,
			director_output JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

// CreateRun 创建一条运行记录，返回数据库 ID
func (s *Storage) CreateRun(run *model.ReportRun) (int, error) {
	var id int
	err := s.db.QueryRow(`
		INSERT INTO report_runs (uuid, client, category, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		run.UUID, run.Client, run.Category, run.DateRange.Start, run.DateRange.End, string(run.Status)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report run: %w", err)
	}
	return id, nil
}

// UpdateStatus 推进运行状态
func (s *Storage) UpdateStatus(runID int, status model.RunStatus) error {
	_, err := s.db.Exec(`UPDATE report_runs SET status = $2 WHERE id = $1`, runID, string(status))
	return err
}

// MarkCompleted 标记成功终态
func (s *Storage) MarkCompleted(runID int) error {
	_, err := s.db.Exec(`
		UPDATE report_runs SET status = $2, completed_at = CURRENT_TIMESTAMP WHERE id = $1`,
		runID, string(model.StatusCompleted))
	return err
}

// MarkFailed 标记失败终态并保留错误信息
func (s *Storage) MarkFailed(runID int, message string) error {
	_, err := s.db.Exec(`
		UPDATE report_runs SET status = $2, error = $3, completed_at = CURRENT_TIMESTAMP WHERE id = $1`,
		runID, string(model.StatusFailed), message)
	return err
}

// snapshotColumns 阶段名到快照列的白名单
var snapshotColumns = map[string]string{
	"scout":      "scout_findings",
	"researcher": "researcher_data",
	"sem":        "sem_output",
	"seo":        "seo_output",
	"director":   "director_output",
}

// SaveSnapshot 写入阶段快照。列已有值时拒绝写入，保证历史不被覆盖。
func (s *Storage) SaveSnapshot(runID int, stage string, payload any) error {
	column, ok := snapshotColumns[stage]
	if !ok {
		return fmt.Errorf("unknown snapshot stage: %s", stage)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", stage, err)
	}

	query := fmt.Sprintf(`UPDATE report_runs SET %s = $2 WHERE id = $1 AND %s IS NULL`, column, column)
	res, err := s.db.Exec(query, runID, data)
	if err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", stage, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s snapshot already written for run %d", stage, runID)
	}
	return nil
}
