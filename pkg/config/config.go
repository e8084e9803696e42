package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	CompData    CompDataConfig    `yaml:"compdata"`
	Client      ClientConfig      `yaml:"client"`
	ReportDays  int               `yaml:"report_days"` // 报告回溯天数
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ClientConfig 业务客户信息
type ClientConfig struct {
	Name     string `yaml:"name"`
	Domain   string `yaml:"domain"`
	Category string `yaml:"category"` // 业务类型，用于技能包选择
}

// CompDataConfig 竞争数据源配置
type CompDataConfig struct {
	Provider string               `yaml:"provider"` // "http" or "static"
	HTTP     CompDataHTTPConfig   `yaml:"http"`
	Static   CompDataStaticConfig `yaml:"static"`
}

// CompDataHTTPConfig HTTP 数据源配置
type CompDataHTTPConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Timeout int    `yaml:"timeout"` // 秒
}

// CompDataStaticConfig 本地文件数据源配置
type CompDataStaticConfig struct {
	Path string `yaml:"path"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.ReportDays <= 0 {
		cfg.ReportDays = 30
	}

	return &cfg, nil
}

// Validate 校验启动必需项
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("配置错误: 未设置 llm.api_key")
	}
	if c.Client.Category == "" {
		return fmt.Errorf("配置错误: 未设置 client.category")
	}
	return nil
}
