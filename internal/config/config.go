package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"github.com/lucksec/cloudarchitect/internal/domain"
)

// ConfigFileName 配置文件名
const ConfigFileName = ".cloudarchitect.ini"

// Config 应用配置
type Config struct {
	// 数据目录（会话数据库等）
	DataDir string

	// 实际加载的配置文件路径，未找到时为空
	ConfigPath string

	// 模型配置
	LLM LLMConfig

	// 架构生成配置
	Architect ArchitectConfig

	// 进程级默认工作负载
	Workload domain.WorkloadRequirements

	// 会话配置
	Session SessionConfig

	// 服务配置
	Server ServerConfig

	// 日志配置
	Log LogConfig

	// 凭据配置文件路径
	CredentialConfigPath string
}

// LLMConfig 模型相关配置
type LLMConfig struct {
	// 模型提供方：gemini, openai, anthropic, ollama
	Provider string

	// 模型名称，为空时使用提供方的默认模型
	Model string

	// 单次调用的最大输出 token 数
	MaxTokens int

	// 一轮对话中工具调用的最大步数
	MaxSteps int
}

// ArchitectConfig 架构生成相关配置
type ArchitectConfig struct {
	PreferredCloudProvider domain.ProviderName
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	// 存储类型：sqlite 或 memory
	Store string

	// sqlite 数据库路径，为空时使用 DataDir/sessions.db
	DBPath string

	// memory 存储的最大会话数
	MaxSessions int

	// 是否强制工具调用顺序
	EnforcePhaseOrder bool
}

// ServerConfig MCP 服务配置
type ServerConfig struct {
	HTTPAddr string
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别：DEBUG, INFO, WARN, ERROR
	Level string

	// 是否启用控制台输出
	EnableConsole bool

	// 是否启用文件输出
	EnableFile bool

	// 日志目录
	LogDir string

	// 日志文件名（如果为空，则使用默认格式）
	LogFile string
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		DataDir: ".cloudarchitect",
		LLM: LLMConfig{
			Provider:  "gemini",
			MaxTokens: 4096,
			MaxSteps:  15,
		},
		Architect: ArchitectConfig{
			PreferredCloudProvider: domain.ProviderCloudflare,
		},
		Workload: domain.DefaultWorkload(),
		Session: SessionConfig{
			Store:       "sqlite",
			MaxSessions: 256,
		},
		Server: ServerConfig{
			HTTPAddr: "127.0.0.1:8787",
		},
		Log: LogConfig{
			Level:         "INFO",
			EnableConsole: true,
			EnableFile:    false,
			LogDir:        "logs",
		},
	}
}

// SearchPaths 配置文件查找路径，按优先级排列
func SearchPaths() []string {
	paths := []string{ConfigFileName}
	if homeDir := os.Getenv("HOME"); homeDir != "" {
		paths = append(paths, filepath.Join(homeDir, ".cloudarchitect", ConfigFileName))
	}
	return paths
}

// LoadConfig 加载配置文件
//
// 先加载 .env / .dev.vars 中的环境变量，再按 SearchPaths 查找 ini 文件，最后应用环境变量覆盖。
func LoadConfig() (*Config, error) {
	for _, f := range []string{".env", ".dev.vars"} {
		_ = godotenv.Load(f)
	}

	var configPath string
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			configPath = path
			break
		}
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	return cfg, nil
}

// LoadFrom 从指定文件加载配置，path 为空时只使用默认值和环境变量
func LoadFrom(path string) (*Config, error) {
	config := Default()
	config.ConfigPath = path
	config.CredentialConfigPath = path

	if path != "" {
		cfgFile, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
		if err := apply(config, cfgFile); err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
	}

	applyEnv(config)

	if config.Session.DBPath == "" {
		config.Session.DBPath = filepath.Join(config.DataDir, "sessions.db")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// apply 读取 ini 各节
func apply(config *Config, cfgFile *ini.File) error {
	if section := cfgFile.Section("default"); section != nil {
		if dataDir := section.Key("data_dir").String(); dataDir != "" {
			config.DataDir = dataDir
		}
	}

	if section := cfgFile.Section("llm"); section != nil {
		if provider := section.Key("provider").String(); provider != "" {
			config.LLM.Provider = strings.ToLower(provider)
		}
		if model := section.Key("model").String(); model != "" {
			config.LLM.Model = model
		}
		if section.HasKey("max_tokens") {
			v, err := section.Key("max_tokens").Int()
			if err != nil {
				return fmt.Errorf("llm.max_tokens: %w", err)
			}
			config.LLM.MaxTokens = v
		}
		if section.HasKey("max_steps") {
			v, err := section.Key("max_steps").Int()
			if err != nil {
				return fmt.Errorf("llm.max_steps: %w", err)
			}
			config.LLM.MaxSteps = v
		}
	}

	if section := cfgFile.Section("architect"); section != nil {
		if provider := section.Key("preferred_cloud_provider").String(); provider != "" {
			config.Architect.PreferredCloudProvider = domain.ProviderName(strings.ToLower(provider))
		}
	}

	if err := applyWorkload(&config.Workload, cfgFile.Section("workload")); err != nil {
		return err
	}

	if section := cfgFile.Section("session"); section != nil {
		if store := section.Key("store").String(); store != "" {
			config.Session.Store = strings.ToLower(store)
		}
		if dbPath := section.Key("db_path").String(); dbPath != "" {
			config.Session.DBPath = dbPath
		}
		if section.HasKey("max_sessions") {
			v, err := section.Key("max_sessions").Int()
			if err != nil {
				return fmt.Errorf("session.max_sessions: %w", err)
			}
			config.Session.MaxSessions = v
		}
		if enforce := section.Key("enforce_phase_order").String(); enforce != "" {
			config.Session.EnforcePhaseOrder = parseBool(enforce)
		}
	}

	if section := cfgFile.Section("server"); section != nil {
		if addr := section.Key("http_addr").String(); addr != "" {
			config.Server.HTTPAddr = addr
		}
	}

	if section := cfgFile.Section("log"); section != nil {
		if level := section.Key("level").String(); level != "" {
			config.Log.Level = level
		}
		if enableConsole := section.Key("enable_console").String(); enableConsole != "" {
			config.Log.EnableConsole = parseBool(enableConsole)
		}
		if enableFile := section.Key("enable_file").String(); enableFile != "" {
			config.Log.EnableFile = parseBool(enableFile)
		}
		if logDir := section.Key("log_dir").String(); logDir != "" {
			config.Log.LogDir = logDir
		}
		if logFile := section.Key("log_file").String(); logFile != "" {
			config.Log.LogFile = logFile
		}
	}

	return nil
}

// applyWorkload 覆盖默认工作负载，每个键独立生效
func applyWorkload(w *domain.WorkloadRequirements, section *ini.Section) error {
	if v := section.Key("title").String(); v != "" {
		w.Title = v
	}
	if v := section.Key("description").String(); v != "" {
		w.Description = v
	}
	if section.HasKey("monthly_requests") {
		v, err := section.Key("monthly_requests").Int64()
		if err != nil {
			return fmt.Errorf("workload.monthly_requests: %w", err)
		}
		w.MonthlyRequests = v
	}
	if section.HasKey("data_per_request_kb") {
		v, err := section.Key("data_per_request_kb").Float64()
		if err != nil {
			return fmt.Errorf("workload.data_per_request_kb: %w", err)
		}
		w.DataPerRequestKB = v
	}
	if v := section.Key("latency_sensitivity").String(); v != "" {
		w.LatencySensitivity = domain.LatencySensitivity(v)
	}
	if v := section.Key("data_residency").String(); v != "" {
		w.DataResidency = domain.DataResidency(v)
	}
	if v := section.Key("sensitivity").String(); v != "" {
		w.Sensitivity = domain.Sensitivity(v)
	}
	if v := section.Key("complexity").String(); v != "" {
		w.Complexity = domain.Complexity(v)
	}
	if v := section.Key("style").String(); v != "" {
		w.Style = domain.ArchitectureStyle(v)
	}
	return nil
}

// applyEnv 环境变量覆盖
func applyEnv(config *Config) {
	if v := os.Getenv("CLOUDARCHITECT_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("CLOUDARCHITECT_LLM_MODEL"); v != "" {
		config.LLM.Model = v
	}
	if v := os.Getenv("CLOUDARCHITECT_HTTP_ADDR"); v != "" {
		config.Server.HTTPAddr = v
	}
	if v := os.Getenv("CLOUDARCHITECT_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
