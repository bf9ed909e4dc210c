package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Panel      PanelConfig      `mapstructure:"panel"`
	Manuscript ManuscriptConfig `mapstructure:"manuscript"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Import     ImportConfig     `mapstructure:"import"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// 数据库驱动
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig 数据库配置（生产使用 PostgreSQL，本地开发可切换 SQLite）
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（同义词缓存、投票限流）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 校验配置（Token 由统一认证平台签发）
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// 匹配度计算口径
// specializations 按导师自身方向数归一（比例优先），terms 按检索词数归一（命中数优先），两者排序可能不同
const (
	PercentageBasisSpecializations = "specializations"
	PercentageBasisTerms           = "terms"
)

// MatchingConfig 导师匹配配置
type MatchingConfig struct {
	MaxCandidates      int           `mapstructure:"max_candidates"`
	PercentageBasis    string        `mapstructure:"percentage_basis"`
	MaxPhraseWords     int           `mapstructure:"max_phrase_words"`
	MaxExpansionRounds int           `mapstructure:"max_expansion_rounds"`
	SynonymCacheTTL    time.Duration `mapstructure:"synonym_cache_ttl"`
}

// PanelConfig 答辩委员分配配置
type PanelConfig struct {
	FallbackLimit int `mapstructure:"fallback_limit"`
}

// 投票阈值模式
const (
	ThresholdModeFixed     = "fixed"
	ThresholdModePanelSize = "panel_size"
)

// ManuscriptConfig 论文状态机配置
type ManuscriptConfig struct {
	RevisionThreshold int    `mapstructure:"revision_threshold"`
	ApprovalThreshold int    `mapstructure:"approval_threshold"`
	ThresholdMode     string `mapstructure:"threshold_mode"`
	PanelOnlyVoting   bool   `mapstructure:"panel_only_voting"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	VoteLimit  int           `mapstructure:"vote_limit"`
	VoteWindow time.Duration `mapstructure:"vote_window"`
}

// ImportConfig 批量导入配置
type ImportConfig struct {
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	MaxRows        int   `mapstructure:"max_rows"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("THESIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "thesis_hub")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.sqlite_path", "thesis_hub.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.issuer", "thesis-hub")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("matching.max_candidates", 5)
	v.SetDefault("matching.percentage_basis", PercentageBasisSpecializations)
	v.SetDefault("matching.max_phrase_words", 3)
	v.SetDefault("matching.max_expansion_rounds", 32)
	v.SetDefault("matching.synonym_cache_ttl", "10m")

	v.SetDefault("panel.fallback_limit", 5)

	v.SetDefault("manuscript.revision_threshold", 4)
	v.SetDefault("manuscript.approval_threshold", 5)
	v.SetDefault("manuscript.threshold_mode", ThresholdModeFixed)
	v.SetDefault("manuscript.panel_only_voting", false)

	v.SetDefault("rate_limit.vote_limit", 20)
	v.SetDefault("rate_limit.vote_window", "1m")

	v.SetDefault("import.max_upload_bytes", 5<<20)
	v.SetDefault("import.max_rows", 1000)
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("配置校验失败: db.driver 仅支持 postgres/sqlite，当前为 %q", c.Database.Driver)
	}
	switch c.Matching.PercentageBasis {
	case PercentageBasisSpecializations, PercentageBasisTerms:
	default:
		return fmt.Errorf("配置校验失败: matching.percentage_basis 无效 %q", c.Matching.PercentageBasis)
	}
	if c.Matching.MaxCandidates <= 0 {
		return fmt.Errorf("配置校验失败: matching.max_candidates 必须大于 0")
	}
	if c.Matching.MaxPhraseWords < 1 {
		return fmt.Errorf("配置校验失败: matching.max_phrase_words 不能小于 1")
	}
	switch c.Manuscript.ThresholdMode {
	case ThresholdModeFixed, ThresholdModePanelSize:
	default:
		return fmt.Errorf("配置校验失败: manuscript.threshold_mode 无效 %q", c.Manuscript.ThresholdMode)
	}
	if c.Manuscript.RevisionThreshold < 1 || c.Manuscript.ApprovalThreshold < 1 {
		return fmt.Errorf("配置校验失败: manuscript 投票阈值必须大于 0")
	}
	return nil
}

// Defaults 返回仅包含默认值的配置（测试与命令行工具使用）
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
