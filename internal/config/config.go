package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"finhub/internal/model"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AppConfig 应用配置
type AppConfig struct {
	Server     ServerConfig     `toml:"server"`
	Data       DataConfig       `toml:"data"`
	Validation ValidationConfig `toml:"validation"`
	Jobs       JobsConfig       `toml:"jobs"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int   `toml:"port"`
	DevMode     bool  `toml:"dev_mode"`
	MaxUploadMB int64 `toml:"max_upload_mb"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	Driver  string `toml:"driver"`
	DSN     string `toml:"dsn"`
	// ArchiveUploads 将上传文件与处理报告保存到 data_dir/uploads
	ArchiveUploads       bool `toml:"archive_uploads"`
	ArchiveRetentionDays int  `toml:"archive_retention_days"`
}

// ValidationConfig 校验配置
type ValidationConfig struct {
	ExpectedYear         int     `toml:"expected_year"`
	AllowedYears         []int   `toml:"allowed_years"`
	MaxMonthlyVariation  float64 `toml:"max_monthly_variation"`
	AllowDuplicateCodSeg bool    `toml:"allow_duplicate_cod_seg"`
	MinimumNonZeroMonths int     `toml:"minimum_non_zero_months"`
	LegacyColumnOrder    bool    `toml:"legacy_column_order"`
}

// JobsConfig 任务保留配置
type JobsConfig struct {
	TTLMinutes    int    `toml:"ttl_minutes"`
	PurgeSchedule string `toml:"purge_schedule"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	biz := model.DefaultBusinessConfig()
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			MaxUploadMB: 32,
		},
		Data: DataConfig{
			DataDir:              "data",
			Driver:               DriverSQLite,
			ArchiveUploads:       true,
			ArchiveRetentionDays: 7,
		},
		Validation: ValidationConfig{
			MaxMonthlyVariation:  biz.MaxMonthlyVariation,
			AllowDuplicateCodSeg: biz.AllowDuplicateCodSeg,
			MinimumNonZeroMonths: biz.MinimumNonZeroMonths,
		},
		Jobs: JobsConfig{
			TTLMinutes:    60,
			PurgeSchedule: "@every 1m",
		},
	}
}

// DateConfig 月份识别配置；expected_year 为 0 时使用当前年份
func (c *AppConfig) DateConfig() model.DateConfig {
	year := c.Validation.ExpectedYear
	if year == 0 {
		year = time.Now().Year()
	}
	return model.NewDateConfig(year, c.Validation.AllowedYears...)
}

// BusinessConfig 业务规则配置
func (c *AppConfig) BusinessConfig() model.BusinessConfig {
	return model.BusinessConfig{
		MaxMonthlyVariation:  c.Validation.MaxMonthlyVariation,
		AllowDuplicateCodSeg: c.Validation.AllowDuplicateCodSeg,
		MinimumNonZeroMonths: c.Validation.MinimumNonZeroMonths,
		LegacyColumnOrder:    c.Validation.LegacyColumnOrder,
	}
}

// JobTTL 任务结束后的保留时长
func (c *AppConfig) JobTTL() time.Duration {
	return time.Duration(c.Jobs.TTLMinutes) * time.Minute
}

// ArchiveRetention 归档保留时长
func (c *AppConfig) ArchiveRetention() time.Duration {
	return time.Duration(c.Data.ArchiveRetentionDays) * 24 * time.Hour
}

// MaxUploadBytes 上传大小上限
func (c *AppConfig) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}

// Validate 检查配置取值
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid server.max_upload_mb: %d", c.Server.MaxUploadMB)
	}
	switch c.Data.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Data.DSN == "" {
			return fmt.Errorf("data.dsn is required for driver %s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unsupported data.driver: %s", c.Data.Driver)
	}
	if c.Validation.MaxMonthlyVariation <= 0 {
		return fmt.Errorf("invalid validation.max_monthly_variation: %v", c.Validation.MaxMonthlyVariation)
	}
	if c.Data.ArchiveRetentionDays < 0 {
		return fmt.Errorf("invalid data.archive_retention_days: %d", c.Data.ArchiveRetentionDays)
	}
	if c.Jobs.TTLMinutes < 0 {
		return fmt.Errorf("invalid jobs.ttl_minutes: %d", c.Jobs.TTLMinutes)
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return LoadFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadFrom 从指定路径加载配置；文件不存在时使用默认配置
// 同目录的 .env 先被加载，随后应用环境变量覆盖
func LoadFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, info, fmt.Errorf("load %s: %w", envPath, err)
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := strings.TrimSpace(os.Getenv("FINHUB_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FINHUB_PORT %q: %w", v, err)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := strings.TrimSpace(os.Getenv("FINHUB_DB_DRIVER")); v != "" {
		config.Data.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("FINHUB_DATABASE_URL")); v != "" {
		config.Data.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("FINHUB_ALLOWED_YEARS")); v != "" {
		years, err := ParseYears(v)
		if err != nil {
			return fmt.Errorf("invalid FINHUB_ALLOWED_YEARS: %w", err)
		}
		config.Validation.AllowedYears = years
	}
	return nil
}

// ParseYears 解析逗号分隔的年份列表
func ParseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("year %q: %w", part, err)
		}
		years = append(years, y)
	}
	return years, nil
}

// LoadConfig 从 config.toml 加载配置
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// EnsureDataDir 确保数据目录存在
// 相对路径位于可执行文件同目录下
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	// 创建子目录
	for _, subdir := range []string{"uploads", "exports"} {
		if err := os.MkdirAll(filepath.Join(dataDir, subdir), 0755); err != nil {
			return "", err
		}
	}
	return dataDir, nil
}
