package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultCopperBaseURL = "https://api.copper.com/developer_api/v1"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml and applies env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	overrides := []struct {
		target *string
		env    string
	}{
		{&cfg.Copper.APIKey, "COPPER_API_KEY"},
		{&cfg.Copper.UserEmail, "COPPER_USER_EMAIL"},
		{&cfg.Intent.ProxyURL, "CLAUDE_PROXY_URL"},
		{&cfg.Redis.Address, "REDIS_ADDRESS"},
		{&cfg.Redis.Password, "REDIS_PASSWORD"},
		{&cfg.Camunda.BrokerAddress, "ZEEBE_ADDRESS"},
	}
	for _, o := range overrides {
		if *o.target == "" {
			if val := os.Getenv(o.env); val != "" {
				*o.target = val
			}
		}
	}
}

// setDefaults covers settings where an explicit zero is meaningful, so they cannot be
// filled in after unmarshalling.
func setDefaults(v *viper.Viper) {
	v.SetDefault("matching.threshold", 65)
	v.SetDefault("matching.phonetic_gate", 70)
	v.SetDefault("matching.phonetic_boost", 15)
	v.SetDefault("matching.native_boost", 5)
	v.SetDefault("matching.filter_threshold", 80)
	v.SetDefault("matching.ambiguity_delta", 10)
	v.SetDefault("confirmation.ttl", int((30 * time.Minute).Milliseconds()))
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "copper-intel-workers"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Copper.BaseURL == "" {
		cfg.Copper.BaseURL = DefaultCopperBaseURL
	}
	if cfg.Copper.Timeout == 0 {
		cfg.Copper.Timeout = 30000
	}
	if cfg.Copper.RatePerMinute == 0 {
		cfg.Copper.RatePerMinute = 180
	}
	if cfg.Copper.PageSize == 0 {
		cfg.Copper.PageSize = 200
	}
	if cfg.Copper.MaxPages == 0 {
		cfg.Copper.MaxPages = 25
	}

	if cfg.Intent.Model == "" {
		cfg.Intent.Model = "claude-3-5-haiku-20241022"
	}
	if cfg.Intent.MaxTokens == 0 {
		cfg.Intent.MaxTokens = 1024
	}
	if cfg.Intent.Timeout == 0 {
		cfg.Intent.Timeout = 10000
	}
	if cfg.Intent.MaxRetries == 0 {
		cfg.Intent.MaxRetries = 2
	}

	if cfg.Matching.MaxCandidates == 0 {
		cfg.Matching.MaxCandidates = 5
	}

	if cfg.Confirmation.Backend == "" {
		cfg.Confirmation.Backend = BackendMemory
	}
	if cfg.Confirmation.KeyPrefix == "" {
		cfg.Confirmation.KeyPrefix = "crm:confirm"
	}

	if cfg.Registry.Path == "" {
		cfg.Registry.Path = "configs/activity-registry.json"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Copper.APIKey == "" {
		return fmt.Errorf("copper.api_key is required")
	}
	if cfg.Copper.UserEmail == "" {
		return fmt.Errorf("copper.user_email is required")
	}

	switch cfg.Confirmation.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Redis.Address == "" {
			return fmt.Errorf("redis.address is required for the redis confirmation backend")
		}
	default:
		return fmt.Errorf("confirmation.backend must be %q or %q, got %q", BackendMemory, BackendRedis, cfg.Confirmation.Backend)
	}

	m := cfg.Matching
	for name, v := range map[string]float64{
		"threshold":        m.Threshold,
		"phonetic_gate":    m.PhoneticGate,
		"filter_threshold": m.FilterThreshold,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("matching.%s must be within [0,100], got %v", name, v)
		}
	}
	if m.AmbiguityDelta < 0 {
		return fmt.Errorf("matching.ambiguity_delta must not be negative")
	}
	if m.MaxCandidates < 2 {
		return fmt.Errorf("matching.max_candidates must be at least 2")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
