package config

type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Redis        RedisConfig             `mapstructure:"redis"`
	Copper       CopperConfig            `mapstructure:"copper"`
	Intent       IntentConfig            `mapstructure:"intent"`
	Matching     MatchingConfig          `mapstructure:"matching"`
	Confirmation ConfirmationConfig      `mapstructure:"confirmation"`
	Registry     RegistryConfig          `mapstructure:"registry"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Server       ServerConfig            `mapstructure:"server"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CopperConfig configures the read-only CRM client.
type CopperConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	UserEmail     string `mapstructure:"user_email"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
	RatePerMinute int    `mapstructure:"rate_per_minute"`
	PageSize      int    `mapstructure:"page_size"`
	MaxPages      int    `mapstructure:"max_pages"`
}

// IntentConfig configures the remote query-understanding proxy. An empty ProxyURL disables it.
type IntentConfig struct {
	ProxyURL    string  `mapstructure:"proxy_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
	Temperature float64 `mapstructure:"temperature"`
}

type MatchingConfig struct {
	Threshold       float64 `mapstructure:"threshold"`
	PhoneticGate    float64 `mapstructure:"phonetic_gate"`
	PhoneticBoost   float64 `mapstructure:"phonetic_boost"`
	NativeBoost     float64 `mapstructure:"native_boost"`
	FilterThreshold float64 `mapstructure:"filter_threshold"`
	AmbiguityDelta  float64 `mapstructure:"ambiguity_delta"`
	MaxCandidates   int     `mapstructure:"max_candidates"`
}

type ConfirmationConfig struct {
	Backend   string `mapstructure:"backend"` // memory | redis
	TTL       int    `mapstructure:"ttl"`     // milliseconds, 0 = no expiry
	KeyPrefix string `mapstructure:"key_prefix"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}
