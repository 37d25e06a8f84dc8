package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string        `yaml:"env" env-default:"prod"`
	Storage StorageConfig `yaml:"storage"`
	Refresh RefreshConfig `yaml:"refresh"`
	Output  OutputConfig  `yaml:"output"`
	Sensors SensorsRef    `yaml:"sensors"`
	Journal JournalConfig `yaml:"journal"`
	Health  HealthConfig  `yaml:"health"`
	Log     LogConfig     `yaml:"log"`
}

type StorageConfig struct {
	Folder string `yaml:"folder" env-required:"true"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval" env-default:"1m"`
}

type OutputConfig struct {
	Path  string      `yaml:"path" env-required:"true"`
	Retry RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" env-default:"3"`
	InitialDelay time.Duration `yaml:"initial_delay" env-default:"100ms"`
	MaxDelay     time.Duration `yaml:"max_delay" env-default:"2s"`
}

type SensorsRef struct {
	ConfigPath string `yaml:"config_path" env-required:"true"`
}

type JournalConfig struct {
	Enabled bool          `yaml:"enabled" env-default:"false"`
	Path    string        `yaml:"path" env-default:"/var/lib/a2sensor/journal.db"`
	MaxAge  time.Duration `yaml:"max_age" env-default:"168h"`
}

type HealthConfig struct {
	Address string `yaml:"address" env-default:":8080"`
}

type LogConfig struct {
	Level  string `yaml:"level" env-default:"info"`
	Format string `yaml:"format" env-default:"json"`
}

func MustLoad(configPath string) *Config {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("failed to read config: " + err.Error())
	}

	return &cfg
}
