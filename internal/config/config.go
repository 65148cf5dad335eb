package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is loaded once in main and
// passed explicitly to components; there is no process-wide singleton.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Approval ApprovalConfig `mapstructure:"approval"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds sqlite configuration.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AgentConfig holds the inference-service settings for the agent
// recommendation feed.
type AgentConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// VoiceConfig tunes the classification pipeline.
type VoiceConfig struct {
	WakePhrases []string `mapstructure:"wake_phrases"`
}

// ApprovalConfig tunes the decision gate.
type ApprovalConfig struct {
	ConfidenceThreshold float64  `mapstructure:"confidence_threshold"`
	RiskActions         []string `mapstructure:"risk_actions"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. An empty
// configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in (0, 65535]: %d", c.Server.Port)
	}
	if c.Approval.ConfidenceThreshold <= 0 || c.Approval.ConfidenceThreshold > 1 {
		return fmt.Errorf("approval confidence threshold must be in (0, 1]: %.2f", c.Approval.ConfidenceThreshold)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("database.path", "data/leanvibe.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("agent.model", "gpt-4o-mini")
	v.SetDefault("agent.temperature", 0.2)
	v.SetDefault("agent.timeout", 30*time.Second)

	v.SetDefault("voice.wake_phrases", []string{"hey leanvibe", "leanvibe"})

	v.SetDefault("approval.confidence_threshold", 0.8)
	v.SetDefault("approval.risk_actions", []string{
		"delete_file", "execute_shell", "force_push", "overwrite_file",
	})

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "console")
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("agent.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("server.port", "LEANVIBE_PORT")
	_ = v.BindEnv("database.path", "LEANVIBE_DB_PATH")
	_ = v.BindEnv("logger.level", "LEANVIBE_LOG_LEVEL")
}
