package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// BootstrapFileName is looked up in the config directory.
const BootstrapFileName = "console_config.yaml"

// EnvPrefix prefixes environment overrides, e.g. TELEOP_CONSOLE_ZEROMQ_PUBLISH_ADDRESS.
const EnvPrefix = "TELEOP_CONSOLE"

// BootstrapConfig holds the initial configuration loaded from console_config.yaml
type BootstrapConfig struct {
	Logging LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Server  ServerConfig    `mapstructure:"server" yaml:"server"`
	ZeroMQ  ZeroMQBootstrap `mapstructure:"zeromq" yaml:"zeromq"`
	Panel   PanelConfig     `mapstructure:"panel" yaml:"panel"`
	Data    DataConfig      `mapstructure:"data" yaml:"data"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	LogPath string `mapstructure:"log_path" yaml:"log_path,omitempty"`
}

// ServerConfig holds the HTTP API settings
type ServerConfig struct {
	Enabled  bool `mapstructure:"enabled" yaml:"enabled"`
	HTTPPort int  `mapstructure:"http_port" yaml:"http_port"`
}

// ZeroMQBootstrap holds the bus endpoints.
// PublishAddress and SubscribeAddress are connected to (the bus broker or the
// manipulator bridges bind); CommandBindAddress is bound locally when set.
type ZeroMQBootstrap struct {
	PublishAddress     string `mapstructure:"publish_address" yaml:"publish_address"`
	SubscribeAddress   string `mapstructure:"subscribe_address" yaml:"subscribe_address"`
	CommandBindAddress string `mapstructure:"command_bind_address" yaml:"command_bind_address"`
	ReceiveTimeoutMs   int    `mapstructure:"receive_timeout_ms" yaml:"receive_timeout_ms"`
}

// PanelConfig holds the refresh period and the stylesheet location.
type PanelConfig struct {
	PeriodMs   int    `mapstructure:"period_ms" yaml:"period_ms"`
	Stylesheet string `mapstructure:"stylesheet" yaml:"stylesheet"`
}

// DataConfig holds data directory settings from bootstrap
type DataConfig struct {
	Directory       string `mapstructure:"directory" yaml:"directory"`
	TopicConfigFile string `mapstructure:"topic_config_file" yaml:"topic_config_file"`
}

// TopicConfigPath returns the absolute path of the operational topic config.
func (b *BootstrapConfig) TopicConfigPath() string {
	return filepath.Join(b.Data.Directory, b.Data.TopicConfigFile)
}

// StylesheetPath resolves the stylesheet relative to the data directory.
func (b *BootstrapConfig) StylesheetPath() string {
	if filepath.IsAbs(b.Panel.Stylesheet) {
		return b.Panel.Stylesheet
	}
	return filepath.Join(b.Data.Directory, b.Panel.Stylesheet)
}

// SetBootstrapDefaults registers the defaults on v.
func SetBootstrapDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_path", "")
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.http_port", 8090)
	v.SetDefault("zeromq.publish_address", "tcp://localhost:5560")
	v.SetDefault("zeromq.subscribe_address", "tcp://localhost:5561")
	v.SetDefault("zeromq.command_bind_address", "tcp://*:5562")
	v.SetDefault("zeromq.receive_timeout_ms", 100)
	v.SetDefault("panel.period_ms", 50)
	v.SetDefault("panel.stylesheet", "styles/default.yaml")
	v.SetDefault("data.directory", ".")
	v.SetDefault("data.topic_config_file", "teleop_topics.yaml")
}

// NewBootstrapViper returns a viper instance with defaults, env overrides and
// the bootstrap file location for configDir. Callers may bind flags on it
// before calling LoadBootstrapConfig.
func NewBootstrapViper(configDir string) *viper.Viper {
	v := viper.New()
	SetBootstrapDefaults(v)

	v.SetConfigType("yaml")
	v.SetConfigFile(filepath.Join(configDir, BootstrapFileName))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadBootstrapConfig loads the bootstrap configuration from console_config.yaml.
// A missing file is not an error; defaults and env overrides still apply.
func LoadBootstrapConfig(v *viper.Viper) (*BootstrapConfig, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	var bootstrapCfg BootstrapConfig
	if err := v.Unmarshal(&bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config: %w", err)
	}

	if err := bootstrapCfg.Validate(); err != nil {
		return nil, err
	}
	return &bootstrapCfg, nil
}

// Validate checks required bootstrap fields.
func (b *BootstrapConfig) Validate() error {
	if b.ZeroMQ.PublishAddress == "" {
		return fmt.Errorf("missing required field in bootstrap config: zeromq.publish_address")
	}
	if b.ZeroMQ.SubscribeAddress == "" {
		return fmt.Errorf("missing required field in bootstrap config: zeromq.subscribe_address")
	}
	if b.Data.Directory == "" {
		return fmt.Errorf("missing required field in bootstrap config: data.directory")
	}
	if b.Data.TopicConfigFile == "" {
		return fmt.Errorf("missing required field in bootstrap config: data.topic_config_file")
	}
	if b.Panel.PeriodMs <= 0 {
		return fmt.Errorf("invalid bootstrap config: panel.period_ms must be positive, got %d", b.Panel.PeriodMs)
	}
	return nil
}

// SetConfigFile bypasses viper's search, so a missing file surfaces as a
// plain fs error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
