package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// newViper creates a viper instance for configPath or the standard locations
func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.dupe-guard")
		v.AddConfigPath("/etc/dupe-guard")
	}

	v.SetEnvPrefix("DUPEGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvKeys(v)
	return v
}

// bindEnvKeys registers every config key so env vars apply without a config file
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port",
		"dedup.retention_window", "dedup.sweep_interval", "dedup.monitored_groups",
		"dedup.monitor_all", "dedup.hash_algorithm", "dedup.dry_run",
		"storage.driver", "storage.path",
		"telegram.bot_token", "telegram.api_url", "telegram.polling",
		"telegram.poll_timeout", "telegram.request_timeout",
		"notification.enabled", "notification.method", "notification.admin_chat_ids",
		"logging.level", "logging.format", "logging.output_path", "logging.logs_dir",
	}
	for _, key := range keys {
		v.BindEnv(key)
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config, _, err := load(configPath)
	return config, err
}

func load(configPath string) (*domain.Config, *viper.Viper, error) {
	config := domain.DefaultConfig()
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, v, nil
}

// WatchConfig reloads the config file on change and passes the new config
// to onChange. Invalid edits are logged and ignored.
func WatchConfig(configPath string, log *zap.Logger, onChange func(*domain.Config)) error {
	_, v, err := load(configPath)
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return fmt.Errorf("no config file to watch")
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		config, err := LoadConfig(e.Name)
		if err != nil {
			log.Warn("Ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		log.Info("Config reloaded", zap.String("file", e.Name))
		onChange(config)
	})
	v.WatchConfig()

	return nil
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Storage.Path = expandPath(config.Storage.Path)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" || path == ":memory:" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Dedup.RetentionWindow <= 0 {
		return fmt.Errorf("retention window must be positive")
	}

	if config.Dedup.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	switch config.Dedup.HashAlgorithm {
	case "md5", "xxhash":
	default:
		return fmt.Errorf("unsupported hash algorithm: %s", config.Dedup.HashAlgorithm)
	}

	switch config.Storage.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unsupported storage driver: %s", config.Storage.Driver)
	}

	if config.Storage.Path == "" {
		return fmt.Errorf("storage path not configured")
	}

	if config.Telegram.PollTimeout < 0 {
		return fmt.Errorf("telegram poll timeout cannot be negative")
	}

	switch config.Notification.Method {
	case "log", "telegram":
	default:
		return fmt.Errorf("unsupported notification method: %s", config.Notification.Method)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("server.host", config.Server.Host)
	v.Set("server.port", config.Server.Port)
	v.Set("dedup.retention_window", config.Dedup.RetentionWindow.String())
	v.Set("dedup.sweep_interval", config.Dedup.SweepInterval.String())
	v.Set("dedup.monitored_groups", config.Dedup.MonitoredGroups)
	v.Set("dedup.monitor_all", config.Dedup.MonitorAll)
	v.Set("dedup.hash_algorithm", config.Dedup.HashAlgorithm)
	v.Set("dedup.dry_run", config.Dedup.DryRun)
	v.Set("storage.driver", config.Storage.Driver)
	v.Set("storage.path", config.Storage.Path)
	v.Set("telegram.bot_token", config.Telegram.BotToken)
	v.Set("telegram.api_url", config.Telegram.APIURL)
	v.Set("telegram.polling", config.Telegram.Polling)
	v.Set("telegram.poll_timeout", config.Telegram.PollTimeout.String())
	v.Set("telegram.request_timeout", config.Telegram.RequestTimeout.String())
	v.Set("notification.enabled", config.Notification.Enabled)
	v.Set("notification.method", config.Notification.Method)
	v.Set("notification.admin_chat_ids", config.Notification.AdminChatIDs)
	v.Set("logging.level", config.Logging.Level)
	v.Set("logging.format", config.Logging.Format)
	v.Set("logging.output_path", config.Logging.OutputPath)
	v.Set("logging.logs_dir", config.Logging.LogsDir)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
