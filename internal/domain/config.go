package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Dedup        DedupConfig        `mapstructure:"dedup"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DedupConfig contains duplicate detection configuration
type DedupConfig struct {
	RetentionWindow time.Duration `mapstructure:"retention_window"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	MonitoredGroups []string      `mapstructure:"monitored_groups"`
	MonitorAll      bool          `mapstructure:"monitor_all"`    // ignore the allow-list
	HashAlgorithm   string        `mapstructure:"hash_algorithm"` // md5, xxhash
	DryRun          bool          `mapstructure:"dry_run"`        // log deletions instead of performing them
}

// StorageConfig contains snapshot persistence configuration
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // json, sqlite
	Path   string `mapstructure:"path"`
}

// TelegramConfig contains Telegram Bot API configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	APIURL         string        `mapstructure:"api_url"`
	Polling        bool          `mapstructure:"polling"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// NotificationConfig contains admin alert configuration
type NotificationConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Method       string  `mapstructure:"method"` // telegram, log
	AdminChatIDs []int64 `mapstructure:"admin_chat_ids"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // category event logs, disabled when empty
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Dedup: DedupConfig{
			RetentionWindow: 24 * time.Hour,
			SweepInterval:   time.Hour,
			MonitoredGroups: []string{},
			MonitorAll:      false,
			HashAlgorithm:   "md5",
			DryRun:          false,
		},
		Storage: StorageConfig{
			Driver: "json",
			Path:   "$HOME/.dupe-guard/duplicate_cache.json",
		},
		Telegram: TelegramConfig{
			BotToken:       "",
			APIURL:         "https://api.telegram.org",
			Polling:        true,
			PollTimeout:    30 * time.Second,
			RequestTimeout: 45 * time.Second,
		},
		Notification: NotificationConfig{
			Enabled:      true,
			Method:       "log",
			AdminChatIDs: []int64{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/.dupe-guard/logs",
		},
	}
}
