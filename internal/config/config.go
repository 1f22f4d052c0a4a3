package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	LogLevel string       `koanf:"log_level"`
	Jules    JulesConfig  `koanf:"jules"`
	Keeper   KeeperConfig `koanf:"keeper"`
	Debate   DebateConfig `koanf:"debate"`
	Review   ReviewConfig `koanf:"review"`
	Store    StoreConfig  `koanf:"store"`
	Notify   NotifyConfig `koanf:"notify"`
}

type JulesConfig struct {
	APIKey         string `koanf:"api_key"`
	BaseURL        string `koanf:"base_url"`
	RequestTimeout string `koanf:"request_timeout"`
}

// KeeperConfig mirrors the persisted supervisor blob for bootstrapping; the
// durable copy in the store wins once one exists.
type KeeperConfig struct {
	Enabled                    bool                `koanf:"enabled"`
	AutoSwitch                 bool                `koanf:"auto_switch"`
	AutoResume                 bool                `koanf:"auto_resume"`
	CheckIntervalSeconds       int                 `koanf:"check_interval_seconds"`
	CheckSchedule              string              `koanf:"check_schedule"`
	InactivityThresholdMinutes float64             `koanf:"inactivity_threshold_minutes"`
	ActiveWorkThresholdMinutes float64             `koanf:"active_work_threshold_minutes"`
	Messages                   []string            `koanf:"messages"`
	CustomMessages             map[string][]string `koanf:"custom_messages"`
	ArchivedSessions           []string            `koanf:"archived_sessions"`
	Smart                      SmartConfig         `koanf:"smart"`
}

type SmartConfig struct {
	Enabled             bool   `koanf:"enabled"`
	Provider            string `koanf:"provider"`
	APIKey              string `koanf:"api_key"`
	Model               string `koanf:"model"`
	ContextMessageCount int    `koanf:"context_message_count"`
}

type DebateConfig struct {
	Rounds       int                 `koanf:"rounds"`
	Participants []ParticipantConfig `koanf:"participants"`
}

type ParticipantConfig struct {
	ID           string `koanf:"id"`
	Name         string `koanf:"name"`
	Role         string `koanf:"role"`
	Provider     string `koanf:"provider"`
	Model        string `koanf:"model"`
	APIKey       string `koanf:"api_key"`
	Instructions string `koanf:"instructions"`
}

type ReviewConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
}

type StoreConfig struct {
	BasePath     string `koanf:"base_path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

type NotifyConfig struct {
	Slack    SlackConfig    `koanf:"slack"`
	Telegram TelegramConfig `koanf:"telegram"`
}

type SlackConfig struct {
	Enabled  bool   `koanf:"enabled"`
	BotToken string `koanf:"bot_token"`
	Channel  string `koanf:"channel"`
}

type TelegramConfig struct {
	Enabled  bool   `koanf:"enabled"`
	BotToken string `koanf:"bot_token"`
	ChatID   int64  `koanf:"chat_id"`
}

const (
	DefaultLogLevel = "info"

	DefaultJulesBaseURL        = "https://jules.googleapis.com/v1"
	DefaultJulesRequestTimeout = "30s"

	DefaultKeeperCheckIntervalSeconds = 30
	MinKeeperCheckIntervalSeconds     = 10
	DefaultInactivityThresholdMinutes = 1
	DefaultActiveWorkThresholdMinutes = 30
	DefaultSmartProvider              = "openai"
	DefaultSmartContextMessageCount   = 20

	DefaultDebateRounds = 1

	DefaultReviewProvider = "openai"

	DefaultStoreLockTimeout  = "30s"
	DefaultStoreLockRetry    = "100ms"
	DefaultStoreLockMaxRetry = 300

	DefaultTelegramUpdateTimeout = 60
)

// DefaultKeeperMessages is the stock encouragement pool used when a session
// idles and no custom pool is configured.
var DefaultKeeperMessages = []string{
	"Great! Please keep going as you advise!",
	"Yes! Please continue to proceed as you recommend!",
	"This looks correct. Please proceed.",
	"Excellent plan. Go ahead.",
	"Looks good to me. Continue.",
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"log_level":                            DefaultLogLevel,
		"jules.base_url":                       DefaultJulesBaseURL,
		"jules.request_timeout":                DefaultJulesRequestTimeout,
		"keeper.check_interval_seconds":        DefaultKeeperCheckIntervalSeconds,
		"keeper.inactivity_threshold_minutes":  DefaultInactivityThresholdMinutes,
		"keeper.active_work_threshold_minutes": DefaultActiveWorkThresholdMinutes,
		"keeper.auto_switch":                   true,
		"keeper.messages":                      DefaultKeeperMessages,
		"keeper.smart.provider":                DefaultSmartProvider,
		"keeper.smart.context_message_count":   DefaultSmartContextMessageCount,
		"debate.rounds":                        DefaultDebateRounds,
		"review.provider":                      DefaultReviewProvider,
		"store.base_path":                      filepath.Join(os.Getenv("HOME"), ".jules-app", "keeper"),
		"store.lock_timeout":                   DefaultStoreLockTimeout,
		"store.lock_retry":                     DefaultStoreLockRetry,
		"store.lock_max_retry":                 DefaultStoreLockMaxRetry,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".jules-app", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("JULES_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "JULES_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if cfg.Keeper.CheckIntervalSeconds < MinKeeperCheckIntervalSeconds {
		cfg.Keeper.CheckIntervalSeconds = MinKeeperCheckIntervalSeconds
	}

	// Post-Process: Inject standard Env Vars if missing
	if key := os.Getenv("JULES_API_KEY"); key != "" && cfg.Jules.APIKey == "" {
		cfg.Jules.APIKey = key
	}
	injectProviderKey := func(provider, envVar string) {
		key := os.Getenv(envVar)
		if key == "" {
			return
		}
		if cfg.Keeper.Smart.Provider == provider && cfg.Keeper.Smart.APIKey == "" {
			cfg.Keeper.Smart.APIKey = key
		}
		if cfg.Review.Provider == provider && cfg.Review.APIKey == "" {
			cfg.Review.APIKey = key
		}
		for i, p := range cfg.Debate.Participants {
			if p.Provider == provider && p.APIKey == "" {
				cfg.Debate.Participants[i].APIKey = key
			}
		}
	}
	injectProviderKey("openai", "OPENAI_API_KEY")
	injectProviderKey("anthropic", "ANTHROPIC_API_KEY")
	injectProviderKey("gemini", "GEMINI_API_KEY")
	injectProviderKey("qwen", "DASHSCOPE_API_KEY")

	return &cfg, nil
}
