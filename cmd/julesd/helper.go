package main

import (
	"context"
	"fmt"

	"github.com/robertpelloni/jules-app/internal/config"
	apperrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/jules"
	"github.com/robertpelloni/jules-app/internal/keeper"
	"github.com/robertpelloni/jules-app/internal/notify"
	"github.com/robertpelloni/jules-app/internal/store"
)

func buildJulesClient() (*jules.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	if cfg.Jules.APIKey == "" {
		return nil, apperrors.Configuration("Jules API key not set (JULES_API_KEY or jules.api_key)")
	}

	timeout, err := config.DurationOrDefault(cfg.Jules.RequestTimeout, config.DefaultJulesRequestTimeout)
	if err != nil {
		return nil, err
	}

	return jules.NewClient(cfg.Jules.APIKey,
		jules.WithBaseURL(cfg.Jules.BaseURL),
		jules.WithTimeout(timeout),
	), nil
}

func openStore() (*store.Store, error) {
	lockTimeout, err := config.DurationOrDefault(cfg.Store.LockTimeout, config.DefaultStoreLockTimeout)
	if err != nil {
		return nil, err
	}
	lockRetry, err := config.DurationOrDefault(cfg.Store.LockRetry, config.DefaultStoreLockRetry)
	if err != nil {
		return nil, err
	}
	lockMaxRetry := cfg.Store.LockMaxRetry
	if lockMaxRetry <= 0 {
		lockMaxRetry = config.DefaultStoreLockMaxRetry
	}

	return store.Open(cfg.Store.BasePath, &store.FileLockConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: lockMaxRetry,
	})
}

func buildNotifiers() *notify.Manager {
	var notifiers []notify.Notifier
	if cfg.Notify.Slack.Enabled {
		notifiers = append(notifiers, notify.NewSlack(cfg.Notify.Slack.BotToken, cfg.Notify.Slack.Channel))
	}
	if cfg.Notify.Telegram.Enabled {
		notifiers = append(notifiers, notify.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID))
	}
	return notify.NewManager(notifiers...)
}

// journalSink persists every journal entry and fans action/error entries out
// to the notifiers.
type journalSink struct {
	store   *store.Store
	manager *notify.Manager
}

func (s *journalSink) AppendLog(entry keeper.Entry) error {
	if s.manager != nil {
		s.manager.Notify(context.Background(), entry)
	}
	if s.store == nil {
		return nil
	}
	return s.store.AppendLog(entry)
}
