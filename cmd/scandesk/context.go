package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mmcdole/scandesk/internal/adapter"
	"github.com/mmcdole/scandesk/internal/scanserver"
	"github.com/mmcdole/scandesk/internal/service"
	"github.com/mmcdole/scandesk/internal/store"
)

type commandContext struct {
	configFlag *string
	serverFlag *string

	configOnce sync.Once
	config     *adapter.Config
	configErr  error

	logger    *slog.Logger
	logCloser io.Closer
}

func newCommandContext(configFlag, serverFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
		logger:     adapter.NullLogger(),
	}
}

func (c *commandContext) ensureConfig() (*adapter.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := adapter.LoadConfig(path)
		if err != nil {
			c.configErr = fmt.Errorf("failed to load config: %w", err)
			return
		}
		if c.serverFlag != nil && strings.TrimSpace(*c.serverFlag) != "" {
			cfg.Server.URL = strings.TrimSpace(*c.serverFlag)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}

		logger, closer, err := adapter.SetupLogger(cfg.Logging)
		if err != nil {
			// Fall back to null logger if file logging fails
			logger = adapter.NullLogger()
		} else {
			c.logCloser = closer
		}
		slog.SetDefault(logger)
		c.logger = logger
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) close() {
	if c.logCloser != nil {
		c.logCloser.Close()
		c.logCloser = nil
	}
}

// app bundles the components every photo command works against
type app struct {
	cfg     *adapter.Config
	logger  *slog.Logger
	client  *scanserver.Client
	channel *scanserver.Channel
	store   *store.PhotoStore
	engine  *service.SyncEngine
}

// openApp wires the cache, REST client, push channel and engine for the
// configured server. The push channel is not started.
func (c *commandContext) openApp(opts ...service.EngineOption) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger

	st, err := store.NewPhotoStore(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		return nil, fmt.Errorf("open photo cache: %w", err)
	}

	client := scanserver.NewClient(cfg.Server.URL, cfg.Server.Timeout, logger)
	channel, err := scanserver.NewChannel(cfg.Server.URL, scanserver.ChannelOptions{
		EventsPath:     cfg.Server.EventsPath,
		ReconnectDelay: cfg.Channel.ReconnectDelay,
		PingPeriod:     cfg.Channel.PingPeriod,
	}, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	engineOpts := []service.EngineOption{
		service.WithLogger(logger),
		service.WithNotificationTTL(cfg.Notifications.TTL),
		service.WithLanguage(cfg.UI.Language),
		service.WithRenameRollback(cfg.Sync.RenameRollback),
	}
	engine := service.NewSyncEngine(client, st, channel, append(engineOpts, opts...)...)

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		channel: channel,
		store:   st,
		engine:  engine,
	}, nil
}

// startChannel follows push events until ctx is cancelled
func (a *app) startChannel(ctx context.Context) {
	go func() {
		if err := a.channel.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("push channel stopped", "error", err)
		}
	}()
}

func (a *app) Close() {
	a.engine.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close photo cache", "error", err)
	}
}

// withApp opens the app for the duration of fn
func (c *commandContext) withApp(fn func(*app) error) error {
	a, err := c.openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
