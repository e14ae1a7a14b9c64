/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/carverauto/netreclaim/pkg/approval"
	"github.com/carverauto/netreclaim/pkg/config"
	"github.com/carverauto/netreclaim/pkg/core"
	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/netbox"
	"github.com/carverauto/netreclaim/pkg/probe"
	"github.com/carverauto/netreclaim/pkg/reconcile"
)

var errLoadConfigFailed = fmt.Errorf("failed to load config")

// App wires configuration into a runnable service and owns the
// resources that need closing when a command finishes.
type App struct {
	Service *core.Service
	Logger  logger.Logger

	store approval.Store
}

// newApp loads the config file, applies environment overrides, and
// assembles the service graph.
func newApp(ctx context.Context, configPath string) (*App, error) {
	var cfg Config

	if configPath != "" {
		if err := config.LoadAndValidate(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", errLoadConfigFailed, err)
		}
	}

	// Environment wins over the file so tokens can stay out of it.
	if url := viper.GetString("netbox_url"); url != "" {
		cfg.Netbox.URL = url
	}

	if token := viper.GetString("netbox_token"); token != "" {
		cfg.Netbox.Token = token
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	if level := viper.GetString("log_level"); level != "" {
		logConfig.Level = level
	}

	appLogger, err := logger.NewWithComponent(logConfig, "netreclaim")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	registry, err := netbox.NewClient(&netbox.Config{
		URL:      cfg.Netbox.URL,
		Token:    cfg.Netbox.Token,
		Timeout:  cfg.Netbox.Timeout.AsDuration(),
		RetryMax: cfg.Netbox.RetryMax,
	}, appLogger)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, &cfg.Approvals)
	if err != nil {
		return nil, err
	}

	gatherer := probe.NewDefaultGatherer(cfg.probeConcurrency(), cfg.deviceTimeout(), appLogger)
	gate := approval.NewGate(store, appLogger)
	executor := core.NewExecutor(registry, cfg.executorConcurrency(), appLogger)

	service := core.NewService(
		registry,
		gatherer,
		cfg.probeDevices(),
		gate,
		executor,
		reconcile.NewBuilder(nil),
		appLogger,
	)

	return &App{
		Service: service,
		Logger:  appLogger,
		store:   store,
	}, nil
}

func newStore(ctx context.Context, cfg *ApprovalsConfig) (approval.Store, error) {
	if cfg.Store == StorePostgres {
		return approval.NewPostgresStore(ctx, cfg.PostgresDSN)
	}

	return approval.NewMemoryStore(), nil
}

// Close releases the approval store. Safe on a partially built app.
func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
}
