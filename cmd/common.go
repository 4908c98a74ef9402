/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/transcritic/internal/config"
	"github.com/valpere/transcritic/internal/generation"
	"github.com/valpere/transcritic/internal/logger"
	"github.com/valpere/transcritic/internal/markdown"
	"github.com/valpere/transcritic/internal/orchestrator"
	"github.com/valpere/transcritic/internal/store"
	"github.com/valpere/transcritic/internal/validator"
)

// app holds everything a command needs; close releases the history database.
type app struct {
	cfg  *config.Config
	log  *zap.Logger
	orch *orchestrator.Orchestrator
	db   *store.Store
}

func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewFromConfig(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newApp builds the pipeline from configuration. The history database is
// opened only when a path is configured.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	client := generation.NewClient(cfg.API, log.Named("generation"))
	if !client.HasCredential() {
		log.Warn("API key is not set; every request will fail until MENTORPIECE_API_KEY is configured")
	}

	a := &app{cfg: cfg, log: log}

	orchCfg := orchestrator.OrchestratorConfig{
		TranslatorModel: cfg.TranslatorModel,
		JudgeModel:      cfg.JudgeModel,
	}
	if cfg.ValidateLanguage {
		orchCfg.Checker = validator.New()
	}
	if cfg.HistoryEnabled() {
		a.db, err = store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		orchCfg.Recorder = a.db
	}

	a.orch = orchestrator.New(client, markdown.NewRenderer(), orchCfg, log.Named("pipeline"))
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// openHistory opens the configured history database for the history commands.
func openHistory(cmd *cobra.Command) (*store.Store, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if !cfg.HistoryEnabled() {
		return nil, fmt.Errorf("history is disabled: set --db or TRANSCRITIC_DB")
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
