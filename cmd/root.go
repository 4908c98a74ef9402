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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valpere/transcritic/internal/config"
	"github.com/valpere/transcritic/internal/generation"
	"github.com/valpere/transcritic/internal/logger"
	"github.com/valpere/transcritic/internal/orchestrator"
)

var version = "0.1.0"

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "transcritic",
	Short: "Translate text with an LLM and have a second LLM critique it",
	Long: `A CLI application and web form that sends text to a text-generation
service for translation, then asks a judge model to score the translation
from 1 to 10 and explain the score.

The API key is read from MENTORPIECE_API_KEY or TRANSCRITIC_API_KEY, which may
also be placed in a .env file in the working directory.

Use "transcritic serve" to start the web form or "transcritic translate --help"
for one-shot translations.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file")
	pf.StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file with KEY=VALUE settings")

	pf.String(config.FlagName("endpoint"), generation.DefaultEndpoint, "Generation service endpoint")
	pf.Duration(config.FlagName("timeout"), generation.DefaultTimeout, "Timeout for each generation call")
	pf.String(config.FlagName("translator_model"), orchestrator.DefaultTranslatorModel, "Model used for translation")
	pf.String(config.FlagName("judge_model"), orchestrator.DefaultJudgeModel, "Model used for evaluation")
	pf.String(config.FlagName("db"), "", "SQLite database for run history (empty disables history)")
	pf.Bool(config.FlagName("validate_language"), false, "Check that the translation is in the target language")
	pf.String(config.FlagName("log.mod"), string(logger.DevelopmentMod), "Log mode: development or production")
	pf.String(config.FlagName("log.level"), "info", "Log level")
}
