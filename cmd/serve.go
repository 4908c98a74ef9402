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
	"github.com/spf13/cobra"

	"github.com/valpere/transcritic/internal/config"
	"github.com/valpere/transcritic/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the translation form over HTTP",
	Long: `Start the web form. GET / shows the form, POST / translates the submitted
text and shows the translation with its evaluation. GET /healthz reports
liveness.

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		return web.Serve(cmd.Context(), web.Config{
			Addr:           a.cfg.Addr,
			RequestTimeout: a.cfg.API.Timeout,
		}, a.orch, a.log.Named("web"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String(config.FlagName("addr"), config.DefaultAddr, "Listen address")
}
