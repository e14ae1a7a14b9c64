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
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <prefix>",
	Short: "Audit a prefix and print the drift report",
	Long: `Queries the registry for active allocations under the prefix,
polls the configured devices for live evidence, and prints a
confidence-scored drift report as JSON. Read-only.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			report, err := app.Service.Reconcile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printJSON(report)
		})
	},
}

var proposeCmd = &cobra.Command{
	Use:   "propose <address>...",
	Short: "Open an approval request for reclaiming addresses",
	Long: `Submits the addresses for human approval and prints the request.
Submitting the same address set again returns the existing pending
request instead of opening a second one.

The printed token must be visible to the later decide and execute
calls: with the default in-process memory store that means the same
process, so CLI workflows spanning invocations need the postgres
store configured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			request, err := app.Service.ProposeReclamation(cmd.Context(), args)
			if err != nil {
				return err
			}

			return printJSON(request)
		})
	},
}

var decideCmd = &cobra.Command{
	Use:   "decide <token>",
	Short: "Approve or reject a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		approve, _ := cmd.Flags().GetBool("approve")
		reject, _ := cmd.Flags().GetBool("reject")

		if approve == reject {
			return errDecisionFlag
		}

		return withApp(cmd, func(app *App) error {
			request, err := app.Service.DecideReclamation(cmd.Context(), args[0], approve)
			if err != nil {
				return err
			}

			return printJSON(request)
		})
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute <token>",
	Short: "Apply an approved request to the registry",
	Long: `Deprecates every address in an approved request and prints the
per-address results. The request ends EXECUTED only when every item
succeeded; otherwise it ends FAILED and the output shows which items
went through.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			results, err := app.Service.ExecuteReclamation(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printJSON(results)
		})
	},
}

var abandonCmd = &cobra.Command{
	Use:   "abandon <token>",
	Short: "Drop a request that has not been executed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.Service.AbandonReclamation(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Println("abandoned", args[0])

			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the registry server version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(app *App) error {
			version, err := app.Service.RegistryVersion(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(version)

			return nil
		})
	},
}

var errDecisionFlag = fmt.Errorf("pass exactly one of --approve or --reject")

func init() {
	decideCmd.Flags().Bool("approve", false, "approve the request")
	decideCmd.Flags().Bool("reject", false, "reject the request")

	rootCmd.AddCommand(reconcileCmd, proposeCmd, decideCmd, executeCmd, abandonCmd, versionCmd)
}

// withApp builds the app for one command, runs fn with a
// signal-cancelled context, and tears the app down afterwards.
func withApp(cmd *cobra.Command, fn func(*App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SetContext(ctx)

	app, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
