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

// Package cli holds the netreclaim command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "netreclaim",
	Short: "IP allocation drift detection and reclamation",
	Long: `netreclaim audits a NetBox prefix against live network evidence
(ARP tables and interface state gathered over SSH or SNMP), reports
allocations that no longer appear on the network, and reclaims them
through an explicit approval gate.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute runs the command tree. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (JSON)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("netbox-url", "", "NetBox base URL (overrides config and NETBOX_URL)")
	rootCmd.PersistentFlags().String("netbox-token", "", "NetBox API token (overrides config and NETBOX_TOKEN)")
}

// initEnv binds the environment variables commands read through viper.
// Credentials belong in the environment, not on the command line.
func initEnv() {
	viper.AutomaticEnv()

	_ = viper.BindEnv("netbox_url", "NETBOX_URL")
	_ = viper.BindEnv("netbox_token", "NETBOX_TOKEN")

	if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
		viper.Set("log_level", level)
	}

	if url, _ := rootCmd.PersistentFlags().GetString("netbox-url"); url != "" {
		viper.Set("netbox_url", url)
	}

	if token, _ := rootCmd.PersistentFlags().GetString("netbox-token"); token != "" {
		viper.Set("netbox_token", token)
	}
}
