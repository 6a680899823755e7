// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/authgate/internal/config"
	"github.com/holomush/authgate/internal/xdg"
)

// NewRootCmd creates the root command for the authgate CLI.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "authgate",
		Short: "authgate - pluggable HTTP authentication service",
		Long: `authgate authenticates API requests with a configurable strategy
(none, basic, session, session_exp or session_db) and serves account
registration, login and password reset endpoints.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file path (default $XDG_CONFIG_HOME/authgate/config.yaml when present)")
	config.RegisterFlags(cmd.PersistentFlags())

	load := func(c *cobra.Command) (*config.Config, error) {
		path := configFile
		if path == "" {
			path = xdg.DefaultConfigFile()
		}
		return config.Load(path, c.Flags())
	}

	cmd.AddCommand(NewServeCmd(load, nil))
	cmd.AddCommand(NewMigrateCmd(load, nil))
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}

// configLoader resolves the effective configuration for a command.
type configLoader func(cmd *cobra.Command) (*config.Config, error)
