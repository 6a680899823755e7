// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authgate/internal/store"
)

// Migrator is the part of store.Migrator the migrate commands use.
type Migrator interface {
	Up() error
	Down() error
	Status() (store.Status, error)
	Close() error
}

// MigratorFactory opens a Migrator for a database URL.
type MigratorFactory func(databaseURL string) (Migrator, error)

func defaultMigratorFactory(databaseURL string) (Migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate command group. A nil factory uses
// store.NewMigrator.
func NewMigrateCmd(load configLoader, factory MigratorFactory) *cobra.Command {
	if factory == nil {
		factory = defaultMigratorFactory
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long:  `Apply, roll back or inspect the principals and user_sessions schema.`,
	}

	withMigrator := func(fn func(*cobra.Command, Migrator) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, _ []string) (err error) {
			cfg, err := load(c)
			if err != nil {
				return err
			}
			if cfg.Store.DatabaseURL == "" {
				return oops.Code("CONFIG_INVALID").
					With("key", "store.database_url").
					Errorf("store.database_url or DATABASE_URL is required")
			}
			m, err := factory(cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := m.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()
			return fn(c, m)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withMigrator(func(c *cobra.Command, m Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			c.Println("Migrations applied")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: withMigrator(func(c *cobra.Command, m Migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			c.Println("Migrations rolled back")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schema version and pending migrations",
		RunE: withMigrator(func(c *cobra.Command, m Migrator) error {
			st, err := m.Status()
			if err != nil {
				return err
			}
			c.Printf("Current version: %d\n", st.Current)
			if st.Dirty {
				c.Println("Dirty: yes (a migration failed part way; fix the schema and re-run)")
			}
			c.Printf("Applied: %s\n", formatVersions(st.Applied))
			c.Printf("Pending: %s\n", formatVersions(st.Pending))
			return nil
		}),
	})

	return cmd
}

func formatVersions(versions []uint) string {
	if len(versions) == 0 {
		return "none"
	}
	return strings.Join(lo.Map(versions, func(v uint, _ int) string {
		return strconv.FormatUint(uint64(v), 10)
	}), ", ")
}
