// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authgate/pkg/errutil"
)

type fakeRunner struct {
	upErr, downErr       error
	version              uint
	dirty                bool
	versionErr           error
	closeSrc, closeDBErr error
}

func (f *fakeRunner) Up() error                    { return f.upErr }
func (f *fakeRunner) Down() error                  { return f.downErr }
func (f *fakeRunner) Version() (uint, bool, error) { return f.version, f.dirty, f.versionErr }
func (f *fakeRunner) Close() (error, error)        { return f.closeSrc, f.closeDBErr }

func newTestMigrator(r *fakeRunner) *Migrator {
	return &Migrator{runner: r, versions: []uint{1, 2}}
}

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/authgate")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestNewMigrator_PostgresqlSchemeRecognized(t *testing.T) {
	_, err := NewMigrator("postgresql://localhost:1/authgate?connect_timeout=1")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
	assert.NotContains(t, err.Error(), "unknown driver")
}

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u@h/db", pgx5URL("postgres://u@h/db"))
	assert.Equal(t, "pgx5://u@h/db", pgx5URL("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://u@h/db", pgx5URL("pgx5://u@h/db"))
}

func TestMigrator_UpDown(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		run     func(*Migrator) error
		errCode string
	}{
		{name: "up", runner: &fakeRunner{}, run: (*Migrator).Up},
		{name: "up no change", runner: &fakeRunner{upErr: migrate.ErrNoChange}, run: (*Migrator).Up},
		{name: "up error", runner: &fakeRunner{upErr: errors.New("boom")}, run: (*Migrator).Up, errCode: "MIGRATION_UP_FAILED"},
		{name: "down", runner: &fakeRunner{}, run: (*Migrator).Down},
		{name: "down no change", runner: &fakeRunner{downErr: migrate.ErrNoChange}, run: (*Migrator).Down},
		{name: "down error", runner: &fakeRunner{downErr: errors.New("boom")}, run: (*Migrator).Down, errCode: "MIGRATION_DOWN_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(newTestMigrator(tt.runner))
			if tt.errCode == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, tt.errCode)
		})
	}
}

func TestMigrator_Status(t *testing.T) {
	t.Run("fresh database", func(t *testing.T) {
		s, err := newTestMigrator(&fakeRunner{versionErr: migrate.ErrNilVersion}).Status()
		require.NoError(t, err)
		assert.Zero(t, s.Current)
		assert.Empty(t, s.Applied)
		assert.Equal(t, []uint{1, 2}, s.Pending)
	})

	t.Run("partially applied and dirty", func(t *testing.T) {
		s, err := newTestMigrator(&fakeRunner{version: 1, dirty: true}).Status()
		require.NoError(t, err)
		assert.True(t, s.Dirty)
		assert.Equal(t, []uint{1}, s.Applied)
		assert.Equal(t, []uint{2}, s.Pending)
	})

	t.Run("version error", func(t *testing.T) {
		_, err := newTestMigrator(&fakeRunner{versionErr: errors.New("down")}).Status()
		errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
	})
}

func TestMigrator_Close(t *testing.T) {
	require.NoError(t, newTestMigrator(&fakeRunner{}).Close())

	err := newTestMigrator(&fakeRunner{closeSrc: errors.New("src"), closeDBErr: errors.New("db")}).Close()
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	assert.Contains(t, err.Error(), "src")
	assert.Contains(t, err.Error(), "db")
}

func TestMigrationVersions(t *testing.T) {
	versions, err := migrationVersions(migrationsFS)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, versions)

	_, err = migrationVersions(fstest.MapFS{"migrations/initial.up.sql": {}})
	errutil.AssertErrorCode(t, err, "MIGRATION_NAME_INVALID")

	_, err = migrationVersions(fstest.MapFS{})
	errutil.AssertErrorCode(t, err, "MIGRATION_LIST_FAILED")
}

func TestMigrationsFS_Naming(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	ups, downs := 0, 0
	for _, entry := range entries {
		assert.Regexp(t, pattern, entry.Name())
		if regexp.MustCompile(`\.up\.sql$`).MatchString(entry.Name()) {
			ups++
		} else {
			downs++
		}
	}
	assert.Equal(t, ups, downs, "every migration has a down file")
}
