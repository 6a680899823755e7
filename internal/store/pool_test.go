// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/holomush/authgate/internal/store"
	"github.com/holomush/authgate/pkg/errutil"
)

func TestConnect_InvalidDSN(t *testing.T) {
	_, err := store.Connect(context.Background(), "::not a dsn::", store.ConnectOptions{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
}

func TestConnect_GivesUpAfterAttempts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := store.Connect(ctx, "postgres://nobody@127.0.0.1:1/none?connect_timeout=1", store.ConnectOptions{
		Attempts:  2,
		BaseDelay: time.Millisecond,
		MaxDelay:  time.Millisecond,
	})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
	errutil.AssertErrorContext(t, err, "attempts", 2)
}
