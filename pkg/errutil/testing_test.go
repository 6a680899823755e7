// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/authgate/pkg/errutil"
)

func TestAssertErrorCode_Wrapped(t *testing.T) {
	inner := oops.Code("SESSION_DELETE_FAILED").Errorf("disk full")
	errutil.AssertErrorCode(t, oops.Wrap(inner), "SESSION_DELETE_FAILED")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("principal_id", "01J0").Errorf("lookup failed")
	errutil.AssertErrorContext(t, err, "principal_id", "01J0")
}
