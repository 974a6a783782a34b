// Package testutil provides common test utilities and assertions for SDK tests
package testutil

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

// AssertCapabilities fails the test with a readable tree diff when the two
// capability trees differ. Nil and empty trees compare equal.
func AssertCapabilities(t *testing.T, expected, actual entities.Capabilities, msgAndArgs ...interface{}) {
	t.Helper()
	if diff := cmp.Diff(expected, actual, cmpopts.EquateEmpty()); diff != "" {
		assert.Fail(t, "capability trees differ (-want +got):\n"+diff, msgAndArgs...)
	}
}

// AssertPaths asserts that the tree contains exactly the given dotted paths
// and their ancestors.
func AssertPaths(t *testing.T, actual entities.Capabilities, paths ...string) {
	t.Helper()
	AssertCapabilities(t, entities.CapabilitiesFromPaths(paths...), actual)
}

// AssertSupports asserts that each dotted path is present in the tree.
func AssertSupports(t *testing.T, tree entities.Capabilities, paths ...string) {
	t.Helper()
	for _, p := range paths {
		assert.True(t, tree.Has(strings.Split(p, ".")...), "capability tree should contain %q", p)
	}
}

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}

// RequireErrorAs asserts that err matches the target type and returns it.
func RequireErrorAs[E error](t *testing.T, err error) E {
	t.Helper()
	var target E
	require.Error(t, err)
	require.True(t, errors.As(err, &target), "expected %T, got %T: %v", target, err, err)
	return target
}

// RequireClosed waits for ch to be closed or fails after timeout.
func RequireClosed(t *testing.T, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...interface{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		require.Fail(t, "channel was not closed in time", msgAndArgs...)
	}
}

// RequireOpen asserts that ch is not closed yet.
func RequireOpen(t *testing.T, ch <-chan struct{}, msgAndArgs ...interface{}) {
	t.Helper()
	select {
	case <-ch:
		require.Fail(t, "channel should still be open", msgAndArgs...)
	default:
	}
}
