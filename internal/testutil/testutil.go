// Package testutil provides test helpers for pokesag tests.
//
// The package is organized into focused files:
//   - assert.go: assertion helpers (MustNoErr, AssertStrings, etc.)
//   - store_helpers.go: database test setup (NewTestStore, SeedPages)
//   - builders.go: message builders and the shared page fixture
package testutil
