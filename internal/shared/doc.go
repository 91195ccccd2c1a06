// Package shared holds helpers used by more than one package's tests.
//
// testutil captures slog output so tests can assert on what was logged
// (a fallback warning, a dropped-row debug line) without parsing JSON.
package shared
