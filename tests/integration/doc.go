// Package integration provides integration tests that verify validation
// history and cached responses against real backends via testcontainers.
//
// Run with: go test -tags=integration ./tests/integration/...
package integration
