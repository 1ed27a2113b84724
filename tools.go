//go:build tools

package tools

// mockery is used as an installed binary (not via go run), so no
// blank import is needed here to pin it. pkg/log/mocks/mock_Logger.go
// is checked in generated output; regenerate with: mockery
