//go:build tools

// Package tools pins development-tool dependencies that no regular
// package imports, so go mod tidy does not drop them. Run mockery
// (an installed binary, no import needed) from the repo root to
// regenerate the mocks under pkg/discovery/mocks, then goimports to
// format them.
package tools

import _ "golang.org/x/tools/imports"
