// Package gateways defines contracts for infrastructure adapters.
package gateways

import (
	"context"

	"github.com/ochairo/attestgate/internal/domain/entities"
)

// ChangeSource yields the (status, path) pairs describing the files changed
// between two revisions. Implementations may diff a local repository or parse
// pre-computed name-status output.
type ChangeSource interface {
	Changes(ctx context.Context) ([]entities.TouchedFile, error)
}
