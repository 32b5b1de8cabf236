// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

// GlobalScope is the seen-ledger scope for the shared pipeline.
// Per-recipient scopes are the recipient ID in decimal.
const GlobalScope = "global"

// Storage is the interface for all persistence operations.
type Storage interface {
	// Global configuration document.
	GetGlobal(ctx context.Context) (*model.GlobalConfig, error)
	SaveGlobal(ctx context.Context, g *model.GlobalConfig) error

	// Recipient profile documents. GetRecipient returns defaults for
	// an unknown ID; a profile exists in ListRecipients only after its
	// first SaveRecipient.
	GetRecipient(ctx context.Context, id int64) (*model.RecipientProfile, error)
	SaveRecipient(ctx context.Context, p *model.RecipientProfile) error
	ListRecipients(ctx context.Context) ([]model.RecipientProfile, error)

	// Seen-item ledger, partitioned by (scope, kind). MarkSeen is
	// idempotent and evicts oldest entries beyond the ledger cap.
	IsSeen(ctx context.Context, scope string, kind model.SourceKind, itemID string) (bool, error)
	MarkSeen(ctx context.Context, scope string, kind model.SourceKind, itemID string) error

	// Per-recipient digest queue and cadence watermarks.
	EnqueueDigest(ctx context.Context, e *model.DigestEntry) error
	DrainDigest(ctx context.Context, recipientID int64) ([]model.DigestEntry, error)
	PendingDigest(ctx context.Context, recipientID int64) (int, error)
	GetDigestMeta(ctx context.Context, recipientID int64) (*model.DigestMeta, error)
	SaveDigestMeta(ctx context.Context, m *model.DigestMeta) error

	Close() error
}
