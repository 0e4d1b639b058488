package model

import (
	"context"
	"fmt"

	"github.com/8adimka/chat-gateway/internal/mongox"
)

const collectionName = "conversations"

// Repository writes conversation records to the conversations collection.
type Repository struct {
	manager *mongox.Manager
}

func New(manager *mongox.Manager) *Repository {
	return &Repository{manager: manager}
}

// SaveExchange inserts a single conversation record. Returns
// mongox.ErrNotConnected while the database connection is down; the write is
// never retried here.
func (r *Repository) SaveExchange(ctx context.Context, rec *ConversationRecord) error {
	coll, err := r.manager.Collection(collectionName)
	if err != nil {
		return err
	}

	if _, err := coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert conversation record: %w", err)
	}
	return nil
}
