package events

import (
	"github.com/google/uuid"

	"github.com/marco/multiclass/internal/media"
)

// TransferRename fires when the host has computed a destination for a media
// file and is about to finalize it. Handlers may rewrite Path.
const TransferRename Type = "transfer.rename"

// TransferRenameEvent carries the item being transferred and its proposed
// destination. Updated and Source annotate who last rewrote Path.
type TransferRenameEvent struct {
	ID      string
	Item    *media.Item
	Path    string
	Updated bool
	Source  string
}

// NewTransferRename builds an event with a fresh ID.
func NewTransferRename(item *media.Item, path string) *TransferRenameEvent {
	return &TransferRenameEvent{
		ID:   uuid.NewString(),
		Item: item,
		Path: path,
	}
}

// EventType implements Event.
func (e *TransferRenameEvent) EventType() Type {
	return TransferRename
}
