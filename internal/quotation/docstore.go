package quotation

import (
	"io"

	"github.com/google/uuid"

	"github.com/sourcedesk/sourcedesk/internal/docstore"
)

type documentStore struct {
	store *docstore.Store
}

// NewDocumentStore adapts the shared document store to the intake port.
func NewDocumentStore(store *docstore.Store) DocumentStore {
	return documentStore{store: store}
}

func (d documentStore) Stage(src io.Reader, rfpDisplayID string, vendorID uuid.UUID, documentName string) (Staged, error) {
	staged, err := d.store.Stage(src, rfpDisplayID, vendorID, documentName)
	if err != nil {
		return nil, err
	}
	return staged, nil
}
