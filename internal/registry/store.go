// Package registry keeps the document collections available to the
// workflow and manages the upload lifecycle of new documents.
package registry

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/todmy/doc-checker/pkg/models"
)

// ErrNotFound is returned when a collection or document does not exist.
var ErrNotFound = eris.New("registry: not found")

// Store defines the collection and document operations
type Store interface {
	List(ctx context.Context) ([]models.Collection, error)
	Get(ctx context.Context, collectionID string) (*models.Collection, error)
	EnabledVectorStoreIDs(ctx context.Context) ([]string, error)

	AddCollection(ctx context.Context, c *models.Collection) error
	AddDocument(ctx context.Context, collectionID string, doc *models.Document) error
	UpdateDocumentStatus(ctx context.Context, collectionID, docID string, status models.DocumentStatus, remoteFileID string) error

	ToggleCollection(ctx context.Context, collectionID string) error
	ToggleDocument(ctx context.Context, collectionID, docID string) error

	RemoveDocument(ctx context.Context, collectionID, docID string) error
	RemoveCollection(ctx context.Context, collectionID string) error
}
