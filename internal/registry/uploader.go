package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/todmy/doc-checker/pkg/models"
)

// ErrNoFiles is returned when an upload carries no files.
var ErrNoFiles = eris.New("registry: no files to upload")

const uploadedCollectionName = "Nahraté dokumenty"

// RemoteFiles is the remote side of an upload
type RemoteFiles interface {
	CreateVectorStore(ctx context.Context, name string) (string, error)
	UploadFile(ctx context.Context, name string, content []byte) (string, error)
	AttachFile(ctx context.Context, vectorStoreID, fileID string) error
}

// File is one file received for upload
type File struct {
	Name    string
	Content []byte
}

// UploadedDocument reports the outcome for one file
type UploadedDocument struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	Status models.DocumentStatus `json:"status"`
}

// UploadSummary is returned after every file has been processed
type UploadSummary struct {
	CollectionID string             `json:"storeId"`
	Message      string             `json:"message"`
	Documents    []UploadedDocument `json:"documents"`
}

// Uploader moves files through uploading, processing and ready.
type Uploader struct {
	store  Store
	remote RemoteFiles
	now    func() time.Time
}

// NewUploader creates an Uploader
func NewUploader(store Store, remote RemoteFiles) *Uploader {
	return &Uploader{store: store, remote: remote, now: time.Now}
}

// Upload adds files to collectionID, or to a new collection backed by a new
// remote vector store when collectionID is empty. A failing file is marked
// as error and the remaining files are still processed.
func (u *Uploader) Upload(ctx context.Context, collectionID string, files []File) (*UploadSummary, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	if collectionID == "" {
		c, err := u.createCollection(ctx)
		if err != nil {
			return nil, err
		}
		collectionID = c.ID
	}

	target, err := u.store.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	summary := &UploadSummary{CollectionID: target.ID}
	ready := 0
	for _, f := range files {
		doc, err := u.uploadOne(ctx, target, f)
		if err != nil {
			return nil, err
		}
		if doc.Status == models.DocumentReady {
			ready++
		}
		summary.Documents = append(summary.Documents, doc)
	}

	summary.Message = fmt.Sprintf("Nahraných %d z %d súborov", ready, len(files))
	return summary, nil
}

func (u *Uploader) createCollection(ctx context.Context) (*models.Collection, error) {
	date := u.now().Format("2. 1. 2006")

	vsID, err := u.remote.CreateVectorStore(ctx, uploadedCollectionName+" - "+date)
	if err != nil {
		return nil, eris.Wrap(err, "registry: create vector store")
	}

	c := &models.Collection{
		Name:          uploadedCollectionName,
		Description:   "Dokumenty nahrané " + date,
		VectorStoreID: vsID,
		Documents:     []models.Document{},
		Enabled:       true,
	}
	if err := u.store.AddCollection(ctx, c); err != nil {
		return nil, err
	}

	zap.L().Info("collection created", zap.String("collection_id", c.ID), zap.String("vector_store_id", vsID))
	return c, nil
}

// uploadOne only returns an error when the registry itself fails; remote
// failures are recorded on the document.
func (u *Uploader) uploadOne(ctx context.Context, target *models.Collection, f File) (UploadedDocument, error) {
	doc := &models.Document{
		Name:       f.Name,
		Size:       int64(len(f.Content)),
		UploadedAt: u.now().UTC(),
		Status:     models.DocumentUploading,
		Enabled:    true,
	}
	if err := u.store.AddDocument(ctx, target.ID, doc); err != nil {
		return UploadedDocument{}, err
	}

	logger := zap.L().With(zap.String("collection_id", target.ID), zap.String("document", f.Name))
	out := UploadedDocument{ID: doc.ID, Name: doc.Name}

	fileID, err := u.remote.UploadFile(ctx, f.Name, f.Content)
	if err == nil {
		if err = u.store.UpdateDocumentStatus(ctx, target.ID, doc.ID, models.DocumentProcessing, fileID); err != nil {
			return UploadedDocument{}, err
		}
		err = u.remote.AttachFile(ctx, target.VectorStoreID, fileID)
	}

	if err != nil {
		logger.Warn("upload failed", zap.Error(err))
		out.Status = models.DocumentError
		return out, u.store.UpdateDocumentStatus(ctx, target.ID, doc.ID, models.DocumentError, "")
	}

	if err := u.store.UpdateDocumentStatus(ctx, target.ID, doc.ID, models.DocumentReady, fileID); err != nil {
		return UploadedDocument{}, err
	}
	logger.Info("document ready", zap.String("file_id", fileID))
	out.Status = models.DocumentReady
	return out, nil
}
