package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todmy/doc-checker/pkg/models"
)

func openSeeded(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, Seed(ctx, s, DefaultCollections()))
	return s
}

func TestSeed_DefaultCollections(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	cols, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "vs-1", cols[0].ID)
	assert.Equal(t, "Projektová dokumentácia", cols[0].Name)
	assert.True(t, cols[0].IsDefault)
	require.Len(t, cols[0].Documents, 1)
	assert.Equal(t, "doc-1-default", cols[0].Documents[0].ID)
	assert.Equal(t, models.DocumentReady, cols[0].Documents[0].Status)
	assert.Equal(t, preindexedAt, cols[0].Documents[0].UploadedAt)

	ids, err := s.EnabledVectorStoreIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"vs_697e524aef9c819182db0e8bbfc98456", "vs_697e529683e081919d31a8ab7a2bc02a"}, ids)

	// seeding twice keeps one copy
	require.NoError(t, Seed(ctx, s, DefaultCollections()))
	cols, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cols, 2)
}

func TestToggleCollection(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	require.NoError(t, s.ToggleCollection(ctx, "vs-1"))

	ids, err := s.EnabledVectorStoreIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"vs_697e529683e081919d31a8ab7a2bc02a"}, ids)

	require.NoError(t, s.ToggleCollection(ctx, "vs-1"))
	ids, err = s.EnabledVectorStoreIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	assert.ErrorIs(t, s.ToggleCollection(ctx, "nope"), ErrNotFound)
}

func TestDocumentLifecycle(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	doc := &models.Document{Name: "vykres.pdf", Size: 42, Status: models.DocumentUploading, Enabled: true}
	require.NoError(t, s.AddDocument(ctx, "vs-2", doc))
	require.NotEmpty(t, doc.ID)

	require.NoError(t, s.UpdateDocumentStatus(ctx, "vs-2", doc.ID, models.DocumentProcessing, "file-9"))
	require.NoError(t, s.UpdateDocumentStatus(ctx, "vs-2", doc.ID, models.DocumentReady, ""))
	require.NoError(t, s.ToggleDocument(ctx, "vs-2", doc.ID))

	c, err := s.Get(ctx, "vs-2")
	require.NoError(t, err)
	require.Len(t, c.Documents, 2)
	got := c.Documents[1]
	assert.Equal(t, "vykres.pdf", got.Name)
	assert.EqualValues(t, 42, got.Size)
	assert.Equal(t, models.DocumentReady, got.Status)
	assert.Equal(t, "file-9", got.RemoteFileID)
	assert.False(t, got.Enabled)

	require.NoError(t, s.RemoveDocument(ctx, "vs-2", doc.ID))
	assert.ErrorIs(t, s.RemoveDocument(ctx, "vs-2", doc.ID), ErrNotFound)
	assert.ErrorIs(t, s.ToggleDocument(ctx, "vs-1", "doc-2-default"), ErrNotFound)
	assert.ErrorIs(t, s.AddDocument(ctx, "nope", &models.Document{Name: "x"}), ErrNotFound)
}

func TestRemoveCollection(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	require.NoError(t, s.RemoveCollection(ctx, "vs-1"))

	cols, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "vs-2", cols[0].ID)

	_, err = s.Get(ctx, "vs-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.RemoveCollection(ctx, "vs-1"), ErrNotFound)
}

func TestAddCollection_KeepsInsertionOrder(t *testing.T) {
	s := openSeeded(t)
	ctx := context.Background()

	c := &models.Collection{Name: "Nahraté dokumenty", VectorStoreID: "vs_new", Enabled: true}
	require.NoError(t, s.AddCollection(ctx, c))
	assert.NotEmpty(t, c.ID)

	cols, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, c.ID, cols[2].ID)
	assert.NotNil(t, cols[2].Documents)
	assert.Empty(t, cols[2].Documents)
}
