package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/todmy/doc-checker/pkg/models"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) CreateVectorStore(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockRemote) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	args := m.Called(ctx, name, content)
	return args.String(0), args.Error(1)
}

func (m *mockRemote) AttachFile(ctx context.Context, vectorStoreID, fileID string) error {
	return m.Called(ctx, vectorStoreID, fileID).Error(0)
}

func newTestUploader(t *testing.T, remote RemoteFiles) (*Uploader, *SQLStore) {
	t.Helper()
	s := openSeeded(t)
	u := NewUploader(s, remote)
	u.now = func() time.Time { return time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC) }
	return u, s
}

func TestUpload_IntoExistingCollection(t *testing.T) {
	remote := new(mockRemote)
	remote.On("UploadFile", mock.Anything, "a.pdf", []byte("aaa")).Return("file-a", nil).Once()
	remote.On("UploadFile", mock.Anything, "b.pdf", []byte("bb")).Return("", errors.New("too large")).Once()
	remote.On("AttachFile", mock.Anything, "vs_697e529683e081919d31a8ab7a2bc02a", "file-a").Return(nil).Once()

	u, s := newTestUploader(t, remote)
	summary, err := u.Upload(context.Background(), "vs-2", []File{
		{Name: "a.pdf", Content: []byte("aaa")},
		{Name: "b.pdf", Content: []byte("bb")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Nahraných 1 z 2 súborov", summary.Message)
	require.Len(t, summary.Documents, 2)
	assert.Equal(t, models.DocumentReady, summary.Documents[0].Status)
	assert.Equal(t, models.DocumentError, summary.Documents[1].Status)

	c, err := s.Get(context.Background(), "vs-2")
	require.NoError(t, err)
	require.Len(t, c.Documents, 3)
	assert.Equal(t, "file-a", c.Documents[1].RemoteFileID)
	assert.EqualValues(t, 3, c.Documents[1].Size)
	assert.Equal(t, models.DocumentError, c.Documents[2].Status)
	remote.AssertExpectations(t)
}

func TestUpload_CreatesCollection(t *testing.T) {
	remote := new(mockRemote)
	remote.On("CreateVectorStore", mock.Anything, "Nahraté dokumenty - 15. 10. 2026").Return("vs_fresh", nil).Once()
	remote.On("UploadFile", mock.Anything, "c.pdf", mock.Anything).Return("file-c", nil).Once()
	remote.On("AttachFile", mock.Anything, "vs_fresh", "file-c").Return(nil).Once()

	u, s := newTestUploader(t, remote)
	summary, err := u.Upload(context.Background(), "", []File{{Name: "c.pdf", Content: []byte("c")}})
	require.NoError(t, err)
	assert.Equal(t, "Nahraných 1 z 1 súborov", summary.Message)

	c, err := s.Get(context.Background(), summary.CollectionID)
	require.NoError(t, err)
	assert.Equal(t, "Nahraté dokumenty", c.Name)
	assert.Equal(t, "Dokumenty nahrané 15. 10. 2026", c.Description)
	assert.False(t, c.IsDefault)
	assert.True(t, c.Enabled)

	ids, err := s.EnabledVectorStoreIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "vs_fresh", ids[2])
}

func TestUpload_AttachFailureMarksError(t *testing.T) {
	remote := new(mockRemote)
	remote.On("UploadFile", mock.Anything, mock.Anything, mock.Anything).Return("file-x", nil)
	remote.On("AttachFile", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("store busy"))

	u, s := newTestUploader(t, remote)
	summary, err := u.Upload(context.Background(), "vs-1", []File{{Name: "x.pdf"}})
	require.NoError(t, err)
	assert.Equal(t, "Nahraných 0 z 1 súborov", summary.Message)

	c, err := s.Get(context.Background(), "vs-1")
	require.NoError(t, err)
	last := c.Documents[len(c.Documents)-1]
	assert.Equal(t, models.DocumentError, last.Status)
	assert.Equal(t, "file-x", last.RemoteFileID)
}

func TestUpload_Errors(t *testing.T) {
	u, _ := newTestUploader(t, new(mockRemote))

	_, err := u.Upload(context.Background(), "vs-1", nil)
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = u.Upload(context.Background(), "missing", []File{{Name: "a"}})
	assert.ErrorIs(t, err, ErrNotFound)
}
