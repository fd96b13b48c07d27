package openai

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"

	"github.com/rotisserie/eris"
)

// UploadFile stores a file for use with assistants and returns its ID.
func (c *Client) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("purpose", "assistants"); err != nil {
		return "", eris.Wrap(err, "openai: write purpose field")
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", eris.Wrap(err, "openai: create form file")
	}
	if _, err := part.Write(content); err != nil {
		return "", eris.Wrap(err, "openai: write form file")
	}
	if err := w.Close(); err != nil {
		return "", eris.Wrap(err, "openai: close multipart writer")
	}

	payload := buf.Bytes()
	var file fileObject
	err = c.send(ctx, "/files", w.FormDataContentType(), func() io.Reader { return bytes.NewReader(payload) }, &file)
	if err != nil {
		return "", err
	}
	return file.ID, nil
}

// CreateVectorStore creates an empty vector store and returns its ID
func (c *Client) CreateVectorStore(ctx context.Context, name string) (string, error) {
	var vs vectorStoreObject
	if err := c.postJSON(ctx, "/vector_stores", vectorStoreRequest{Name: name}, &vs); err != nil {
		return "", err
	}
	return vs.ID, nil
}

// AttachFile adds an uploaded file to a vector store
func (c *Client) AttachFile(ctx context.Context, vectorStoreID, fileID string) error {
	var out vectorStoreFileObject
	return c.postJSON(ctx, "/vector_stores/"+vectorStoreID+"/files", vectorStoreFileRequest{FileID: fileID}, &out)
}
