package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todmy/doc-checker/internal/llm"
	"github.com/todmy/doc-checker/internal/registry"
	"github.com/todmy/doc-checker/internal/sse"
	"github.com/todmy/doc-checker/internal/workflow"
	"github.com/todmy/doc-checker/pkg/models"
)

type fakeRouter struct {
	reply *llm.Reply
	err   error
	got   []models.ChatMessage
}

func (f *fakeRouter) Route(_ context.Context, history []models.ChatMessage) (*llm.Reply, error) {
	f.got = history
	return f.reply, f.err
}

type fakeWorkflow struct {
	events  []models.StepEvent
	results []models.WorkflowResult
	err     error
}

func (f *fakeWorkflow) Run(_ context.Context, _ workflow.Input, onStep workflow.StepFunc) ([]models.WorkflowResult, error) {
	for _, ev := range f.events {
		onStep(ev)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeUploader struct {
	collectionID string
	files        []registry.File
	summary      *registry.UploadSummary
	err          error
}

func (f *fakeUploader) Upload(_ context.Context, collectionID string, files []registry.File) (*registry.UploadSummary, error) {
	f.collectionID = collectionID
	f.files = files
	return f.summary, f.err
}

func newTestServer(t *testing.T, deps Deps) (*httptest.Server, *registry.SQLStore) {
	t.Helper()
	store, err := registry.Open(context.Background(), registry.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, registry.Seed(context.Background(), store, registry.DefaultCollections()))

	deps.Store = store
	srv := httptest.NewServer(NewServer(deps).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChat_ToolCall(t *testing.T) {
	router := &fakeRouter{reply: &llm.Reply{Type: llm.ReplyToolCall, Tool: llm.AnalyzeTool, Reason: "kontrola", PreMessage: "Spúšťam analýzu dokumentov: kontrola"}}
	srv, _ := newTestServer(t, Deps{Router: router})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/chat", `{"messages":[{"role":"user","content":"Skontroluj dokumenty"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "tool_call", body["type"])
	assert.Equal(t, "analyze_documents", body["tool"])
	assert.Equal(t, "Spúšťam analýzu dokumentov: kontrola", body["preMessage"])
	require.Len(t, router.got, 1)
	assert.Equal(t, "Skontroluj dokumenty", router.got[0].Content)
}

func TestChat_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, Deps{Router: &fakeRouter{}})

	for _, body := range []string{`{}`, `{"messages":"x"}`, `{"messages":[{"role":"system","content":"x"}]}`, `nope`} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/chat", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "Správy sú povinné", decodeError(t, resp))
	}
}

func TestChat_RouterError(t *testing.T) {
	srv, _ := newTestServer(t, Deps{Router: &fakeRouter{err: errors.New("llm down")}})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "llm down", decodeError(t, resp))
}

func readFrames(t *testing.T, r io.Reader) []sse.Frame {
	t.Helper()
	var frames []sse.Frame
	d := sse.NewDecoder(r)
	for {
		f, err := d.Next()
		if err == io.EOF {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
}

func TestWorkflow_Stream(t *testing.T) {
	wf := &fakeWorkflow{
		events: []models.StepEvent{
			{Name: "[Počet podlaží] Dokument 1", Status: models.StepRunning, AnalysisID: "pocet_podlazi"},
			{Name: "[Počet podlaží] Dokument 1", Status: models.StepCompleted, Output: "2", AnalysisID: "pocet_podlazi"},
		},
		results: []models.WorkflowResult{{Name: "Počet podlaží", Value: "2 PP + 5 NP", Confidence: 1, NoteType: models.NoteMatch}},
	}
	srv, _ := newTestServer(t, Deps{Workflow: wf})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workflow", `{"input":"skontroluj"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := readFrames(t, resp.Body)
	require.Len(t, frames, 4)
	assert.Equal(t, []string{"step", "step", "result", "done"}, []string{frames[0].Event, frames[1].Event, frames[2].Event, frames[3].Event})

	var ev models.StepEvent
	require.NoError(t, frames[1].Decode(&ev))
	assert.Equal(t, models.StepCompleted, ev.Status)

	var results []models.WorkflowResult
	require.NoError(t, frames[2].Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, "2 PP + 5 NP", results[0].Value)
}

func TestWorkflow_ErrorFrame(t *testing.T) {
	wf := &fakeWorkflow{
		events: []models.StepEvent{{Name: "[Počet podlaží] Porovnanie", Status: models.StepError, Output: "boom"}},
		err:    errors.New("boom"),
	}
	srv, _ := newTestServer(t, Deps{Workflow: wf})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workflow", `{"input":"x"}`)
	frames := readFrames(t, resp.Body)

	require.Len(t, frames, 2)
	assert.Equal(t, sse.EventError, frames[1].Event)
	assert.JSONEq(t, `{"message":"boom"}`, frames[1].Data)
}

func TestWorkflow_ErrorFrameCarriesCause(t *testing.T) {
	cause := errors.New("openai: /chat/completions returned status 500: upstream down")
	wf := &fakeWorkflow{err: eris.Wrapf(cause, "workflow: %s", "[Počet podlaží] Porovnanie")}
	srv, _ := newTestServer(t, Deps{Workflow: wf})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workflow", `{"input":"x"}`)
	frames := readFrames(t, resp.Body)

	require.Len(t, frames, 1)
	assert.Equal(t, sse.EventError, frames[0].Event)
	assert.JSONEq(t, `{"message":"openai: /chat/completions returned status 500: upstream down"}`, frames[0].Data)
}

func TestWorkflow_NoSources(t *testing.T) {
	srv, _ := newTestServer(t, Deps{Workflow: &fakeWorkflow{err: workflow.ErrNoSources}})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workflow", `{"input":"x"}`)
	frames := readFrames(t, resp.Body)

	require.Len(t, frames, 1)
	assert.JSONEq(t, `{"message":"Žiadne dokumenty nie sú povolené na analýzu"}`, frames[0].Data)
}

func TestWorkflow_MissingInput(t *testing.T) {
	srv, _ := newTestServer(t, Deps{Workflow: &fakeWorkflow{}})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/workflow", `{"input":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Vstupný text je povinný", decodeError(t, resp))
}

func TestDocuments_ListToggleRemove(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/documents", "")
	var cols []models.Collection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cols))
	require.Len(t, cols, 2)

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/documents", `{"storeId":"vs-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cols))
	assert.False(t, cols[0].Enabled)

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/documents", `{"storeId":"vs-2","docId":"doc-2-default"}`)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cols))
	assert.False(t, cols[1].Documents[0].Enabled)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/documents", `{"storeId":"vs-2","docId":"doc-2-default"}`)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cols))
	assert.Empty(t, cols[1].Documents)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/documents", `{"storeId":"vs-1"}`)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cols))
	require.Len(t, cols, 1)
	assert.Equal(t, "vs-2", cols[0].ID)
}

func TestDocuments_Errors(t *testing.T) {
	srv, _ := newTestServer(t, Deps{})

	resp := doJSON(t, http.MethodPatch, srv.URL+"/api/documents", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "storeId je povinný", decodeError(t, resp))

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/documents", `{"storeId":"vs-404"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Položka nebola nájdená", decodeError(t, resp))
}

func multipartBody(t *testing.T, storeID string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if storeID != "" {
		require.NoError(t, w.WriteField("storeId", storeID))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestDocuments_Upload(t *testing.T) {
	up := &fakeUploader{summary: &registry.UploadSummary{
		Message:   "Nahraných 1 z 1 súborov",
		Documents: []registry.UploadedDocument{{ID: "doc-x", Name: "plan.pdf", Status: models.DocumentReady}},
	}}
	srv, _ := newTestServer(t, Deps{Uploader: up})

	body, ct := multipartBody(t, "vs-2", map[string]string{"plan.pdf": "obsah"})
	resp, err := http.Post(srv.URL+"/api/documents", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out uploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Nahraných 1 z 1 súborov", out.Message)
	assert.Len(t, out.Stores, 2)

	assert.Equal(t, "vs-2", up.collectionID)
	require.Len(t, up.files, 1)
	assert.Equal(t, "plan.pdf", up.files[0].Name)
	assert.Equal(t, "obsah", string(up.files[0].Content))
}

func TestDocuments_UploadErrors(t *testing.T) {
	up := &fakeUploader{err: registry.ErrNoFiles}
	srv, _ := newTestServer(t, Deps{Uploader: up})

	body, ct := multipartBody(t, "", nil)
	resp, err := http.Post(srv.URL+"/api/documents", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Žiadne súbory neboli nahrané", decodeError(t, resp))

	up.err = registry.ErrNotFound
	body, ct = multipartBody(t, "vs-9", map[string]string{"a.pdf": "a"})
	resp2, err := http.Post(srv.URL+"/api/documents", ct, body)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
