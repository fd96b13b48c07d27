package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/todmy/doc-checker/internal/registry"
	"github.com/todmy/doc-checker/internal/sse"
	"github.com/todmy/doc-checker/internal/workflow"
	"github.com/todmy/doc-checker/pkg/models"
)

const (
	msgUnknownError    = "Neznáma chyba"
	msgMessagesMissing = "Správy sú povinné"
	msgInputMissing    = "Vstupný text je povinný"
	msgNoSources       = "Žiadne dokumenty nie sú povolené na analýzu"
)

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Messages []models.ChatMessage `json:"messages" validate:"required,dive"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || s.validate.Struct(req) != nil {
		respondError(w, http.StatusBadRequest, msgMessagesMissing)
		return
	}

	reply, err := s.deps.Router.Route(r.Context(), req.Messages)
	if err != nil {
		zap.L().Error("chat failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, reply)
}

type workflowRequest struct {
	Input string `json:"input" validate:"required"`
}

// handleWorkflow streams step events, then the result array and a done
// marker, or a single error frame.
func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || s.validate.Struct(req) != nil {
		respondError(w, http.StatusBadRequest, msgInputMissing)
		return
	}

	stream := sse.NewWriter(w)
	logger := zap.L().With(zap.String("request_id", requestID(r)))

	results, err := s.deps.Workflow.Run(r.Context(), workflow.Input{Text: req.Input}, func(ev models.StepEvent) {
		if err := stream.Send(sse.EventStep, ev); err != nil {
			logger.Warn("send step event", zap.Error(err))
		}
	})
	if err != nil {
		// the failing step is already named in its error event
		msg := eris.Cause(err).Error()
		if errors.Is(err, workflow.ErrNoSources) {
			msg = msgNoSources
		}
		if sendErr := stream.Send(sse.EventError, map[string]string{"message": msg}); sendErr != nil {
			logger.Warn("send error event", zap.Error(sendErr))
		}
		return
	}

	if err := stream.Send(sse.EventResult, results); err != nil {
		logger.Warn("send result event", zap.Error(err))
		return
	}
	if err := stream.Send(sse.EventDone, struct{}{}); err != nil {
		logger.Warn("send done event", zap.Error(err))
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	cols, err := s.deps.Store.List(r.Context())
	if err != nil {
		zap.L().Error("list collections", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Nepodarilo sa načítať dokumenty")
		return
	}
	respondJSON(w, http.StatusOK, cols)
}

type uploadResponse struct {
	Message   string                      `json:"message"`
	Documents []registry.UploadedDocument `json:"documents"`
	Stores    []models.Collection         `json:"stores"`
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.deps.MaxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Súbory sú príliš veľké alebo formulár je neplatný")
		return
	}

	var files []registry.File
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "Nepodarilo sa prečítať súbor "+fh.Filename)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "Nepodarilo sa prečítať súbor "+fh.Filename)
			return
		}
		files = append(files, registry.File{Name: fh.Filename, Content: content})
	}

	summary, err := s.deps.Uploader.Upload(r.Context(), r.FormValue("storeId"), files)
	switch {
	case errors.Is(err, registry.ErrNoFiles):
		respondError(w, http.StatusBadRequest, "Žiadne súbory neboli nahrané")
		return
	case errors.Is(err, registry.ErrNotFound):
		respondError(w, http.StatusNotFound, "Cieľový vector store nebol nájdený")
		return
	case err != nil:
		zap.L().Error("upload failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Chyba pri nahrávaní")
		return
	}

	cols, err := s.deps.Store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Nepodarilo sa načítať dokumenty")
		return
	}

	respondJSON(w, http.StatusOK, uploadResponse{
		Message:   summary.Message,
		Documents: summary.Documents,
		Stores:    cols,
	})
}

type itemRequest struct {
	StoreID string `json:"storeId" validate:"required"`
	DocID   string `json:"docId"`
}

func (s *Server) handleToggleDocuments(w http.ResponseWriter, r *http.Request) {
	s.mutateItem(w, r, s.deps.Store.ToggleCollection, s.deps.Store.ToggleDocument)
}

func (s *Server) handleRemoveDocuments(w http.ResponseWriter, r *http.Request) {
	s.mutateItem(w, r, s.deps.Store.RemoveCollection, s.deps.Store.RemoveDocument)
}

// mutateItem applies onCollection, or onDocument when docId is set, and
// responds with the updated collections.
func (s *Server) mutateItem(
	w http.ResponseWriter,
	r *http.Request,
	onCollection func(ctx context.Context, collectionID string) error,
	onDocument func(ctx context.Context, collectionID, docID string) error,
) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || s.validate.Struct(req) != nil {
		respondError(w, http.StatusBadRequest, "storeId je povinný")
		return
	}

	var err error
	if req.DocID != "" {
		err = onDocument(r.Context(), req.StoreID, req.DocID)
	} else {
		err = onCollection(r.Context(), req.StoreID)
	}
	if errors.Is(err, registry.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Položka nebola nájdená")
		return
	}
	if err != nil {
		zap.L().Error("update registry", zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgUnknownError)
		return
	}

	cols, err := s.deps.Store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, msgUnknownError)
		return
	}
	respondJSON(w, http.StatusOK, cols)
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
