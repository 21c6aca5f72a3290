package http

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"portalunk/internal/core"
	applog "portalunk/internal/log"
)

// proofContentTypes are the payment proof formats accepted on upload.
var proofContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.Events.List(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if events == nil {
		events = []core.EventRecord{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.deps.Events.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// handleCreateEvent books an event. ?dj_id= names the primary DJ, which is
// placed first in dj_ids.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := DecodePayload(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	event, err := s.deps.Events.Create(r.Context(), payload, sanitizeInput(r.URL.Query().Get("dj_id")))
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.metrics.eventsCreated, 1)
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := DecodePayload(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	event, err := s.deps.Events.Update(r.Context(), pathID(r), payload)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Events.Delete(r.Context(), pathID(r)); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleUploadPaymentProof stores the multipart "file" part as the event's
// payment proof, replacing any previous one.
func (s *Server) handleUploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "file too large").Write(w)
			return
		}
		BadRequestError("expected a multipart form with a file field").Write(w)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		UnprocessableEntityError("file", "is required").Write(w)
		return
	}
	defer file.Close()

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !proofContentTypes[contentType] {
		UnprocessableEntityError("file", "must be a PDF, JPEG, PNG or WebP file").Write(w)
		return
	}

	event, err := s.deps.Events.AttachPaymentProof(r.Context(), pathID(r), header.Filename, contentType, file)
	if err != nil {
		writeError(w, r, applog.OpUpload, err)
		return
	}
	atomic.AddInt64(&s.metrics.proofsUploaded, 1)
	writeJSON(w, http.StatusOK, event)
}
