package http

import (
	"net/http"

	"portalunk/internal/core"
	applog "portalunk/internal/log"
)

func (s *Server) handleListDJs(w http.ResponseWriter, r *http.Request) {
	djs, err := s.deps.DJs.List(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if djs == nil {
		djs = []core.DJRecord{}
	}
	writeJSON(w, http.StatusOK, djs)
}

func (s *Server) handleGetDJ(w http.ResponseWriter, r *http.Request) {
	dj, err := s.deps.DJs.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, dj)
}

func (s *Server) handleCreateDJ(w http.ResponseWriter, r *http.Request) {
	payload, err := DecodePayload(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	dj, err := s.deps.DJs.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, dj)
}

func (s *Server) handleUpdateDJ(w http.ResponseWriter, r *http.Request) {
	payload, err := DecodePayload(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	dj, err := s.deps.DJs.Update(r.Context(), pathID(r), payload)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, dj)
}

func (s *Server) handleDeleteDJ(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DJs.Delete(r.Context(), pathID(r)); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
