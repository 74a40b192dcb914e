package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/cryptogen-go/pkg/cryptogen"
)

// maxConfigureBody bounds the PUT /v1/pool request body.
const maxConfigureBody = 4 << 10

// handleGetPool handles GET /v1/pool. An empty configure round trip
// reports the settings in force.
func (h *Handler) handleGetPool(w http.ResponseWriter, r *http.Request) {
	settings, err := h.session.Configure(r.Context(), cryptogen.PoolUpdate{})
	if err != nil {
		h.handleSessionError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PoolResponse(settings))
}

// handleConfigurePool handles PUT /v1/pool.
func (h *Handler) handleConfigurePool(w http.ResponseWriter, r *http.Request) {
	var req ConfigurePoolRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConfigureBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "CG-ARG-4000", "invalid request body", err.Error())
		return
	}

	settings, err := h.session.Configure(r.Context(), cryptogen.PoolUpdate{
		MaxSize:         req.MaxSize,
		TokenByteLength: req.TokenByteLength,
	})
	if err != nil {
		h.handleSessionError(w, r, err)
		return
	}

	h.requestLogger(w, r).Info("pool reconfigured",
		"max_size", settings.MaxSize,
		"token_byte_length", settings.TokenByteLength,
	)
	h.writeJSON(w, http.StatusOK, PoolResponse(settings))
}
