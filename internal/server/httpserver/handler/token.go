package handler

import (
	"net/http"
	"strconv"

	"github.com/yndnr/cryptogen-go/internal/infra/tokenfmt"
	"github.com/yndnr/cryptogen-go/pkg/token"
)

// handleGetTokens handles GET /v1/tokens?count=N&encoding=E&fingerprints=true.
func (h *Handler) handleGetTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	count := 1
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "CG-ARG-4000", "count must be an integer", nil)
			return
		}
		count = n
	}
	if count > h.maxTokens {
		h.writeError(w, http.StatusBadRequest, "CG-ARG-4000", "count exceeds the per-request limit",
			map[string]int{"max": h.maxTokens})
		return
	}

	enc, err := tokenfmt.Parse(q.Get("encoding"))
	if err != nil {
		h.handleSessionError(w, r, err)
		return
	}

	// Count validation (count >= 1) is left to the session.
	tokens, took, err := h.session.Get(r.Context(), count)
	if err != nil {
		h.handleSessionError(w, r, err)
		return
	}

	resp := TokensResponse{
		Tokens:     enc.EncodeAll(tokens),
		Encoding:   string(enc),
		Count:      len(tokens),
		DurationMS: float64(took.Microseconds()) / 1000,
	}
	if withFP, _ := strconv.ParseBool(q.Get("fingerprints")); withFP {
		resp.Fingerprints = make([]string, len(tokens))
		for i, t := range tokens {
			resp.Fingerprints[i] = token.Fingerprint(t)
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}
