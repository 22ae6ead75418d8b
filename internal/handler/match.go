package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/auth"
	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/service"
)

// MatchHandler handles match, game state and display endpoints.
type MatchHandler struct {
	svc *service.MatchService
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(svc *service.MatchService) *MatchHandler {
	return &MatchHandler{svc: svc}
}

// callerFrom keys the rate limiter on the operator subject, falling back to the client IP.
func callerFrom(r *http.Request) service.Caller {
	key := auth.SubjectFromContext(r.Context())
	if key == "" {
		key = ClientIP(r)
	}
	return service.Caller{
		ClientKey:      key,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid " + name)
	}
	return id, nil
}

// Current handles GET /api/current-match.
func (h *MatchHandler) Current(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Current(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, b)
}

// CurrentDisplay handles GET /api/current-match/display.
func (h *MatchHandler) CurrentDisplay(w http.ResponseWriter, r *http.Request) {
	sb, err := h.svc.CurrentDisplay(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, sb)
}

// Get handles GET /api/matches/{id}.
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, b)
}

// Display handles GET /api/matches/{id}/display.
func (h *MatchHandler) Display(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	sb, err := h.svc.Display(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, sb)
}

// Audit handles GET /api/matches/{id}/audit.
func (h *MatchHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	result, err := h.svc.Audit(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Export handles GET /api/matches/{id}/export.
func (h *MatchHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	b, err := h.svc.Export(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="match-`+id.String()+`.json"`)
	RespondJSON(w, http.StatusOK, b)
}

// Create handles POST /api/matches.
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params domain.CreateMatchParams
	if !decodeOrReject(w, r, &params) {
		return
	}
	res, err := h.svc.CreateMatch(r.Context(), callerFrom(r), params)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, res)
}

// Import handles POST /api/matches/import.
func (h *MatchHandler) Import(w http.ResponseWriter, r *http.Request) {
	var in domain.MatchBundle
	if !decodeOrReject(w, r, &in) {
		return
	}
	res, err := h.svc.Import(r.Context(), callerFrom(r), in)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, res)
}

// Update handles PATCH /api/matches/{id}.
func (h *MatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	var params domain.UpdateMatchParams
	if !decodeOrReject(w, r, &params) {
		return
	}
	params.MatchID = id

	res, err := h.svc.UpdateMatch(r.Context(), callerFrom(r), params)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// AdjustScore handles POST /api/matches/{id}/score.
func (h *MatchHandler) AdjustScore(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	var params domain.AdjustScoreParams
	if !decodeOrReject(w, r, &params) {
		return
	}
	params.MatchID = id
	if v := r.URL.Query().Get("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			RespondError(w, domain.ErrValidation("strict must be a boolean"))
			return
		}
		params.Strict = strict
	}

	res, err := h.svc.AdjustScore(r.Context(), callerFrom(r), params)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// ResetSet handles POST /api/matches/{id}/reset-set.
func (h *MatchHandler) ResetSet(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	res, err := h.svc.ResetCurrentSet(r.Context(), callerFrom(r), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// CompleteSet handles POST /api/matches/{id}/complete-set. An empty body
// completes the current set with the live scores.
func (h *MatchHandler) CompleteSet(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	var params domain.CompleteSetParams
	if err := DecodeJSON(r, &params); err != nil && !errors.Is(err, io.EOF) {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	params.MatchID = id

	res, err := h.svc.CompleteSet(r.Context(), callerFrom(r), params)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// UpdateGameState handles PATCH /api/game-state/{matchId}.
func (h *MatchHandler) UpdateGameState(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "matchId")
	if err != nil {
		RespondError(w, err)
		return
	}
	var params domain.UpdateGameStateParams
	if !decodeOrReject(w, r, &params) {
		return
	}
	params.MatchID = id

	res, err := h.svc.UpdateGameState(r.Context(), callerFrom(r), params)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}
