package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/volleyscore/scoreboard/internal/domain"
	"github.com/volleyscore/scoreboard/internal/service"
)

// logoField is the multipart field carrying an uploaded image.
const logoField = "logo"

// multipartOverhead leaves room for form boundaries and headers around the image.
const multipartOverhead = 64 << 10

// TeamHandler handles team, settings and image upload endpoints.
type TeamHandler struct {
	svc *service.MatchService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(svc *service.MatchService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

// UpdateTeam handles PATCH /api/teams/{id}.
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	var params domain.UpdateTeamParams
	if !decodeOrReject(w, r, &params) {
		return
	}
	params.TeamID = id

	team, err := h.svc.UpdateTeam(r.Context(), callerFrom(r), params)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, team)
}

// UploadTeamLogo handles POST /api/teams/{id}/logo.
func (h *TeamHandler) UploadTeamLogo(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		RespondError(w, err)
		return
	}
	file, err := h.formImage(w, r)
	if err != nil {
		RespondError(w, err)
		return
	}
	defer file.Close()

	team, err := h.svc.UploadTeamLogo(r.Context(), callerFrom(r), id, file)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, team)
}

// GetSettings handles GET /api/settings.
func (h *TeamHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PATCH /api/settings.
func (h *TeamHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var params domain.UpdateSettingsParams
	if !decodeOrReject(w, r, &params) {
		return
	}
	settings, err := h.svc.UpdateSettings(r.Context(), callerFrom(r), params)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, settings)
}

// UploadSponsorLogo handles POST /api/settings/sponsor-logo.
func (h *TeamHandler) UploadSponsorLogo(w http.ResponseWriter, r *http.Request) {
	file, err := h.formImage(w, r)
	if err != nil {
		RespondError(w, err)
		return
	}
	defer file.Close()

	settings, err := h.svc.UploadSponsorLogo(r.Context(), callerFrom(r), file)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, settings)
}

// ServeUpload handles GET /uploads/{name}.
func (h *TeamHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	f, info, err := h.svc.Logos().Open(chi.URLParam(r, "name"))
	if err != nil {
		RespondError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// formImage extracts the logo field from a multipart request. Oversized
// bodies and missing fields are validation errors.
func (h *TeamHandler) formImage(w http.ResponseWriter, r *http.Request) (multipart.File, error) {
	maxBytes := h.svc.Logos().MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		return nil, domain.ErrValidation("upload must be a multipart form with a logo image no larger than the size limit")
	}
	file, _, err := r.FormFile(logoField)
	if err != nil {
		return nil, domain.ErrValidation("missing logo file")
	}
	return file, nil
}
