package counseling

import (
	"net/http"
	"strconv"

	"sisterhood-backend/controllers/httpx"
	models "sisterhood-backend/models/counseling"
	engine "sisterhood-backend/services/counseling"
)

// ListCounselors - каталог с фильтрами specialization, min_rating, q
func (h *Handler) ListCounselors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := engine.DirectoryFilter{
		Specialization: q.Get("specialization"),
		Search:         q.Get("q"),
	}
	if raw := q.Get("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid min_rating", nil)
			return
		}
		filter.MinRating = &v
	}

	counselors, err := h.Engine.ListCounselors(r.Context(), filter)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	specializations, err := h.Engine.Specializations(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"counselors":      counselors,
		"specializations": specializations,
	})
}

type counselorDetail struct {
	Counselor *models.CounselorProfile  `json:"counselor"`
	Modes     []models.Mode             `json:"modes"`
	Slots     []models.AvailabilitySlot `json:"slots"`
}

// GetCounselor - карточка консультанта со свободными слотами
func (h *Handler) GetCounselor(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid counselor ID", nil)
		return
	}
	profile, err := h.Engine.GetCounselor(r.Context(), id)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	slots, err := h.Engine.ListAvailable(r.Context(), profile.ID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, counselorDetail{Counselor: profile, Modes: profile.Modes(), Slots: slots})
}

type profileRequest struct {
	FullName        string   `json:"full_name" validate:"required,max=120"`
	LicenseNo       string   `json:"license_no" validate:"omitempty,max=80"`
	Specialization  string   `json:"specialization" validate:"max=120"`
	Languages       []string `json:"languages" validate:"dive,max=40"`
	YearsExperience int      `json:"years_experience" validate:"gte=0,lte=80"`
	Bio             string   `json:"bio"`
	PhotoURL        string   `json:"photo_url" validate:"omitempty,url"`
	AvailableChat   bool     `json:"available_chat"`
	AvailableVoice  bool     `json:"available_voice"`
	AvailableVideo  bool     `json:"available_video"`
}

func (p profileRequest) input() engine.ProfileInput {
	return engine.ProfileInput{
		FullName:        p.FullName,
		LicenseNo:       p.LicenseNo,
		Specialization:  p.Specialization,
		Languages:       p.Languages,
		YearsExperience: p.YearsExperience,
		Bio:             p.Bio,
		PhotoURL:        p.PhotoURL,
		AvailableChat:   p.AvailableChat,
		AvailableVoice:  p.AvailableVoice,
		AvailableVideo:  p.AvailableVideo,
	}
}

func (h *Handler) decodeProfile(w http.ResponseWriter, r *http.Request) (profileRequest, bool) {
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return req, false
	}
	if err := h.Validator.Struct(req); err != nil {
		h.invalid(w, err)
		return req, false
	}
	return req, true
}

// CreateProfile - анкета консультанта текущего пользователя
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		req, ok := h.decodeProfile(w, r)
		if !ok {
			return
		}
		profile, err := h.Engine.CreateCounselorProfile(r.Context(), actor.UserID, req.input())
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, profile)
	})(w, r)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		req, ok := h.decodeProfile(w, r)
		if !ok {
			return
		}
		profile, err := h.Engine.UpdateCounselorProfile(r.Context(), actor.UserID, req.input())
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, profile)
	})(w, r)
}

type verifyRequest struct {
	Verified bool `json:"verified"`
	Eligible bool `json:"eligible"`
}

// VerifyCounselor - отметка персонала о проверке и допуске
func (h *Handler) VerifyCounselor(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		id, ok := httpx.PathID(r, "id")
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid counselor ID", nil)
			return
		}
		var req verifyRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
			return
		}
		profile, err := h.Engine.VerifyCounselor(r.Context(), id, actor, req.Verified, req.Eligible)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, profile)
	})(w, r)
}
