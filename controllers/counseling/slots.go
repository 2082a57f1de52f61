package counseling

import (
	"net/http"
	"time"

	"sisterhood-backend/controllers/httpx"
	engine "sisterhood-backend/services/counseling"
)

type slotRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// ListSlots - свободные слоты; ?counselor= ограничивает одним консультантом
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	counselorID, ok := queryUint(r, "counselor")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid counselor", nil)
		return
	}
	slots, err := h.Engine.ListAvailable(r.Context(), counselorID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slots)
}

// AvailableSlots - свободные слоты консультанта из пути
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid counselor ID", nil)
		return
	}
	if _, err := h.Engine.GetCounselor(r.Context(), id); err != nil {
		writeEngineError(w, r, err)
		return
	}
	slots, err := h.Engine.ListAvailable(r.Context(), id)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slots)
}

func (h *Handler) decodeSlot(w http.ResponseWriter, r *http.Request) (slotRequest, bool) {
	var req slotRequest
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

// CreateSlot - консультант публикует свободное время
func (h *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		req, ok := h.decodeSlot(w, r)
		if !ok {
			return
		}
		profile, err := h.Engine.CounselorByUser(r.Context(), actor.UserID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		slot, err := h.Engine.CreateSlot(r.Context(), profile.ID, req.Start, req.End)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, slot)
	})(w, r)
}

func (h *Handler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		id, ok := httpx.PathID(r, "id")
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid slot ID", nil)
			return
		}
		req, ok := h.decodeSlot(w, r)
		if !ok {
			return
		}
		profile, err := h.Engine.CounselorByUser(r.Context(), actor.UserID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		slot, err := h.Engine.UpdateSlot(r.Context(), id, profile.ID, req.Start, req.End)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, slot)
	})(w, r)
}

func (h *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		id, ok := httpx.PathID(r, "id")
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid slot ID", nil)
			return
		}
		profile, err := h.Engine.CounselorByUser(r.Context(), actor.UserID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		if err := h.Engine.DeleteSlot(r.Context(), id, profile.ID); err != nil {
			writeEngineError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})(w, r)
}
