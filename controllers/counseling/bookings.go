package counseling

import (
	"context"
	"net/http"

	"sisterhood-backend/controllers/httpx"
	models "sisterhood-backend/models/counseling"
	engine "sisterhood-backend/services/counseling"
)

type bookingRequest struct {
	CounselorID    uint   `json:"counselor_id" validate:"required"`
	SlotID         uint   `json:"slot_id" validate:"required"`
	Mode           string `json:"mode" validate:"required,mode"`
	AllowAnonymous bool   `json:"allow_anonymous"`
	Pseudonym      string `json:"pseudonym" validate:"max=80"`
	Notes          string `json:"notes" validate:"max=2000"`
}

// CreateBooking - запись на свободный слот
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		var req bookingRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
			return
		}
		if err := h.Validator.Struct(req); err != nil {
			h.invalid(w, err)
			return
		}
		booking, err := h.Engine.CreateBooking(r.Context(), actor.UserID, engine.BookingRequest{
			CounselorID:    req.CounselorID,
			SlotID:         req.SlotID,
			Mode:           models.Mode(req.Mode),
			AllowAnonymous: req.AllowAnonymous,
			Pseudonym:      req.Pseudonym,
			Notes:          req.Notes,
		})
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, booking)
	})(w, r)
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		bookings, err := h.Engine.ListBookings(r.Context(), actor)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, bookings)
	})(w, r)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(w, r, h.Engine.GetBooking)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(w, r, h.Engine.CancelBooking)
}

func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(w, r, h.Engine.ConfirmBooking)
}

func (h *Handler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(w, r, h.Engine.CompleteBooking)
}

type bookingFunc func(ctx context.Context, bookingID uint, actor engine.Actor) (*models.Booking, error)

// bookingAction - общий разбор {id} и ответа для действий над записью
func (h *Handler) bookingAction(w http.ResponseWriter, r *http.Request, fn bookingFunc) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		id, ok := httpx.PathID(r, "id")
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid booking ID", nil)
			return
		}
		booking, err := fn(r.Context(), id, actor)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, booking)
	})(w, r)
}

// Session - данные для входа в сессию консультации
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		id, ok := httpx.PathID(r, "id")
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid booking ID", nil)
			return
		}
		session, err := h.Engine.Session(r.Context(), id, actor)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, session)
	})(w, r)
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// SubmitFeedback - оценка сессии, повторная отправка заменяет прежнюю
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		id, ok := httpx.PathID(r, "id")
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid booking ID", nil)
			return
		}
		var req feedbackRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
			return
		}
		if err := h.Validator.Struct(req); err != nil {
			h.invalid(w, err)
			return
		}
		feedback, err := h.Engine.SubmitFeedback(r.Context(), id, actor.UserID, req.Rating, req.Comment)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, feedback)
	})(w, r)
}

func (h *Handler) PatientDashboard(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		dashboard, err := h.Engine.PatientDashboard(r.Context(), actor.UserID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, dashboard)
	})(w, r)
}

func (h *Handler) CounselorDashboard(w http.ResponseWriter, r *http.Request) {
	withActor(func(w http.ResponseWriter, r *http.Request, actor engine.Actor) {
		dashboard, err := h.Engine.CounselorDashboard(r.Context(), actor.UserID)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, dashboard)
	})(w, r)
}
