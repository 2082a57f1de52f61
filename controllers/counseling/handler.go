package counseling

import (
	"errors"
	"net/http"
	"strconv"

	"sisterhood-backend/controllers/authentication"
	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/logger"
	engine "sisterhood-backend/services/counseling"
	"sisterhood-backend/validation"
)

type Handler struct {
	Engine    *engine.Engine
	Validator *validation.Validator
}

func actorFrom(r *http.Request) (engine.Actor, bool) {
	claims, ok := authentication.ClaimsFromContext(r.Context())
	if !ok {
		return engine.Actor{}, false
	}
	return engine.Actor{UserID: claims.UserID, IsStaff: claims.IsStaff}, true
}

// withActor - обёртка для маршрутов, которым нужен текущий пользователь
func withActor(fn func(w http.ResponseWriter, r *http.Request, actor engine.Actor)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		fn(w, r, actor)
	}
}

// writeEngineError переводит ошибки движка записи в HTTP-статусы
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrSlotUnavailable), errors.Is(err, engine.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrIneligible), errors.Is(err, engine.ErrUnsupportedMode), errors.Is(err, engine.ErrNotAllowed):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		logger.Logger.WithError(err).WithField("path", r.URL.Path).Error("counseling request failed")
		httpx.WriteError(w, status, "Internal server error", nil)
		return
	}
	httpx.WriteError(w, status, err.Error(), nil)
}

func (h *Handler) invalid(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, "Invalid input", validation.Details(h.Validator.ValidationErrors(err)))
}

func queryUint(r *http.Request, name string) (uint, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
