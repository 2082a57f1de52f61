package authentication

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/models/users"
	"sisterhood-backend/validation"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword: смена пароля пользователя
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if user.Provider != users.ProviderLocal {
		httpx.WriteError(w, http.StatusBadRequest, "Password is managed by the sign-in provider", nil)
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", validation.Details(h.Validator.ValidationErrors(err)))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Current password is incorrect", nil)
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error hashing new password", nil)
		return
	}
	if err := h.DB.Model(user).Update("password", string(hashed)).Error; err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error updating password", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
