package authentication

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/logger"
	"sisterhood-backend/models/users"
	"sisterhood-backend/validation"
)

type Handler struct {
	DB        *gorm.DB
	Tokens    *TokenManager
	Validator *validation.Validator
	OAuth     *oauth2.Config
	Sessions  sessions.Store
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,role"`
	City     string `json:"city" validate:"max=120"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  users.User `json:"user"`
	Token string     `json:"token"`
}

// Register: регистрация с паролем и выбором роли
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.Validator.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", validation.Details(h.Validator.ValidationErrors(err)))
		return
	}
	if req.Role == "" {
		req.Role = users.RoleUser
	}

	var existing users.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		httpx.WriteError(w, http.StatusConflict, "Email already registered", nil)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.WriteError(w, http.StatusInternalServerError, "Error checking email", nil)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error hashing password", nil)
		return
	}

	user := users.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     req.Role,
		City:     req.City,
		Provider: users.ProviderLocal,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		logger.Logger.WithError(err).Error("create user")
		httpx.WriteError(w, http.StatusInternalServerError, "Error creating user", nil)
		return
	}

	token, err := h.Tokens.Issue(&user)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error generating token", nil)
		return
	}
	logger.Logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	httpx.WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login: вход с паролем и выдача JWT
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.Validator.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid input", validation.Details(h.Validator.ValidationErrors(err)))
		return
	}

	var user users.User
	if err := h.DB.Where("email = ? AND provider = ?", req.Email, users.ProviderLocal).First(&user).Error; err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	token, err := h.Tokens.Issue(&user)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error generating token", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// currentUser - пользователь из токена запроса
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return nil, false
	}
	var user users.User
	if err := h.DB.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "User not found", nil)
			return nil, false
		}
		httpx.WriteError(w, http.StatusInternalServerError, "Error loading user", nil)
		return nil, false
	}
	return &user, true
}
