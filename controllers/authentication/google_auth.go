package authentication

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"sisterhood-backend/config"
	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/logger"
	"sisterhood-backend/models/users"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateKey     = "oauth_state"
)

// NewGoogleOAuthConfig - nil, если Google OAuth не настроен
func NewGoogleOAuthConfig(cfg *config.Config) *oauth2.Config {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		RedirectURL:  cfg.GoogleRedirectURL,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

type googleUserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// HandleGoogleLogin начинает OAuth-вход через Google
func (h *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil {
		httpx.WriteError(w, http.StatusNotFound, "Google sign-in is not configured", nil)
		return
	}
	session, _ := h.Sessions.Get(r, config.SessionName)
	state := uuid.NewString()
	session.Values[oauthStateKey] = state
	if err := session.Save(r, w); err != nil {
		logger.Logger.WithError(err).Error("save oauth state")
		httpx.WriteError(w, http.StatusInternalServerError, "Error saving session", nil)
		return
	}
	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback обменивает код на токен и выдаёт JWT
func (h *Handler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil {
		httpx.WriteError(w, http.StatusNotFound, "Google sign-in is not configured", nil)
		return
	}
	session, _ := h.Sessions.Get(r, config.SessionName)
	expected, _ := session.Values[oauthStateKey].(string)
	if expected == "" || r.FormValue("state") != expected {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid OAuth state", nil)
		return
	}
	delete(session.Values, oauthStateKey)
	_ = session.Save(r, w)

	token, err := h.OAuth.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		logger.Logger.WithError(err).Warn("google code exchange")
		httpx.WriteError(w, http.StatusBadGateway, "Error exchanging code", nil)
		return
	}

	info, err := h.fetchGoogleUser(r, token)
	if err != nil {
		logger.Logger.WithError(err).Warn("google user info")
		httpx.WriteError(w, http.StatusBadGateway, "Error fetching user info", nil)
		return
	}

	user, err := h.linkGoogleUser(info)
	if err != nil {
		logger.Logger.WithError(err).Error("link google user")
		httpx.WriteError(w, http.StatusInternalServerError, "Error creating user", nil)
		return
	}

	jwtToken, err := h.Tokens.Issue(user)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error generating token", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authResponse{User: *user, Token: jwtToken})
}

func (h *Handler) fetchGoogleUser(r *http.Request, token *oauth2.Token) (*googleUserInfo, error) {
	resp, err := h.OAuth.Client(r.Context(), token).Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.ID == "" || info.Email == "" {
		return nil, errors.New("userinfo without id or email")
	}
	info.Email = strings.ToLower(info.Email)
	return &info, nil
}

// linkGoogleUser находит или создаёт пользователя и привязку GoogleUser
func (h *Handler) linkGoogleUser(info *googleUserInfo) (*users.User, error) {
	var user users.User
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", info.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = users.User{
				Email:    info.Email,
				Name:     strings.TrimSpace(info.GivenName + " " + info.FamilyName),
				Role:     users.RoleUser,
				Provider: users.ProviderGoogle,
			}
			err = tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		var link users.GoogleUser
		err = tx.Where("google_id = ?", info.ID).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			link = users.GoogleUser{UserID: user.ID, GoogleID: info.ID}
		} else if err != nil {
			return err
		}
		link.Email = info.Email
		link.FirstName = info.GivenName
		link.LastName = info.FamilyName
		return tx.Save(&link).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout очищает серверную сессию (история чата, OAuth state)
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Sessions.Get(r, config.SessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error clearing session", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
