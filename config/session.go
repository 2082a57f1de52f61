package config

import (
	"net/http"
	"os"

	"github.com/gorilla/sessions"
)

const SessionName = "sisterhood-session"

// NewSessionStore - серверное хранилище сессий (история чата не влезает в cookie)
func NewSessionStore(cfg *Config) (*sessions.FilesystemStore, error) {
	if err := os.MkdirAll(cfg.SessionDir, 0o700); err != nil {
		return nil, err
	}
	store := sessions.NewFilesystemStore(cfg.SessionDir, []byte(cfg.SessionSecret))
	store.MaxLength(0)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}
