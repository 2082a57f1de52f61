package chatbot

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"

	"sisterhood-backend/config"
	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/logger"
	"sisterhood-backend/services/chat"
)

// historyKey - история хранится в сессии JSON-строкой
const historyKey = "chat_history"

type Handler struct {
	Responder *chat.Responder
	Sessions  sessions.Store
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	OK      bool         `json:"ok"`
	Answer  string       `json:"answer,omitempty"`
	Emotion chat.Emotion `json:"emotion,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// readText - поле text из JSON или из формы
func readText(r *http.Request) string {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req chatRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return ""
		}
		return strings.TrimSpace(req.Text)
	}
	return strings.TrimSpace(r.FormValue("text"))
}

func loadHistory(session *sessions.Session) *chat.History {
	history := chat.NewHistory()
	raw, ok := session.Values[historyKey].(string)
	if !ok || raw == "" {
		return history
	}
	if err := json.Unmarshal([]byte(raw), history); err != nil {
		logger.Logger.WithError(err).Warn("discarding unreadable chat history")
		return chat.NewHistory()
	}
	return history
}

// Reply - ответ ассистента с учётом истории разговора
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	text := readText(r)
	if text == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, chatResponse{OK: false, Error: "empty"})
		return
	}

	session, err := h.Sessions.Get(r, config.SessionName)
	if err != nil {
		logger.Logger.WithError(err).Debug("starting new chat session")
	}
	history := loadHistory(session)

	reply := h.Responder.Respond(r.Context(), text, history)

	raw, err := json.Marshal(history)
	if err == nil {
		session.Values[historyKey] = string(raw)
		err = session.Save(r, w)
	}
	if err != nil {
		logger.Logger.WithError(err).Error("save chat history")
	}

	httpx.WriteJSON(w, http.StatusOK, chatResponse{OK: true, Answer: reply.Answer, Emotion: reply.Emotion})
}

// ResetHistory - начать разговор заново
func (h *Handler) ResetHistory(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Sessions.Get(r, config.SessionName)
	delete(session.Values, historyKey)
	if err := session.Save(r, w); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Error saving session", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, chatResponse{OK: true})
}
