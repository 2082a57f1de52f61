package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"sisterhood-backend/config"
	"sisterhood-backend/controllers/authentication"
	"sisterhood-backend/controllers/chatbot"
	"sisterhood-backend/controllers/community"
	"sisterhood-backend/controllers/counseling"
	"sisterhood-backend/controllers/httpCors"
	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/controllers/middleware"
	"sisterhood-backend/controllers/stories"
	"sisterhood-backend/services/chat"
	engine "sisterhood-backend/services/counseling"
	"sisterhood-backend/services/media"
	"sisterhood-backend/validation"
)

// Dependencies - всё, что нужно обработчикам
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Tokens    *authentication.TokenManager
	Sessions  sessions.Store
	OAuth     *oauth2.Config
	Engine    *engine.Engine
	Responder *chat.Responder
	Media     media.Store
}

// New собирает маршрутизатор со всеми маршрутами API
func New(deps Dependencies) http.Handler {
	v := validation.New()
	auth := &authentication.Handler{DB: deps.DB, Tokens: deps.Tokens, Validator: v, OAuth: deps.OAuth, Sessions: deps.Sessions}
	booking := &counseling.Handler{Engine: deps.Engine, Validator: v}
	bot := &chatbot.Handler{Responder: deps.Responder, Sessions: deps.Sessions}
	feed := &stories.Handler{DB: deps.DB, Media: deps.Media}
	groups := &community.Handler{DB: deps.DB, Media: deps.Media, Validator: v}

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger)
	r.HandleFunc("/healthz", health(deps.DB)).Methods(http.MethodGet)

	// публичные маршруты
	public := r.PathPrefix("/api").Subrouter()
	public.HandleFunc("/auth/register", auth.Register).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost)
	public.HandleFunc("/auth/logout", auth.Logout).Methods(http.MethodPost)
	public.HandleFunc("/auth/google/login", auth.HandleGoogleLogin).Methods(http.MethodGet)
	public.HandleFunc("/auth/google/callback", auth.HandleGoogleCallback).Methods(http.MethodGet)
	public.HandleFunc("/counselors", booking.ListCounselors).Methods(http.MethodGet)
	public.HandleFunc("/counselors/{id:[0-9]+}", booking.GetCounselor).Methods(http.MethodGet)
	public.HandleFunc("/counselors/{id:[0-9]+}/available-slots", booking.AvailableSlots).Methods(http.MethodGet)
	public.HandleFunc("/slots", booking.ListSlots).Methods(http.MethodGet)

	limiter := middleware.NewRateLimiter(deps.Config.ChatRateLimit, time.Minute,
		middleware.TrustForwardedFor(deps.Config.TrustProxy))
	public.Handle("/chat", limiter.Middleware(http.HandlerFunc(bot.Reply))).Methods(http.MethodPost)
	public.HandleFunc("/chat/history", bot.ResetHistory).Methods(http.MethodDelete)

	// маршруты с JWT
	api := r.PathPrefix("/api").Subrouter()
	api.Use(deps.Tokens.Middleware)

	api.HandleFunc("/profile", auth.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile", auth.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/profile", auth.DeleteAccount).Methods(http.MethodDelete)
	api.HandleFunc("/profile/password", auth.ChangePassword).Methods(http.MethodPut)
	api.HandleFunc("/users", auth.SearchUsers).Methods(http.MethodGet)

	api.HandleFunc("/counselors", booking.CreateProfile).Methods(http.MethodPost)
	api.HandleFunc("/counselors/me", booking.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/counselors/{id:[0-9]+}/verify", booking.VerifyCounselor).Methods(http.MethodPost)
	api.HandleFunc("/slots", booking.CreateSlot).Methods(http.MethodPost)
	api.HandleFunc("/slots/{id:[0-9]+}", booking.UpdateSlot).Methods(http.MethodPut)
	api.HandleFunc("/slots/{id:[0-9]+}", booking.DeleteSlot).Methods(http.MethodDelete)
	api.HandleFunc("/bookings", booking.ListBookings).Methods(http.MethodGet)
	api.HandleFunc("/bookings", booking.CreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id:[0-9]+}", booking.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id:[0-9]+}/cancel", booking.CancelBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id:[0-9]+}/confirm", booking.ConfirmBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id:[0-9]+}/complete", booking.CompleteBooking).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id:[0-9]+}/feedback", booking.SubmitFeedback).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id:[0-9]+}/session", booking.Session).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/patient", booking.PatientDashboard).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/counselor", booking.CounselorDashboard).Methods(http.MethodGet)

	api.HandleFunc("/posts", feed.ListPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts", feed.CreatePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id:[0-9]+}", feed.DeletePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id:[0-9]+}/like", feed.ToggleLike).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id:[0-9]+}/comments", feed.ListComments).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}/comments", feed.CreateComment).Methods(http.MethodPost)
	api.HandleFunc("/stories", feed.ListStories).Methods(http.MethodGet)
	api.HandleFunc("/stories", feed.CreateStory).Methods(http.MethodPost)
	api.HandleFunc("/stories/{id:[0-9]+}", feed.GetStory).Methods(http.MethodGet)
	api.HandleFunc("/stories/{id:[0-9]+}", feed.DeleteStory).Methods(http.MethodDelete)
	api.HandleFunc("/stories/{id:[0-9]+}/view", feed.ViewStory).Methods(http.MethodPost)
	api.HandleFunc("/notifications", feed.GetNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id:[0-9]+}/read", feed.MarkNotificationAsRead).Methods(http.MethodPost)

	api.HandleFunc("/groups", groups.ListGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups", groups.CreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id:[0-9]+}", groups.GetGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id:[0-9]+}/join", groups.JoinGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id:[0-9]+}/leave", groups.LeaveGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id:[0-9]+}/discussions", groups.CreateDiscussion).Methods(http.MethodPost)
	api.HandleFunc("/discussions/{id:[0-9]+}", groups.GetDiscussion).Methods(http.MethodGet)
	api.HandleFunc("/discussions/{id:[0-9]+}/like", groups.ToggleDiscussionLike).Methods(http.MethodPost)
	api.HandleFunc("/discussions/{id:[0-9]+}/comments", groups.CreateComment).Methods(http.MethodPost)
	api.HandleFunc("/discussions/{id:[0-9]+}/pin", groups.PinDiscussion).Methods(http.MethodPost)

	return httpCors.CorsSettings(deps.Config).Handler(r)
}

func health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
