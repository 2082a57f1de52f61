package authentication

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"gorm.io/gorm"

	"sisterhood-backend/controllers/httpx"
	"sisterhood-backend/models/users"
)

type Claims struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsStaff bool   `json:"is_staff"`
	jwt.StandardClaims
}

type claimsKey struct{}

// TokenManager выпускает и проверяет JWT
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	db     *gorm.DB
}

type TokenOption func(*TokenManager)

// RefreshFrom - роль и is_staff берутся из базы на каждый запрос, а не из токена;
// токен удалённого пользователя перестаёт действовать сразу
func RefreshFrom(db *gorm.DB) TokenOption {
	return func(m *TokenManager) { m.db = db }
}

func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	m := &TokenManager{secret: []byte(secret), ttl: ttl}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue - токен для пользователя
func (m *TokenManager) Issue(user *users.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		IsStaff: user.IsStaff,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateToken - проверка заголовка Authorization: Bearer <token>
func (m *TokenManager) ValidateToken(r *http.Request) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("authorization header required")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil, errors.New("bearer token required")
	}
	return m.Parse(tokenString)
}

// Middleware пропускает только запросы с действующим токеном
func (m *TokenManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.ValidateToken(r)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized: "+err.Error(), nil)
			return
		}
		if err := m.refresh(r.Context(), claims); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized: account no longer exists", nil)
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "Failed to load account", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (m *TokenManager) refresh(ctx context.Context, claims *Claims) error {
	if m.db == nil {
		return nil
	}
	var user users.User
	if err := m.db.WithContext(ctx).Select("id", "email", "role", "is_staff").First(&user, claims.UserID).Error; err != nil {
		return err
	}
	claims.Email, claims.Role, claims.IsStaff = user.Email, user.Role, user.IsStaff
	return nil
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}
