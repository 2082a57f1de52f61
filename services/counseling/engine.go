package counseling

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"sisterhood-backend/cache"
)

// Actor - пользователь, от имени которого выполняется операция
type Actor struct {
	UserID  uint
	IsStaff bool
}

// Engine - реестр слотов и записи к консультантам
type Engine struct {
	db       *gorm.DB
	now      func() time.Time
	cache    cache.Cache
	cacheTTL time.Duration
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

func NewEngine(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		now:      time.Now,
		cache:    cache.NewNoop(),
		cacheTTL: time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

// notFound переводит gorm.ErrRecordNotFound в ErrNotFound
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	return err
}
