package chat

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"sisterhood-backend/logger"
)

const DefaultTimeout = 15 * time.Second

const (
	SourceModel  = "model"
	SourceScript = "script"
)

type Reply struct {
	Answer   string   `json:"answer"`
	Emotion  Emotion  `json:"emotion"`
	Intents  []Intent `json:"intents"`
	Distress bool     `json:"distress"`
	Source   string   `json:"source"`
}

// Responder - классификация, обращение к модели и запасные ответы
type Responder struct {
	rules   *Rules
	gen     Generator
	timeout time.Duration
}

type ResponderOption func(*Responder)

func WithRules(r *Rules) ResponderOption {
	return func(rs *Responder) { rs.rules = r }
}

func WithTimeout(d time.Duration) ResponderOption {
	return func(rs *Responder) {
		if d > 0 {
			rs.timeout = d
		}
	}
}

// NewResponder; gen может быть nil - тогда отвечают только заготовки
func NewResponder(gen Generator, opts ...ResponderOption) *Responder {
	r := &Responder{gen: gen, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	if r.rules == nil {
		r.rules = DefaultRules()
	}
	return r
}

func (r *Responder) Rules() *Rules {
	return r.rules
}

// Prompt - системная инструкция, последние PromptWindow реплик и новое сообщение
func (r *Responder) Prompt(text string, history *History) []Turn {
	recent := history.Recent(PromptWindow)
	messages := make([]Turn, 0, len(recent)+2)
	messages = append(messages, Turn{Role: RoleSystem, Content: r.rules.SystemPrompt})
	messages = append(messages, recent...)
	return append(messages, Turn{Role: RoleUser, Content: text})
}

// Respond строит ответ и дописывает обе реплики в историю
func (r *Responder) Respond(ctx context.Context, text string, history *History) Reply {
	emotion, distress := r.rules.ClassifyEmotion(text)
	intents := r.rules.ClassifyIntent(text)

	reply := Reply{Emotion: emotion, Intents: intents, Distress: distress, Source: SourceScript}
	if r.gen != nil {
		res := bestEffort(ctx, r.gen, r.timeout, r.Prompt(text, history))
		if res.OK() {
			reply.Answer = res.Text
			reply.Source = SourceModel
		} else {
			logger.Logger.WithFields(logrus.Fields{
				"emotion":  emotion,
				"distress": distress,
			}).WithError(res.Err).Warn("language model unavailable, using scripted reply")
		}
	}
	if reply.Answer == "" {
		reply.Answer = r.rules.ScriptedReply(emotion, distress, intents)
	}
	reply.Answer = r.rules.WithSafetyNote(reply.Answer, distress)

	history.Append(
		Turn{Role: RoleUser, Content: text},
		Turn{Role: RoleAssistant, Content: reply.Answer},
	)
	return reply
}
