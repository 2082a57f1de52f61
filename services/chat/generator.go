package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cohere-ai/cohere-go"
	"github.com/sashabaranov/go-openai"
)

var ErrEmptyAnswer = errors.New("generator returned an empty answer")

// Generator - внешняя языковая модель
type Generator interface {
	Generate(ctx context.Context, messages []Turn) (string, error)
}

// OpenAIGenerator - chat completions через go-openai
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAI(apiKey, model string) *OpenAIGenerator {
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model)
}

func NewOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAIGenerator {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   300,
		temperature: 0.7,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, messages []Turn) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyAnswer)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CohereGenerator - запасная модель; история разговора сворачивается в один prompt
type CohereGenerator struct {
	client *cohere.Client
	model  string
}

// NewCohere; timeout ограничивает каждый HTTP-запрос, cohere-go не принимает context
func NewCohere(apiKey string, timeout time.Duration) (*CohereGenerator, error) {
	client, err := cohere.CreateClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("cohere client: %w", err)
	}
	return NewCohereWithClient(client, timeout), nil
}

func NewCohereWithClient(client *cohere.Client, timeout time.Duration) *CohereGenerator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client.Client = http.Client{Timeout: timeout}
	return &CohereGenerator{client: client, model: "command"}
}

func (g *CohereGenerator) Generate(ctx context.Context, messages []Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := g.client.Generate(cohere.GenerateOptions{
		Model:  g.model,
		Prompt: flattenPrompt(messages),
	})
	if err != nil {
		return "", fmt.Errorf("cohere: %w", err)
	}
	if len(resp.Generations) == 0 {
		return "", fmt.Errorf("cohere: %w", ErrEmptyAnswer)
	}
	return strings.TrimSpace(resp.Generations[0].Text), nil
}

func flattenPrompt(messages []Turn) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			b.WriteString(m.Content)
		case RoleUser:
			b.WriteString("User: " + m.Content)
		default:
			b.WriteString("Assistant: " + m.Content)
		}
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}

// Chain опрашивает генераторы по порядку до первого непустого ответа
type Chain []Generator

func (c Chain) Generate(ctx context.Context, messages []Turn) (string, error) {
	if len(c) == 0 {
		return "", errors.New("no generators configured")
	}
	var errs []error
	for _, g := range c {
		text, err := g.Generate(ctx, messages)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err == nil {
			err = ErrEmptyAnswer
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", errors.Join(errs...)
}

// Result - итог обращения к модели: текст или ошибка, без паники и без проброса наверх
type Result struct {
	Text string
	Err  error
}

func (r Result) OK() bool {
	return r.Err == nil && r.Text != ""
}

// bestEffort ограничивает вызов таймаутом и превращает любой сбой в Result
func bestEffort(ctx context.Context, g Generator, timeout time.Duration, messages []Turn) Result {
	if g == nil {
		return Result{Err: errors.New("no generator configured")}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- Result{Err: fmt.Errorf("generator panic: %v", p)}
			}
		}()
		text, err := g.Generate(ctx, messages)
		ch <- Result{Text: strings.TrimSpace(text), Err: err}
	}()

	select {
	case r := <-ch:
		if r.Err == nil && r.Text == "" {
			r.Err = ErrEmptyAnswer
		}
		return r
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}
