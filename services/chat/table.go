package chat

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultTable []byte

// Rule - категория и ключевые слова, по которым она определяется
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

func (r Rule) matches(lowered string) bool {
	return containsAny(lowered, r.Keywords)
}

// Table - упорядоченный список правил
type Table []Rule

// First - первая подходящая категория
func (t Table) First(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, r := range t {
		if r.matches(lowered) {
			return r.Category, true
		}
	}
	return "", false
}

// All - все подходящие категории в порядке таблицы
func (t Table) All(text string) []string {
	lowered := strings.ToLower(text)
	var out []string
	for _, r := range t {
		if r.matches(lowered) {
			out = append(out, r.Category)
		}
	}
	return out
}

func containsAny(lowered string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

type Replies struct {
	Distress         string            `yaml:"distress"`
	Emotions         map[string]string `yaml:"emotions"`
	IntentPrecedence []string          `yaml:"intent_precedence"`
	Intents          map[string]string `yaml:"intents"`
	Generic          string            `yaml:"generic"`
}

// Rules - словари классификации и заготовленные ответы
type Rules struct {
	SystemPrompt string   `yaml:"system_prompt"`
	Distress     []string `yaml:"distress"`
	Emotions     Table    `yaml:"emotions"`
	Intents      Table    `yaml:"intents"`
	Replies      Replies  `yaml:"replies"`
	DangerMarker string   `yaml:"danger_marker"`
	SafetyNote   string   `yaml:"safety_note"`
}

// ParseRules читает таблицу из YAML; ключевые слова приводятся к нижнему регистру
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse chat rules: %w", err)
	}
	if r.Replies.Generic == "" || r.SafetyNote == "" || r.DangerMarker == "" {
		return nil, fmt.Errorf("chat rules: generic reply, danger marker and safety note are required")
	}
	lower(r.Distress)
	for _, t := range []Table{r.Emotions, r.Intents} {
		for i := range t {
			lower(t[i].Keywords)
		}
	}
	r.DangerMarker = strings.ToLower(r.DangerMarker)
	return &r, nil
}

func lower(words []string) {
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
}

// DefaultRules - встроенная таблица
func DefaultRules() *Rules {
	r, err := ParseRules(defaultTable)
	if err != nil {
		panic(err)
	}
	return r
}
