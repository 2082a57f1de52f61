package chat

import "strings"

type Emotion string

const (
	EmotionAnxious Emotion = "anxious"
	EmotionSad     Emotion = "sad"
	EmotionHappy   Emotion = "happy"
	EmotionNeutral Emotion = "neutral"
)

type Intent string

const (
	IntentCareer       Intent = "career"
	IntentRelationship Intent = "relationship"
	IntentHealth       Intent = "health"
	IntentSupport      Intent = "support"
	IntentReport       Intent = "report"
	IntentWellness     Intent = "wellness"
)

// ClassifyEmotion - эмоция по первому совпадению и независимый признак дистресса
func (r *Rules) ClassifyEmotion(text string) (Emotion, bool) {
	distress := containsAny(strings.ToLower(text), r.Distress)
	if category, ok := r.Emotions.First(text); ok {
		return Emotion(category), distress
	}
	return EmotionNeutral, distress
}

// ClassifyIntent - все темы сообщения
func (r *Rules) ClassifyIntent(text string) []Intent {
	var intents []Intent
	for _, c := range r.Intents.All(text) {
		intents = append(intents, Intent(c))
	}
	return intents
}

// ScriptedReply выбирает заготовку: дистресс, эмоция, тема, общий ответ
func (r *Rules) ScriptedReply(emotion Emotion, distress bool, intents []Intent) string {
	if distress {
		return r.Replies.Distress
	}
	if reply, ok := r.Replies.Emotions[string(emotion)]; ok && emotion != EmotionNeutral {
		return reply
	}
	found := make(map[Intent]bool, len(intents))
	for _, i := range intents {
		found[i] = true
	}
	for _, name := range r.Replies.IntentPrecedence {
		if found[Intent(name)] {
			if reply, ok := r.Replies.Intents[name]; ok {
				return reply
			}
		}
	}
	return r.Replies.Generic
}

// WithSafetyNote добавляет памятку, если ответ ещё не упоминает экстренную помощь
func (r *Rules) WithSafetyNote(answer string, distress bool) string {
	if !distress || strings.Contains(strings.ToLower(answer), r.DangerMarker) {
		return answer
	}
	return answer + r.SafetyNote
}
