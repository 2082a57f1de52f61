package chat

import "encoding/json"

const (
	HistoryCapacity = 12
	PromptWindow    = 8

	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History - кольцевой буфер последних реплик; меняется только через Append
type History struct {
	buf   [HistoryCapacity]Turn
	start int
	size  int
}

func NewHistory(turns ...Turn) *History {
	h := &History{}
	h.Append(turns...)
	return h
}

// Append добавляет реплики, вытесняя самые старые
func (h *History) Append(turns ...Turn) {
	for _, t := range turns {
		if h.size < HistoryCapacity {
			h.buf[(h.start+h.size)%HistoryCapacity] = t
			h.size++
			continue
		}
		h.buf[h.start] = t
		h.start = (h.start + 1) % HistoryCapacity
	}
}

func (h *History) Len() int {
	return h.size
}

// Turns - копия реплик от старых к новым
func (h *History) Turns() []Turn {
	return h.Recent(h.size)
}

// Recent - последние n реплик
func (h *History) Recent(n int) []Turn {
	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return []Turn{}
	}
	out := make([]Turn, 0, n)
	for i := h.size - n; i < h.size; i++ {
		out = append(out, h.buf[(h.start+i)%HistoryCapacity])
	}
	return out
}

func (h *History) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Turns())
}

func (h *History) UnmarshalJSON(data []byte) error {
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return err
	}
	*h = History{}
	h.Append(turns...)
	return nil
}
