package conversation

import (
	"strings"

	"docqa/internal/llm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn - одна реплика диалога
type Turn struct {
	Role    Role
	Content string
}

// History хранит диалог в порядке реплик. Растёт до явной очистки.
type History []Turn

// Memory проецирует историю в сообщения для генератора
func (h History) Memory() []llm.Message {
	if len(h) == 0 {
		return nil
	}
	messages := make([]llm.Message, 0, len(h))
	for _, t := range h {
		role := llm.RoleUser
		if t.Role == RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Content})
	}
	return messages
}

// With возвращает новую историю с добавленной парой вопрос/ответ.
// Исходный срез не изменяется.
func (h History) With(question, answer string) History {
	next := make(History, len(h), len(h)+2)
	copy(next, h)
	return append(next,
		Turn{Role: RoleUser, Content: question},
		Turn{Role: RoleAssistant, Content: answer},
	)
}

// Transcript рендерит историю как "Human: ... / Assistant: ..." строки
func (h History) Transcript() string {
	var buf strings.Builder
	for _, t := range h {
		if t.Role == RoleAssistant {
			buf.WriteString("Assistant: ")
		} else {
			buf.WriteString("Human: ")
		}
		buf.WriteString(t.Content)
		buf.WriteString("\n")
	}
	return buf.String()
}
