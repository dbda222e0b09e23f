package conversation

import (
	"testing"

	"docqa/internal/llm"

	"github.com/stretchr/testify/assert"
)

func TestHistory_Memory(t *testing.T) {
	assert.Nil(t, History(nil).Memory())

	h := History{}.With("hi", "hello")
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
	}, h.Memory())
}

func TestHistory_WithCopies(t *testing.T) {
	base := History{}.With("q1", "a1")
	a := base.With("q2", "a2")
	b := base.With("q3", "a3")

	assert.Len(t, base, 2)
	assert.Equal(t, "q2", a[2].Content)
	assert.Equal(t, "q3", b[2].Content)
}

func TestHistory_Transcript(t *testing.T) {
	h := History{}.With("What is it?", "A test.")
	assert.Equal(t, "Human: What is it?\nAssistant: A test.\n", h.Transcript())
	assert.Empty(t, History(nil).Transcript())
}
