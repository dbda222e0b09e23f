package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"docqa/internal/index"
	"docqa/internal/loader"
)

// buildAnswerPrompt формирует промпт из найденных чанков и вопроса
func buildAnswerPrompt(question string, matches []index.Match) string {
	var buf strings.Builder

	buf.WriteString("Use the following pieces of context to answer the question at the end. ")
	buf.WriteString("If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n")

	buf.WriteString("Context:\n")
	for i, m := range matches {
		buf.WriteString(fmt.Sprintf("%d. [%s, %s] (similarity: %.2f)\n", i+1, m.Metadata["source"], Location(m), m.Score))
		buf.WriteString("<<<\n")
		buf.WriteString(m.Text)
		buf.WriteString("\n>>>\n\n")
	}

	buf.WriteString("Question: ")
	buf.WriteString(question)
	buf.WriteString("\nHelpful Answer:")

	return buf.String()
}

// buildUngroundedPrompt используется, когда индекс ничего не вернул
func buildUngroundedPrompt(question string) string {
	var buf strings.Builder

	buf.WriteString("No document context is available for this question. ")
	buf.WriteString("Answer from the conversation so far if you can; otherwise say that the uploaded documents do not cover it.\n\n")
	buf.WriteString("Question: ")
	buf.WriteString(question)
	buf.WriteString("\nHelpful Answer:")

	return buf.String()
}

// buildCondensePrompt просит переформулировать follow-up в самостоятельный вопрос
func buildCondensePrompt(question string, history History) string {
	var buf strings.Builder

	buf.WriteString("Given the following conversation and a follow up question, ")
	buf.WriteString("rephrase the follow up question to be a standalone question, in its original language.\n\n")
	buf.WriteString("Chat History:\n")
	buf.WriteString(history.Transcript())
	buf.WriteString("Follow Up Input: ")
	buf.WriteString(question)
	buf.WriteString("\nStandalone question:")

	return buf.String()
}

// Location восстанавливает место чанка в документе из метаданных: "page 3", `section "Setup"`
func Location(m index.Match) string {
	position, _ := strconv.Atoi(m.Metadata["position"])
	seg := loader.Segment{
		Source:   m.Metadata["source"],
		Unit:     m.Metadata["unit"],
		Position: position,
		Section:  m.Metadata["section"],
	}
	if seg.Unit == "" {
		return seg.Source
	}
	return seg.Location()
}
