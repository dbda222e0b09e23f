package app

import (
	"context"
	"fmt"
	"io"

	"docqa/internal/conversation"
	"docqa/internal/session"

	"github.com/fatih/color"
)

var (
	answerColor = color.New(color.FgGreen)
	sourceColor = color.New(color.FgCyan)
	infoColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
)

// Ask sends one question through s and prints the answer with its sources.
func Ask(ctx context.Context, s *session.Session, question string, out io.Writer) error {
	reply, err := s.Ask(ctx, question)
	if err != nil {
		return err
	}
	printReply(out, reply)
	return nil
}

func printReply(out io.Writer, reply conversation.Reply) {
	answerColor.Fprintf(out, "\n🤖 %s\n", reply.Text)

	if !reply.Grounded {
		infoColor.Fprintln(out, "⚠️  No relevant document context was found for this question.")
		return
	}

	fmt.Fprintf(out, "\n🔍 Found %d relevant sections:\n", len(reply.Sources))
	for i, m := range reply.Sources {
		sourceColor.Fprintf(out, "   %d. %s, %s (similarity: %.2f)\n",
			i+1, m.Metadata["source"], conversation.Location(m), m.Score)
	}
}
