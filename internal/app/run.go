package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"docqa/internal/conversation"
	"docqa/internal/session"

	"github.com/rs/zerolog/log"
)

const helpText = `Commands:
  <path> or /upload <path>   index a document (pdf, docx, txt, csv, md)
  /history                   show the conversation so far
  /clear                     forget the conversation
  /help                      show this help
  /quit                      exit
Anything else is a question about the uploaded documents.`

// Run reads lines from in until EOF, /quit or ctx is cancelled.
func Run(ctx context.Context, s *session.Session, in io.Reader, out io.Writer) error {
	log.Info().Msg("🚀 Application started")
	fmt.Fprintln(out, "Enter a file path to upload it, or ask a question. /help for commands.")

	scanner := bufio.NewScanner(in)

	// Увеличим буфер, если пути/строки будут длинные
	const maxLineSize = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("👋 Shutting down application")
			return nil
		default:
			// читаем строку
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("stdin error: %w", err)
				}
				// EOF
				log.Debug().Msg("stdin closed")
				return nil
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if quit := handleLine(ctx, s, line, out); quit {
				return nil
			}
		}
	}
}

// handleLine returns true when the user asked to quit.
func handleLine(ctx context.Context, s *session.Session, line string, out io.Writer) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(out, helpText)
	case "/clear":
		s.Clear()
		infoColor.Fprintln(out, "🧹 Conversation cleared")
	case "/history":
		printHistory(out, s.History())
	case "/upload":
		if arg == "" {
			errorColor.Fprintln(out, "❌ Usage: /upload <path>")
			return false
		}
		upload(ctx, s, arg, out)
	default:
		// Строка - путь к существующему файлу?
		if info, err := os.Stat(line); err == nil && !info.IsDir() {
			upload(ctx, s, line, out)
			return false
		}
		if strings.HasPrefix(cmd, "/") {
			errorColor.Fprintf(out, "❌ Unknown command %s, try /help\n", cmd)
			return false
		}
		ask(ctx, s, line, out)
	}
	return false
}

func upload(ctx context.Context, s *session.Session, path string, out io.Writer) {
	report, err := uploadFile(ctx, s, path)
	switch {
	case errors.Is(err, session.ErrUnsupportedFormat):
		errorColor.Fprintf(out, "❌ Unsupported format: %s\n", report.Name)
	case err != nil && report.Written > 0:
		errorColor.Fprintf(out, "⚠️  %s partially indexed (%d of %d chunks): %v\n", report.Name, report.Written, report.Chunks, err)
	case err != nil:
		errorColor.Fprintf(out, "❌ Processing failed: %v\n", err)
	default:
		infoColor.Fprintf(out, "✅ Indexed %s: %d chunks from %d segments\n", report.Name, report.Written, report.Segments)
	}
}

func ask(ctx context.Context, s *session.Session, question string, out io.Writer) {
	if s.Active() == "" {
		infoColor.Fprintln(out, "ℹ️  No document uploaded in this session yet.")
	}
	if err := Ask(ctx, s, question, out); err != nil {
		errorColor.Fprintf(out, "❌ %v\n", err)
	}
}

func printHistory(out io.Writer, history conversation.History) {
	if len(history) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	fmt.Fprint(out, history.Transcript())
}
