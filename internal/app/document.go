package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"docqa/internal/session"
)

// IngestSummary - итог загрузки нескольких файлов
type IngestSummary struct {
	Files   int
	Indexed int
	Failed  int
	Chunks  int
}

// Ingest uploads every path through s one after another and prints a summary.
// A failed file does not stop the rest.
func Ingest(ctx context.Context, s *session.Session, paths []string, out io.Writer) IngestSummary {
	summary := IngestSummary{Files: len(paths)}

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		report, err := uploadFile(ctx, s, path)
		summary.Chunks += report.Written
		if err != nil {
			summary.Failed++
			errorColor.Fprintf(out, "❌ %s: %v\n", path, err)
			continue
		}

		summary.Indexed++
		fmt.Fprintf(out, "✅ Indexed %s: %d chunks from %d segments (%s)\n",
			report.Name, report.Written, report.Segments, report.Duration.Round(time.Millisecond))
	}

	line := strings.Repeat("━", 60)
	fmt.Fprintln(out, line)
	fmt.Fprintln(out, "📊 Summary:")
	fmt.Fprintf(out, "   Total files: %d\n", summary.Files)
	fmt.Fprintf(out, "   ✅ Indexed: %d\n", summary.Indexed)
	fmt.Fprintf(out, "   ❌ Errors: %d\n", summary.Failed)
	fmt.Fprintf(out, "   📦 Chunks: %d\n", summary.Chunks)
	fmt.Fprintln(out, line)

	return summary
}

func uploadFile(ctx context.Context, s *session.Session, path string) (session.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return session.Report{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return s.Upload(ctx, path, f)
}
