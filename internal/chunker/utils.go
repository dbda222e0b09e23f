package chunker

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"docqa/internal/loader"
)

// CreateChunk создаёт чанк с детерминированным ID.
// Текст не обрезается: overlap между соседними окнами должен сохраниться точно.
func CreateChunk(seg loader.Segment, segIdx, index, start, end int, text string) Chunk {
	hash := sha256.Sum256([]byte(seg.Source + "|" + strconv.Itoa(segIdx) + "|" + strconv.Itoa(start) + "|" + text))

	metadata := map[string]string{
		"source":    seg.Source,
		"kind":      seg.Kind.String(),
		"unit":      seg.Unit,
		"position":  strconv.Itoa(seg.Position),
		"chunk_num": strconv.Itoa(index + 1),
	}
	if seg.Section != "" {
		metadata["section"] = seg.Section
	}

	return Chunk{
		ID:       fmt.Sprintf("%x", hash[:8]),
		Text:     text,
		Source:   seg.Source,
		Section:  seg.Section,
		Segment:  segIdx,
		Index:    index,
		Start:    start,
		End:      end,
		Metadata: metadata,
	}
}

// isBlank - сегмент без содержимого не даёт чанков
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
