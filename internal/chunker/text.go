package chunker

import (
	"unicode/utf8"

	"docqa/internal/loader"

	"github.com/rs/zerolog/log"
)

// TextChunker режет каждый сегмент скользящим окном по рунам.
// Окна никогда не пересекают границу сегмента.
type TextChunker struct {
	config Config
}

// NewTextChunker создаёт новый simple chunker
func NewTextChunker(config Config) *TextChunker {
	return &TextChunker{config: config}
}

func (s *TextChunker) Name() string {
	return "simple"
}

func (s *TextChunker) Chunk(segments []loader.Segment) ([]Chunk, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	var chunks []Chunk
	for i, seg := range segments {
		if isBlank(seg.Text) {
			log.Debug().Str("source", seg.Source).Str("location", seg.Location()).Msg("⏭️  Skipping blank segment")
			continue
		}
		chunks = append(chunks, s.chunkBySize(seg, i)...)
	}

	log.Debug().Msgf("✅ [%s] Created %d chunks from %d segments", s.Name(), len(chunks), len(segments))
	return chunks, nil
}

// chunkBySize простое разбиение по размеру с overlap
func (s *TextChunker) chunkBySize(seg loader.Segment, segIdx int) []Chunk {
	// короткий сегмент - ровно один чанк, без копирования в []rune
	if n := utf8.RuneCountInString(seg.Text); n <= s.config.MaxChunkSize {
		return []Chunk{CreateChunk(seg, segIdx, 0, 0, n, seg.Text)}
	}

	var chunks []Chunk
	runes := []rune(seg.Text)

	for i := 0; i < len(runes); i += s.config.step() {
		end := i + s.config.MaxChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, CreateChunk(seg, segIdx, len(chunks), i, end, string(runes[i:end])))

		if end >= len(runes) {
			break
		}
	}

	return chunks
}
