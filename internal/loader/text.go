package loader

import (
	"fmt"
	"unicode/utf8"
)

func loadText(source string, content []byte) ([]Segment, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: %w", source, ErrDecode)
	}
	if len(content) == 0 {
		return nil, nil
	}

	return []Segment{{
		Text:     string(content),
		Source:   source,
		Kind:     KindText,
		Unit:     UnitFile,
		Position: 1,
	}}, nil
}
