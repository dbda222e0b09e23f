package index

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckIndexName(t *testing.T) {
	tests := []struct {
		name    string
		index   string
		wantErr bool
	}{
		{"short", "docs", false},
		{"longest allowed", strings.Repeat("a", maxIndexNameLen), false},
		{"one byte too long", strings.Repeat("a", maxIndexNameLen+1), true},
		{"multibyte counts bytes", strings.Repeat("я", maxIndexNameLen/2+1), true},
		{"registry table", "indexes", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkIndexName(tt.index)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIndexName)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPGVectorStore_CreateIndexRejectsLongName(t *testing.T) {
	// the name check runs before any database call
	store := &PGVectorStore{}

	long := strings.Repeat("handbook_", 6)
	err := store.CreateIndex(context.Background(), Spec{Name: long, Dimension: 8, Metric: MetricCosine})
	assert.ErrorIs(t, err, ErrInvalidIndexName)
	assert.Contains(t, err.Error(), "at most 43")
}

func TestIdentifiersFitPostgresLimit(t *testing.T) {
	name := strings.Repeat("x", maxIndexNameLen)
	assert.LessOrEqual(t, len(tablePrefix+name+vectorIdxSuffix), maxIdentifierLen)
}
