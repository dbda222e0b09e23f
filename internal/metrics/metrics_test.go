package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.DocumentIngested("pdf")
	m.DocumentIngested("pdf")
	m.DocumentIngested("csv")
	m.ChunksIndexed(12)
	m.QuestionAnswered(true)
	m.QuestionAnswered(false)
	m.Error(StageUpsert)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues("pdf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("csv")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.chunks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.questions.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.questions.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(StageUpsert)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ChunksIndexed(3)
	m.Observe(StageAnswer, time.Now().Add(-time.Second))

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "docqa_chunks_indexed_total 3")
	assert.Contains(t, string(body), `docqa_stage_duration_seconds_count{stage="answer"} 1`)
}
