package index

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	qd "github.com/qdrant/go-client/qdrant"
)

const (
	qdrantDefaultPort = 6334

	payloadText    = "text"
	payloadChunkID = "chunk_id"
	payloadMeta    = "meta_"
)

// QdrantStore keeps each index as a Qdrant collection.
type QdrantStore struct {
	client *qd.Client
}

// NewQdrantStore connects to the gRPC endpoint at rawURL (http or https).
func NewQdrantStore(rawURL, apiKey string) (*QdrantStore, error) {
	cfg, err := qdrantConfig(rawURL, apiKey)
	if err != nil {
		return nil, err
	}

	client, err := qd.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &QdrantStore{client: client}, nil
}

func qdrantConfig(rawURL, apiKey string) (*qd.Config, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant URL: %w", err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid qdrant URL %q: missing host", rawURL)
	}

	port := qdrantDefaultPort
	if p := parsed.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port %q: %w", p, err)
		}
	}

	return &qd.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: apiKey,
		UseTLS: parsed.Scheme == "https",
	}, nil
}

func (s *QdrantStore) CreateIndex(ctx context.Context, spec Spec) error {
	if spec.Metric != "" && spec.Metric != MetricCosine {
		return fmt.Errorf("%w: %s", ErrUnsupportedMetric, spec.Metric)
	}

	return s.client.CreateCollection(ctx, &qd.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
			Size:     uint64(spec.Dimension),
			Distance: qd.Distance_Cosine,
		}),
	})
}

func (s *QdrantStore) ListIndexNames(ctx context.Context) ([]string, error) {
	return s.client.ListCollections(ctx)
}

func (s *QdrantStore) Upsert(ctx context.Context, name string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qd.PointStruct, 0, len(records))
	for _, r := range records {
		points = append(points, &qd.PointStruct{
			Id:      qd.NewIDUUID(pointID(r.ID)),
			Vectors: qd.NewVectors(r.Vector...),
			Payload: buildPayload(r),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: name,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points to collection %s: %w", name, err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, name string, vector []float32, k int) ([]Match, error) {
	limit := uint64(k)
	points, err := s.client.Query(ctx, &qd.QueryPoints{
		CollectionName: name,
		Query:          qd.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qd.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		matches = append(matches, matchFromPayload(p.GetPayload(), p.GetScore()))
	}
	return matches, nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointID maps a chunk id onto a UUIDv5, since qdrant accepts only UUIDs or integers.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

func buildPayload(r Record) map[string]*qd.Value {
	payload := make(map[string]*qd.Value, len(r.Metadata)+2)
	payload[payloadText] = qd.NewValueString(r.Text)
	payload[payloadChunkID] = qd.NewValueString(r.ID)
	for k, v := range r.Metadata {
		payload[payloadMeta+k] = qd.NewValueString(v)
	}
	return payload
}

func matchFromPayload(payload map[string]*qd.Value, score float32) Match {
	m := Match{Metadata: make(map[string]string), Score: score}
	for key, value := range payload {
		switch {
		case key == payloadText:
			m.Text = value.GetStringValue()
		case key == payloadChunkID:
			m.ID = value.GetStringValue()
		case strings.HasPrefix(key, payloadMeta):
			m.Metadata[strings.TrimPrefix(key, payloadMeta)] = value.GetStringValue()
		}
	}
	return m
}
