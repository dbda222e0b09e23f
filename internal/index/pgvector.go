package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// registryTable records every index created through PGVectorStore.
const registryTable = "docqa_indexes"

const (
	tablePrefix     = "docqa_"
	vectorIdxSuffix = "_embedding_idx"

	// Postgres обрезает идентификаторы длиннее 63 байт без ошибки
	maxIdentifierLen = 63
	maxIndexNameLen  = maxIdentifierLen - len(tablePrefix) - len(vectorIdxSuffix)
)

// PGVectorStore keeps each index as a table with a vector column.
type PGVectorStore struct {
	pool *pgxpool.Pool
}

// NewPGVectorStore connects with dsn, checks the vector extension and
// creates the index registry if needed.
func NewPGVectorStore(ctx context.Context, dsn string) (*PGVectorStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// типы vector регистрируются на каждом соединении
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	var extExists bool
	err = pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&extExists)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to check pgvector extension: %w", err)
	}
	if !extExists {
		pool.Close()
		return nil, errors.New("pgvector extension not installed - run: CREATE EXTENSION vector")
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+registryTable+` (
			name TEXT PRIMARY KEY,
			dimension INT NOT NULL,
			metric TEXT NOT NULL,
			cloud TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create index registry: %w", err)
	}

	return &PGVectorStore{pool: pool}, nil
}

func tableFor(name string) string {
	return pgx.Identifier{tablePrefix + name}.Sanitize()
}

// checkIndexName rejects names whose table or vector index identifier Postgres would truncate.
func checkIndexName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidIndexName)
	}
	if tablePrefix+name == registryTable {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidIndexName, name)
	}
	if len(name) > maxIndexNameLen {
		return fmt.Errorf("%w: %q is %d bytes, pgvector backend allows at most %d", ErrInvalidIndexName, name, len(name), maxIndexNameLen)
	}
	return nil
}

func (s *PGVectorStore) CreateIndex(ctx context.Context, spec Spec) error {
	if err := checkIndexName(spec.Name); err != nil {
		return err
	}
	if spec.Metric != "" && spec.Metric != MetricCosine {
		return fmt.Errorf("%w: %s", ErrUnsupportedMetric, spec.Metric)
	}
	if spec.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive to create index %s", spec.Name)
	}

	table := tableFor(spec.Name)
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d) NOT NULL
		)`, table, spec.Dimension))
	if err != nil {
		return fmt.Errorf("failed to create table for index %s: %w", spec.Name, err)
	}

	_, err = tx.Exec(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)",
		pgx.Identifier{tablePrefix + spec.Name + vectorIdxSuffix}.Sanitize(), table))
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO "+registryTable+" (name, dimension, metric, cloud, region) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name) DO NOTHING",
		spec.Name, spec.Dimension, MetricCosine, spec.Cloud, spec.Region)
	if err != nil {
		return fmt.Errorf("failed to register index %s: %w", spec.Name, err)
	}

	return tx.Commit(ctx)
}

func (s *PGVectorStore) ListIndexNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT name FROM "+registryTable+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PGVectorStore) exists(ctx context.Context, name string) error {
	var found bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM "+registryTable+" WHERE name = $1)", name).Scan(&found)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	return nil
}

func (s *PGVectorStore) Upsert(ctx context.Context, name string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.exists(ctx, name); err != nil {
		return err
	}

	upsertSQL := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`, tableFor(name))

	batch := &pgx.Batch{}
	for _, r := range records {
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for record %s: %w", r.ID, err)
		}
		batch.Queue(upsertSQL, r.ID, r.Text, metadataJSON, pgvector.NewVector(r.Vector))
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to store record %d: %w", i, err)
		}
	}
	return nil
}

func (s *PGVectorStore) Query(ctx context.Context, name string, vector []float32, k int) ([]Match, error) {
	if err := s.exists(ctx, name); err != nil {
		return nil, err
	}

	// <=> - косинусное расстояние, similarity = 1 - distance
	querySQL := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, tableFor(name))

	rows, err := s.pool.Query(ctx, querySQL, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("pgvector search failed: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var metadataJSON []byte
		var similarity float64
		if err := rows.Scan(&m.ID, &m.Text, &metadataJSON, &similarity); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
		}
		m.Score = float32(similarity)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return matches, nil
}

func (s *PGVectorStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}
