package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/helpdock/helpdock/internal/model"
)

// pgvectorStore keeps records in Postgres with the pgvector extension.
// Embeddings live in a vector column, everything else in a jsonb blob, so
// the record shape matches the hosted backend exactly.
type pgvectorConfig struct {
	DSN       string `json:"dsn"`
	Table     string `json:"table"`
	Dimension int    `json:"dimension"`
}

type pgvectorStore struct {
	db    *sqlx.DB
	table string
}

func init() {
	Register("pgvector", createPgvectorStore)
}

func createPgvectorStore(args interface{}) (Store, error) {
	cfg := &pgvectorConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("vector store dsn is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vector store dimension is required")
	}
	if cfg.Table == "" {
		cfg.Table = "knowledge_vectors"
	}
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &pgvectorStore{db: db, table: cfg.Table}
	if err := store.ensureSchema(cfg.Dimension); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *pgvectorStore) ensureSchema(dimension int) error {
	if _, err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		embedding vector(%d) NOT NULL,
		metadata JSONB NOT NULL
	)`, s.table, dimension)
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

func (s *pgvectorStore) Upsert(ctx context.Context, records []model.Record) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, embedding, metadata) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata`, s.table)
	for _, rec := range records {
		blob, err := json.Marshal(rec.Metadata)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, query, rec.ID, pgvector.NewVector(rec.Values), blob); err != nil {
			return err
		}
	}
	return nil
}

func (s *pgvectorStore) ListIDs(ctx context.Context, prefix string, cursor string, limit int) ([]string, string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	// Raw query instead of the builder: document IDs contain '_', which is a
	// LIKE wildcard, so the pattern needs explicit escaping.
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id LIKE $1 ESCAPE '\' AND id > $2 ORDER BY id LIMIT $3`, s.table)
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, escapeLike(prefix)+"%", cursor, limit); err != nil {
		return nil, "", err
	}
	next := ""
	if len(ids) == limit {
		next = ids[len(ids)-1]
	}
	return ids, next, nil
}

func (s *pgvectorStore) Fetch(ctx context.Context, ids []string) ([]model.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{
		"id in":    ids,
		"_orderby": "id",
	}
	query, args, err := builder.BuildSelect(s.table, where, []string{"id", "embedding", "metadata"})
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.Record
	for rows.Next() {
		var (
			rec  model.Record
			vec  pgvector.Vector
			blob []byte
		)
		if err := rows.Scan(&rec.ID, &vec, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(blob, &rec.Metadata); err != nil {
			return nil, err
		}
		rec.Values = vec.Slice()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *pgvectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := builder.BuildDelete(s.table, map[string]interface{}{"id in": ids})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	return err
}

func (s *pgvectorStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	query := fmt.Sprintf(`SELECT id, embedding, metadata, 1 - (embedding <=> $1) AS score
		FROM %s ORDER BY embedding <=> $1 LIMIT $2`, s.table)
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []Match
	for rows.Next() {
		var (
			rec   model.Record
			vec   pgvector.Vector
			blob  []byte
			score float32
		)
		if err := rows.Scan(&rec.ID, &vec, &blob, &score); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(blob, &rec.Metadata); err != nil {
			return nil, err
		}
		rec.Values = vec.Slice()
		matches = append(matches, Match{Record: rec, Score: score})
	}
	return matches, rows.Err()
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
