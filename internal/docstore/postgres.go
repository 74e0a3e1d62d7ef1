package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lababil/lababil-pos/internal/shared"
)

// Postgres stores documents in a single table:
//
//	CREATE TABLE IF NOT EXISTS documents (
//	    collection text NOT NULL,
//	    id         text NOT NULL,
//	    data       jsonb NOT NULL,
//	    updated_at timestamptz NOT NULL DEFAULT now(),
//	    PRIMARY KEY (collection, id)
//	);
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed Store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const uniqueViolation = "23505"

// EnsureSchema creates the documents table when it does not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection text NOT NULL,
			id         text NOT NULL,
			data       jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`)
	if err != nil {
		return fmt.Errorf("docstore/postgres: ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) CreateWithID(ctx context.Context, collection, id string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("docstore/postgres: marshal: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
		collection, id, body)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("docstore/postgres: %s/%s: %w", collection, id, shared.ErrDuplicate)
		}
		return fmt.Errorf("docstore/postgres: create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) ReadAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, data FROM documents WHERE collection = $1 ORDER BY id`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("docstore/postgres: read all %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return nil, fmt.Errorf("docstore/postgres: scan %s: %w", collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore/postgres: read all %s: %w", collection, err)
	}
	return out, nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("docstore/postgres: marshal: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE documents SET data = $3, updated_at = now() WHERE collection = $1 AND id = $2`,
		collection, id, body)
	if err != nil {
		return fmt.Errorf("docstore/postgres: update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("docstore/postgres: %s/%s: %w", collection, id, shared.ErrNotFound)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id)
	if err != nil {
		return fmt.Errorf("docstore/postgres: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

var pgOperators = map[Operator]string{
	OpEqual:        "=",
	OpNotEqual:     "<>",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpLess:         "<",
	OpLessEqual:    "<=",
}

func (p *Postgres) QueryByField(ctx context.Context, collection, field string, op Operator, value any) ([]Document, error) {
	sqlOp, ok := pgOperators[op]
	if !ok {
		return nil, fmt.Errorf("docstore/postgres: unsupported operator %q", op)
	}

	// Numbers compare as numeric on the jsonb field, everything else as text.
	var query string
	var arg any
	if num, isNum := toFloat(value); isNum {
		query = fmt.Sprintf(
			`SELECT id, data FROM documents
			 WHERE collection = $1 AND jsonb_typeof(data->$2) = 'number'
			 AND (data->>$2)::numeric %s $3 ORDER BY id`, sqlOp)
		arg = num
	} else {
		str, isStr := value.(string)
		if !isStr {
			return nil, fmt.Errorf("docstore/postgres: unsupported value type %T", value)
		}
		query = fmt.Sprintf(
			`SELECT id, data FROM documents
			 WHERE collection = $1 AND data->>$2 %s $3 ORDER BY id`, sqlOp)
		arg = str
	}

	rows, err := p.pool.Query(ctx, query, collection, field, arg)
	if err != nil {
		return nil, fmt.Errorf("docstore/postgres: query %s.%s: %w", collection, field, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return nil, fmt.Errorf("docstore/postgres: scan %s: %w", collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore/postgres: query %s.%s: %w", collection, field, err)
	}
	return out, nil
}
