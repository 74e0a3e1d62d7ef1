package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lababil/lababil-pos/internal/shared"
)

// Redis stores each collection as one hash, document ID to JSON body.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a Redis-backed Store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "lababil:doc:"}
}

func (r *Redis) key(collection string) string {
	return r.prefix + collection
}

func (r *Redis) CreateWithID(ctx context.Context, collection, id string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("docstore/redis: marshal: %w", err)
	}
	set, err := r.client.HSetNX(ctx, r.key(collection), id, body).Result()
	if err != nil {
		return fmt.Errorf("docstore/redis: create %s/%s: %w", collection, id, err)
	}
	if !set {
		return fmt.Errorf("docstore/redis: %s/%s: %w", collection, id, shared.ErrDuplicate)
	}
	return nil
}

func (r *Redis) ReadAll(ctx context.Context, collection string) ([]Document, error) {
	values, err := r.client.HGetAll(ctx, r.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("docstore/redis: read all %s: %w", collection, err)
	}
	out := make([]Document, 0, len(values))
	for id, body := range values {
		out = append(out, Document{ID: id, Data: []byte(body)})
	}
	return out, nil
}

func (r *Redis) Update(ctx context.Context, collection, id string, data any) error {
	exists, err := r.client.HExists(ctx, r.key(collection), id).Result()
	if err != nil {
		return fmt.Errorf("docstore/redis: update %s/%s: %w", collection, id, err)
	}
	if !exists {
		return fmt.Errorf("docstore/redis: %s/%s: %w", collection, id, shared.ErrNotFound)
	}
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("docstore/redis: marshal: %w", err)
	}
	if err := r.client.HSet(ctx, r.key(collection), id, body).Err(); err != nil {
		return fmt.Errorf("docstore/redis: update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, collection, id string) error {
	if err := r.client.HDel(ctx, r.key(collection), id).Err(); err != nil {
		return fmt.Errorf("docstore/redis: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (r *Redis) QueryByField(ctx context.Context, collection, field string, op Operator, value any) ([]Document, error) {
	all, err := r.ReadAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	var out []Document
	for _, doc := range all {
		if matchField(doc, field, op, value) {
			out = append(out, doc)
		}
	}
	return out, nil
}
