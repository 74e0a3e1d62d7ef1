package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/lababil/lababil-pos/internal/shared"
)

// Memory is a map-backed Store. It backs unit tests and the explicit
// offline mode, where no remote store is reachable at startup.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte

	// FailNext, when set, makes the next write operation fail. Tests use
	// it to exercise the no-partial-state guarantees.
	FailNext error
}

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string][]byte)}
}

func (m *Memory) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func (m *Memory) CreateWithID(ctx context.Context, collection, id string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("docstore/memory: marshal: %w", err)
	}
	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		m.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return fmt.Errorf("docstore/memory: %s/%s: %w", collection, id, shared.ErrDuplicate)
	}
	docs[id] = body
	return nil
}

func (m *Memory) ReadAll(ctx context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.collections[collection]
	out := make([]Document, 0, len(docs))
	for id, body := range docs {
		data := make([]byte, len(body))
		copy(data, body)
		out = append(out, Document{ID: id, Data: data})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("docstore/memory: marshal: %w", err)
	}
	docs := m.collections[collection]
	if _, exists := docs[id]; !exists {
		return fmt.Errorf("docstore/memory: %s/%s: %w", collection, id, shared.ErrNotFound)
	}
	docs[id] = body
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) QueryByField(ctx context.Context, collection, field string, op Operator, value any) ([]Document, error) {
	all, err := m.ReadAll(ctx, collection)
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
