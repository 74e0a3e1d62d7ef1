package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lababil/lababil-pos/internal/shared"
)

type doc struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Stock int     `json:"stock"`
	Price float64 `json:"price"`
}

func TestMemoryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.CreateWithID(ctx, CollectionProducts, "p1", doc{ID: "p1", Name: "Laptop"}))
	err := store.CreateWithID(ctx, CollectionProducts, "p1", doc{ID: "p1", Name: "Other"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestMemoryUpdateMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Update(ctx, CollectionProducts, "ghost", doc{ID: "ghost"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMemoryDeleteAbsentIsNoError(t *testing.T) {
	require.NoError(t, NewMemory().Delete(context.Background(), CollectionProducts, "ghost"))
}

func TestMemoryReadAllSortedAndIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.CreateWithID(ctx, CollectionProducts, "b", doc{ID: "b"}))
	require.NoError(t, store.CreateWithID(ctx, CollectionProducts, "a", doc{ID: "a"}))

	docs, err := store.ReadAll(ctx, CollectionProducts)
	require.NoError(t, err)
	require.Equal(t, "a", docs[0].ID)
	require.Equal(t, "b", docs[1].ID)

	// mutating returned bytes must not affect the store
	docs[0].Data[0] = 'X'
	again, err := store.ReadAll(ctx, CollectionProducts)
	require.NoError(t, err)
	require.Equal(t, byte('{'), again[0].Data[0])
}

func TestMemoryFailNextAbortsWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	store.FailNext = errors.New("boom")
	require.Error(t, store.CreateWithID(ctx, CollectionProducts, "p1", doc{ID: "p1"}))

	// the failure is one-shot
	require.NoError(t, store.CreateWithID(ctx, CollectionProducts, "p1", doc{ID: "p1"}))
}

func TestMemoryQueryByField(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.CreateWithID(ctx, CollectionProducts, "p1", doc{ID: "p1", Name: "Laptop", Stock: 2, Price: 1000}))
	require.NoError(t, store.CreateWithID(ctx, CollectionProducts, "p2", doc{ID: "p2", Name: "Mouse", Stock: 50, Price: 40}))
	require.NoError(t, store.CreateWithID(ctx, CollectionProducts, "p3", doc{ID: "p3", Name: "Desk", Stock: 5, Price: 300}))

	cases := []struct {
		name  string
		field string
		op    Operator
		value any
		want  []string
	}{
		{"eq string", "name", OpEqual, "Mouse", []string{"p2"}},
		{"neq string", "name", OpNotEqual, "Mouse", []string{"p1", "p3"}},
		{"lte number", "stock", OpLessEqual, 5, []string{"p1", "p3"}},
		{"gt number", "price", OpGreater, 100.0, []string{"p1", "p3"}},
		{"missing field", "ghost", OpEqual, "x", nil},
		{"type mismatch", "name", OpEqual, 7, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			docs, err := store.QueryByField(ctx, CollectionProducts, tc.field, tc.op, tc.value)
			require.NoError(t, err)
			ids := make([]string, 0, len(docs))
			for _, d := range docs {
				ids = append(ids, d.ID)
			}
			if tc.want == nil {
				require.Empty(t, ids)
				return
			}
			require.Equal(t, tc.want, ids)
		})
	}
}
