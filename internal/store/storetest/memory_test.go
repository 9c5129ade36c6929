package storetest

import (
	"context"
	"testing"

	"github.com/Minpi-0/Health-Tracker/internal/store"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `bson:"name"`
}

func TestSetGetDelete(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.ErrorIs(t, m.Set(ctx, "rootonly", payload{}), store.ErrInvalidPath)

	require.NoError(t, m.Set(ctx, "a/b", payload{Name: "x"}))
	var out payload
	require.NoError(t, m.Get(ctx, "a/b", &out))
	require.Equal(t, "x", out.Name)

	require.ErrorIs(t, m.Get(ctx, "a/missing", &out), store.ErrNotFound)

	require.NoError(t, m.Delete(ctx, "a/b"))
	require.ErrorIs(t, m.Get(ctx, "a/b", &out), store.ErrNotFound)
	// Deleting a missing document is not an error.
	require.NoError(t, m.Delete(ctx, "a/b"))
}

func TestListReturnsDirectChildrenOnly(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "u/plans/p-1", payload{Name: "1"}))
	require.NoError(t, m.Set(ctx, "u/plans/p-2", payload{Name: "2"}))
	require.NoError(t, m.Set(ctx, "u/settings/foods", payload{Name: "f"}))

	docs, err := m.List(ctx, "u/plans")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "p-1", docs[0].Key())

	all, err := m.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestSubscriptionsEchoSynchronously(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	var collSnapshots [][]store.Document
	collSub, err := m.SubscribeCollection(ctx, "u/plans", func(docs []store.Document) {
		collSnapshots = append(collSnapshots, docs)
	})
	require.NoError(t, err)

	var docSnapshots []*store.Document
	docSub, err := m.SubscribeDocument(ctx, "u/settings/foods", func(doc *store.Document) {
		docSnapshots = append(docSnapshots, doc)
	})
	require.NoError(t, err)

	// Initial deliveries: empty collection, missing document as nil.
	require.Len(t, collSnapshots, 1)
	require.Empty(t, collSnapshots[0])
	require.Len(t, docSnapshots, 1)
	require.Nil(t, docSnapshots[0])

	require.NoError(t, m.Set(ctx, "u/plans/p-1", payload{Name: "1"}))
	require.Len(t, collSnapshots, 2)
	require.Len(t, collSnapshots[1], 1)

	require.NoError(t, m.Set(ctx, "u/settings/foods", payload{Name: "f"}))
	require.Len(t, docSnapshots, 2)
	require.NotNil(t, docSnapshots[1])

	// A write elsewhere does not fan out to unrelated subscribers.
	require.NoError(t, m.Set(ctx, "u/other/x", payload{}))
	require.Len(t, collSnapshots, 2)
	require.Len(t, docSnapshots, 2)

	collSub.Unsubscribe()
	docSub.Unsubscribe()
	require.Equal(t, 0, m.SubscriberCount())

	require.NoError(t, m.Set(ctx, "u/plans/p-2", payload{}))
	require.Len(t, collSnapshots, 2)
}
