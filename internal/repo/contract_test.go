package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
)

func row(owner, created, id, due, prio string) Item {
	pk := keys.OwnerKey(owner)
	return Item{
		keys.AttrPK:     pk,
		keys.AttrSK:     keys.CreationSortKey(id, created),
		keys.AttrGSI1PK: pk,
		keys.AttrGSI1SK: keys.DueSortKey(due, prio),
		"taskId":        id,
		"status":        "PENDING",
	}
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it["taskId"])
	}
	return out
}

// runStoreContract checks the behaviour every Store adapter must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	seed := func(t *testing.T, s Store) {
		t.Helper()
		for _, it := range []Item{
			row("u1", "2025-01-01T00:00:01.000000Z", "a", "2025-01-20", "HIGH"),
			row("u1", "2025-01-01T00:00:02.000000Z", "b", "2025-01-18", "LOW"),
			row("u1", "2025-01-01T00:00:03.000000Z", "c", "2025-01-25", "MEDIUM"),
			row("u2", "2025-01-01T00:00:04.000000Z", "z", "2025-01-01", "HIGH"),
		} {
			require.NoError(t, s.Put(ctx, it))
		}
	}

	t.Run("query primary descending", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		res, err := s.Query(ctx, Query{Index: PrimaryIndex, PartitionKey: keys.OwnerKey("u1")})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, ids(res.Items))
		assert.Nil(t, res.LastKey)
	})

	t.Run("query due date ascending", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		res, err := s.Query(ctx, Query{Index: DueDateIndex, PartitionKey: keys.OwnerKey("u1"), Forward: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c"}, ids(res.Items))
	})

	t.Run("pagination covers every row once", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 7; i++ {
			require.NoError(t, s.Put(ctx, row("p", fmt.Sprintf("2025-01-01T00:00:%02d.000000Z", i),
				fmt.Sprintf("t%d", i), fmt.Sprintf("2025-02-%02d", 10-i), "LOW")))
		}

		for _, idx := range []Index{PrimaryIndex, DueDateIndex} {
			var (
				seen  []string
				start Key
				pages int
			)
			for {
				res, err := s.Query(ctx, Query{Index: idx, PartitionKey: keys.OwnerKey("p"), Forward: idx == DueDateIndex, Limit: 3, StartKey: start})
				require.NoError(t, err)
				seen = append(seen, ids(res.Items)...)
				pages++
				if res.LastKey == nil {
					break
				}
				start = res.LastKey
				require.Less(t, pages, 10)
			}
			assert.ElementsMatch(t, []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6"}, seen)
			assert.Len(t, seen, 7)
		}
	})

	t.Run("put conflicts on existing key", func(t *testing.T) {
		s := newStore(t)
		it := row("u1", "2025-01-01T00:00:01.000000Z", "a", "2025-01-20", "HIGH")
		require.NoError(t, s.Put(ctx, it))
		assert.ErrorIs(t, s.Put(ctx, it), ErrorConflict)
	})

	t.Run("update returns full item", func(t *testing.T) {
		s := newStore(t)
		it := row("u1", "2025-01-01T00:00:01.000000Z", "a", "2025-01-20", "HIGH")
		require.NoError(t, s.Put(ctx, it))

		got, err := s.Update(ctx, Mutation{
			Key: Key{keys.AttrPK: it[keys.AttrPK], keys.AttrSK: it[keys.AttrSK]},
			Set: map[string]string{"status": "COMPLETED", keys.AttrGSI1SK: "DUE#2025-01-21#HIGH"},
		})
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", got["status"])
		assert.Equal(t, "a", got["taskId"])
		assert.Equal(t, "DUE#2025-01-21#HIGH", got[keys.AttrGSI1SK])
		assert.Equal(t, it[keys.AttrPK], got[keys.AttrGSI1PK])

		res, err := s.Query(ctx, Query{Index: DueDateIndex, PartitionKey: keys.OwnerKey("u1"), Forward: true})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "DUE#2025-01-21#HIGH", res.Items[0][keys.AttrGSI1SK])
	})

	t.Run("update and delete of missing row", func(t *testing.T) {
		s := newStore(t)
		key := Key{keys.AttrPK: "USER#nobody", keys.AttrSK: "TODO#x#y"}

		_, err := s.Update(ctx, Mutation{Key: key, Set: map[string]string{"status": "COMPLETED"}})
		assert.ErrorIs(t, err, ErrorNotFound)
		assert.ErrorIs(t, s.Delete(ctx, key), ErrorNotFound)
	})

	t.Run("delete removes row", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		key := Key{keys.AttrPK: keys.OwnerKey("u1"), keys.AttrSK: keys.CreationSortKey("b", "2025-01-01T00:00:02.000000Z")}
		require.NoError(t, s.Delete(ctx, key))
		assert.ErrorIs(t, s.Delete(ctx, key), ErrorNotFound)

		res, err := s.Query(ctx, Query{Index: PrimaryIndex, PartitionKey: keys.OwnerKey("u1")})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a"}, ids(res.Items))
	})

	t.Run("update rejects key changes", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		_, err := s.Update(ctx, Mutation{
			Key: Key{keys.AttrPK: keys.OwnerKey("u1"), keys.AttrSK: keys.CreationSortKey("a", "2025-01-01T00:00:01.000000Z")},
			Set: map[string]string{keys.AttrSK: "TODO#moved"},
		})
		var storeErr *StoreError
		assert.ErrorAs(t, err, &storeErr)
	})
}
