package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
)

// MemoryStore keeps the table in process memory. It mirrors the DynamoDB
// semantics the service relies on and backs local runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Item)}
}

func rowID(pk, sk string) string {
	return pk + "\x00" + sk
}

func (s *MemoryStore) Put(ctx context.Context, item Item) error {
	pk, sk := item[keys.AttrPK], item[keys.AttrSK]
	if pk == "" || sk == "" {
		return storeErr("put", errMissingKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := rowID(pk, sk)
	if _, ok := s.items[id]; ok {
		return ErrorConflict
	}
	s.items[id] = copyItem(item)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) (QueryResult, error) {
	pkAttr, skAttr := keys.AttrPK, keys.AttrSK
	if q.Index == DueDateIndex {
		pkAttr, skAttr = keys.AttrGSI1PK, keys.AttrGSI1SK
	}

	s.mu.RLock()
	var rows []Item
	for _, item := range s.items {
		if item[pkAttr] == q.PartitionKey {
			if _, ok := item[skAttr]; ok {
				rows = append(rows, copyItem(item))
			}
		}
	}
	s.mu.RUnlock()

	less := func(a, b Item) bool {
		if a[skAttr] != b[skAttr] {
			return a[skAttr] < b[skAttr]
		}
		// index entries with equal sort keys fall back to table key order
		return a[keys.AttrSK] < b[keys.AttrSK]
	}
	sort.Slice(rows, func(i, j int) bool {
		if q.Forward {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})

	start := 0
	if q.StartKey != nil {
		start = len(rows)
		for i, row := range rows {
			after := less(Item(q.StartKey), row)
			if !q.Forward {
				after = less(row, Item(q.StartKey))
			}
			if after {
				start = i
				break
			}
		}
	}
	rows = rows[start:]

	var res QueryResult
	if q.Limit > 0 && len(rows) > int(q.Limit) {
		rows = rows[:q.Limit]
		res.LastKey = keyOf(rows[len(rows)-1], q.Index)
	}
	res.Items = rows
	return res, nil
}

func (s *MemoryStore) Update(ctx context.Context, m Mutation) (Item, error) {
	if err := checkMutation(m); err != nil {
		return nil, storeErr("update", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := rowID(m.Key[keys.AttrPK], m.Key[keys.AttrSK])
	item, ok := s.items[id]
	if !ok {
		return nil, ErrorNotFound
	}
	for name, v := range m.Set {
		item[name] = v
	}
	return copyItem(item), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rowID(key[keys.AttrPK], key[keys.AttrSK])
	if _, ok := s.items[id]; !ok {
		return ErrorNotFound
	}
	delete(s.items, id)
	return nil
}

func copyItem(item Item) Item {
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// keyOf returns the continuation marker for item, matching what DynamoDB
// reports as LastEvaluatedKey for the given index.
func keyOf(item Item, idx Index) Key {
	k := Key{
		keys.AttrPK: item[keys.AttrPK],
		keys.AttrSK: item[keys.AttrSK],
	}
	if idx == DueDateIndex {
		k[keys.AttrGSI1PK] = item[keys.AttrGSI1PK]
		k[keys.AttrGSI1SK] = item[keys.AttrGSI1SK]
	}
	return k
}
