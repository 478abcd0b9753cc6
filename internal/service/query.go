package service

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
	"github.com/BuzzLyutic/serverless-todo/internal/model"
	"github.com/BuzzLyutic/serverless-todo/internal/repo"
)

const DefaultLimit = 20

// ParseLimit reads the raw limit query parameter; empty selects the default.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, ErrInvalidLimit
	}
	return n, nil
}

// EncodeCursor serialises a continuation marker; nil yields "".
func EncodeCursor(last repo.Key) string {
	if last == nil {
		return ""
	}
	data, err := json.Marshal(map[string]string(last))
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

func DecodeCursor(cursor string) (repo.Key, error) {
	data, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var key map[string]string
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, ErrInvalidCursor
	}
	return repo.Key(key), nil
}

// planQuery selects the access path for a list request. Due date listings
// read GSI1 ascending (soonest first); creation listings read the table
// descending (newest first).
func planQuery(userID string, p model.ListParams) (repo.Query, error) {
	limit := p.Limit
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 0 || limit > math.MaxInt32:
		return repo.Query{}, ErrInvalidLimit
	}

	if p.Filter.Status != nil && !p.Filter.Status.Valid() {
		return repo.Query{}, &FieldError{Kind: ErrInvalidField, Field: model.AttrStatus, Reason: "must be one of PENDING, COMPLETED"}
	}

	q := repo.Query{
		PartitionKey: keys.OwnerKey(userID),
		Limit:        int32(limit),
	}
	switch p.SortBy {
	case "", model.SortByDueDate:
		q.Index = repo.DueDateIndex
		q.Forward = true
	case model.SortByCreatedAt:
		q.Index = repo.PrimaryIndex
		q.Forward = false
	default:
		return repo.Query{}, &FieldError{Kind: ErrInvalidField, Field: "sortBy", Reason: "must be one of dueDate, createdAt"}
	}

	if p.Cursor != "" {
		start, err := DecodeCursor(p.Cursor)
		if err != nil {
			return repo.Query{}, err
		}
		if !cursorFits(start, q) {
			return repo.Query{}, ErrInvalidCursor
		}
		q.StartKey = start
	}
	return q, nil
}

// cursorFits reports whether start is a position inside q's partition and
// index. The attribute set must be exactly that index's key, since the store
// rejects any other starting key.
func cursorFits(start repo.Key, q repo.Query) bool {
	want := []string{keys.AttrPK, keys.AttrSK}
	if q.Index == repo.DueDateIndex {
		want = append(want, keys.AttrGSI1PK, keys.AttrGSI1SK)
	}
	if len(start) != len(want) {
		return false
	}
	for _, name := range want {
		if start[name] == "" {
			return false
		}
	}
	if start[keys.AttrPK] != q.PartitionKey {
		return false
	}
	return q.Index != repo.DueDateIndex || start[keys.AttrGSI1PK] == q.PartitionKey
}

// filterPage applies the status filter after the range read, so a page can
// hold fewer than limit tasks even when more matches follow. Callers that
// need full pages keep following the cursor.
func filterPage(tasks []model.Task, f model.TaskFilter) []model.Task {
	if f.Status == nil {
		return tasks
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == *f.Status {
			out = append(out, t)
		}
	}
	return out
}
