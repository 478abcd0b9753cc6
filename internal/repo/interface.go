package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

// Item is a flat, string-typed store record including its key attributes.
type Item map[string]string

// Key identifies a row (PK, SK) or, for index queries, a position in the index
// (PK, SK, GSI1PK, GSI1SK).
type Key map[string]string

type Index int

const (
	PrimaryIndex Index = iota
	DueDateIndex
)

// Query reads one bounded page of a partition in sort-key order.
type Query struct {
	Index        Index
	PartitionKey string
	Forward      bool
	Limit        int32 // 0 means no limit
	StartKey     Key   // exclusive
}

// QueryResult.LastKey is nil once the range is exhausted.
type QueryResult struct {
	Items   []Item
	LastKey Key
}

// Mutation assigns Set attributes on the row at Key, which must exist.
type Mutation struct {
	Key Key
	Set map[string]string
}

// Store is a sorted key-value table with one secondary index. Every method
// mutates or reads at most one item atomically.
type Store interface {
	// Put fails with ErrorConflict if the primary key is taken.
	Put(ctx context.Context, item Item) error
	Query(ctx context.Context, q Query) (QueryResult, error)
	// Update returns the full item after the mutation, or ErrorNotFound.
	Update(ctx context.Context, m Mutation) (Item, error)
	// Delete fails with ErrorNotFound if the row is absent.
	Delete(ctx context.Context, key Key) error
}

// StoreError wraps a failure reported by the underlying store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return fmt.Sprintf("store %s: %s: %v", e.Op, apiErr.ErrorCode(), e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

var errMissingKey = errors.New("item is missing its primary key")

// checkMutation rejects mutations that would move a row or leave it unkeyed.
func checkMutation(m Mutation) error {
	if m.Key[keys.AttrPK] == "" || m.Key[keys.AttrSK] == "" {
		return errMissingKey
	}
	for name := range m.Set {
		switch name {
		case keys.AttrPK, keys.AttrSK, keys.AttrGSI1PK:
			return fmt.Errorf("attribute %q is immutable", name)
		}
	}
	return nil
}
