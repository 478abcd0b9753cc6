package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/serverless-todo/internal/keys"
)

// PostgresStore emulates the single-table layout on one PostgreSQL table:
// key attributes get their own columns, everything else lives in attrs.
type PostgresStore struct {
	pool  *pgxpool.Pool
	name  string
	table string
}

func NewPostgresStore(pool *pgxpool.Pool, table string) *PostgresStore {
	return &PostgresStore{
		pool:  pool,
		name:  table,
		table: pgx.Identifier{table}.Sanitize(),
	}
}

// CreateSchema creates the table and its GSI1 index if they are missing.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			pk     text  NOT NULL,
			sk     text  NOT NULL,
			gsi1pk text,
			gsi1sk text,
			attrs  jsonb NOT NULL DEFAULT '{}'::jsonb,
			PRIMARY KEY (pk, sk)
		)
	`, s.table)); err != nil {
		return storeErr("create schema", err)
	}

	index := pgx.Identifier{s.name + "_gsi1"}.Sanitize()
	_, err := s.pool.Exec(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (gsi1pk, gsi1sk, sk)", index, s.table))
	return storeErr("create schema", err)
}

func (s *PostgresStore) Put(ctx context.Context, item Item) error {
	pk, sk := item[keys.AttrPK], item[keys.AttrSK]
	if pk == "" || sk == "" {
		return storeErr("put", errMissingKey)
	}

	cmd, err := s.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (pk, sk, gsi1pk, gsi1sk, attrs)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		ON CONFLICT (pk, sk) DO NOTHING
	`, s.table), pk, sk, optional(item, keys.AttrGSI1PK), optional(item, keys.AttrGSI1SK), attrsOf(item))
	if err != nil {
		return s.mapError("put", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorConflict
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, q Query) (QueryResult, error) {
	dir, cmp := "ASC", ">"
	if !q.Forward {
		dir, cmp = "DESC", "<"
	}

	var (
		sql  string
		args []any
	)
	switch q.Index {
	case DueDateIndex:
		sql = fmt.Sprintf(`
			SELECT pk, sk, gsi1pk, gsi1sk, attrs
			FROM %[1]s
			WHERE gsi1pk = $1 AND gsi1sk IS NOT NULL
			  AND ($2::text IS NULL OR (gsi1sk, sk) %[2]s ($2::text, $3::text))
			ORDER BY gsi1sk %[3]s, sk %[3]s
			LIMIT $4
		`, s.table, cmp, dir)
		args = []any{q.PartitionKey, optional(Item(q.StartKey), keys.AttrGSI1SK), optional(Item(q.StartKey), keys.AttrSK)}
	default:
		sql = fmt.Sprintf(`
			SELECT pk, sk, gsi1pk, gsi1sk, attrs
			FROM %[1]s
			WHERE pk = $1
			  AND ($2::text IS NULL OR sk %[2]s $2::text)
			ORDER BY sk %[3]s
			LIMIT $3
		`, s.table, cmp, dir)
		args = []any{q.PartitionKey, optional(Item(q.StartKey), keys.AttrSK)}
	}

	// one extra row tells whether the range continues
	var limit *int64
	if q.Limit > 0 {
		n := int64(q.Limit) + 1
		limit = &n
	}
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return QueryResult{}, s.mapError("query", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return QueryResult{}, storeErr("query", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, s.mapError("query", err)
	}

	var res QueryResult
	if q.Limit > 0 && len(items) > int(q.Limit) {
		items = items[:q.Limit]
		res.LastKey = keyOf(items[len(items)-1], q.Index)
	}
	res.Items = items
	return res, nil
}

func (s *PostgresStore) Update(ctx context.Context, m Mutation) (Item, error) {
	if err := checkMutation(m); err != nil {
		return nil, storeErr("update", err)
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE %s
		SET attrs = attrs || $3::jsonb, gsi1sk = COALESCE($4::text, gsi1sk)
		WHERE pk = $1 AND sk = $2
		RETURNING pk, sk, gsi1pk, gsi1sk, attrs
	`, s.table), m.Key[keys.AttrPK], m.Key[keys.AttrSK], attrsOf(Item(m.Set)), optional(Item(m.Set), keys.AttrGSI1SK))

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrorNotFound
	}
	if err != nil {
		return nil, s.mapError("update", err)
	}
	return item, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	cmd, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE pk = $1 AND sk = $2", s.table),
		key[keys.AttrPK], key[keys.AttrSK])
	if err != nil {
		return s.mapError("delete", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (s *PostgresStore) mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrorConflict
	}
	return storeErr(op, err)
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		pk, sk         string
		gsi1pk, gsi1sk *string
		attrs          map[string]string
	)
	if err := row.Scan(&pk, &sk, &gsi1pk, &gsi1sk, &attrs); err != nil {
		return nil, err
	}

	item := make(Item, len(attrs)+4)
	for k, v := range attrs {
		item[k] = v
	}
	item[keys.AttrPK] = pk
	item[keys.AttrSK] = sk
	if gsi1pk != nil {
		item[keys.AttrGSI1PK] = *gsi1pk
	}
	if gsi1sk != nil {
		item[keys.AttrGSI1SK] = *gsi1sk
	}
	return item, nil
}

func attrsOf(item Item) map[string]string {
	attrs := make(map[string]string, len(item))
	for k, v := range item {
		if !keys.IsKeyAttr(k) {
			attrs[k] = v
		}
	}
	return attrs
}

func optional(item Item, name string) *string {
	if v, ok := item[name]; ok {
		return &v
	}
	return nil
}
