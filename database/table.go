package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"socialgraph/models"
	"socialgraph/utils"
)

type scanner interface {
	Scan(dest ...any) error
}

// table maps one record type onto one SQL table. Columns lists every column except id,
// in the order values returns them.
type table[T any] struct {
	db         *DB
	name       string
	columns    []string
	filterable []string
	updatable  []string
	values     func(*T) []any
	updates    func(*T) []any
	scan       func(scanner) (T, error)
	getID      func(*T) string
	setID      func(*T, string)
}

func (t *table[T]) selectList() string {
	return "id, " + strings.Join(t.columns, ", ")
}

func (t *table[T]) where(filter models.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, ErrEmptyFilter
	}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		if !slices.Contains(t.filterable, key) {
			return "", nil, fmt.Errorf("%w: %s", ErrInvalidColumn, key)
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)

	clauses := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		clauses[i] = key + " = ?"
		args[i] = filter[key]
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (t *table[T]) Insert(ctx context.Context, record *T) (string, error) {
	if t.getID(record) == "" {
		t.setID(record, utils.GenerateUUID())
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)+1), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, t.selectList(), placeholders)

	args := append([]any{t.getID(record)}, t.values(record)...)
	if _, err := t.db.exec(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", t.name, err)
	}
	return t.getID(record), nil
}

func (t *table[T]) Query(ctx context.Context, filter models.Filter) ([]T, error) {
	where, args, err := t.where(filter)
	if err != nil {
		return nil, err
	}

	rows, err := t.db.query(ctx, "SELECT "+t.selectList()+" FROM "+t.name+where+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	var records []T
	for rows.Next() {
		record, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.name, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", t.name, err)
	}
	return records, nil
}

func (t *table[T]) DeleteByID(ctx context.Context, id string) error {
	if _, err := t.db.exec(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.name, err)
	}
	return nil
}

func (t *table[T]) Delete(ctx context.Context, filter models.Filter) (int64, error) {
	where, args, err := t.where(filter)
	if err != nil {
		return 0, err
	}

	result, err := t.db.exec(ctx, "DELETE FROM "+t.name+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", t.name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted %s rows: %w", t.name, err)
	}
	return n, nil
}

// Update writes the mutable columns of record. It returns models.ErrConflict when no row
// with the record's id exists any more.
func (t *table[T]) Update(ctx context.Context, record *T) error {
	id := t.getID(record)
	if id == "" {
		return fmt.Errorf("%w: record has no id", models.ErrConflict)
	}

	sets := make([]string, len(t.updatable))
	for i, column := range t.updatable {
		sets[i] = column + " = ?"
	}

	args := append(t.updates(record), id)
	result, err := t.db.exec(ctx, "UPDATE "+t.name+" SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", t.name, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count updated %s rows: %w", t.name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", models.ErrConflict, t.name, id)
	}
	return nil
}

func (t *table[T]) Exists(ctx context.Context, filter models.Filter) (bool, error) {
	where, args, err := t.where(filter)
	if err != nil {
		return false, err
	}

	var one int
	err = t.db.queryRow(ctx, "SELECT 1 FROM "+t.name+where+" LIMIT 1", args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", t.name, err)
	}
	return true, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func parseUUID(column, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad %s %q: %w", column, value, err)
	}
	return id, nil
}
