package database

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

// Keyset describes a keyset-paginated scan: rows are read in ascending order
// of a unique column, and each page resumes after the last key seen.
type Keyset[T any] struct {
	// Table to read. When empty the table of T's gorm model is used.
	Table string
	// Column is the unique, ordered key column. Defaults to "id".
	Column string
	// PageSize is the number of rows per page. Defaults to Config.PageSize.
	PageSize int
	// Scope narrows the query (filters, selected columns).
	Scope func(*gorm.DB) *gorm.DB
	// KeyOf extracts the key column value from a row. Required.
	KeyOf func(T) string
	// ParseKey converts a page token back into a query argument. The default
	// passes integers as int64 and everything else as a string.
	ParseKey func(string) (any, error)
}

func defaultParseKey(token string) (any, error) {
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return n, nil
	}
	return token, nil
}

func (k *Keyset[T]) applyDefaults(cfg Config) error {
	if k.Column == "" {
		k.Column = "id"
	}
	if k.PageSize <= 0 {
		k.PageSize = cfg.PageSize
	}
	if k.PageSize <= 0 {
		k.PageSize = DefaultPageSize
	}
	if k.ParseKey == nil {
		k.ParseKey = defaultParseKey
	}
	if k.KeyOf == nil {
		return errors.InvalidConfig("keyset.key_of", "is required")
	}
	return nil
}

// KeysetFetcher returns a PageFetcher that reads one keyset page per call.
// It asks for one extra row to learn whether another page exists, so the
// final page never costs an empty round trip.
func KeysetFetcher[T any](db *DB, ks Keyset[T]) (cursor.PageFetcher[T], error) {
	if err := ks.applyDefaults(db.cfg); err != nil {
		return nil, err
	}
	col := clause.Column{Name: ks.Column}

	return func(ctx context.Context, token string) (cursor.Page[T], error) {
		tx := db.WithContext(ctx)
		if ks.Table != "" {
			tx = tx.Table(ks.Table)
		} else {
			tx = tx.Model(new(T))
		}
		if ks.Scope != nil {
			tx = tx.Scopes(ks.Scope)
		}
		if token != "" {
			key, err := ks.ParseKey(token)
			if err != nil {
				return cursor.Page[T]{}, errors.New(errors.ErrCodeInvalidConfig, "malformed keyset token").
					WithDetail("token", token).WithCause(err)
			}
			tx = tx.Where(clause.Gt{Column: col, Value: key})
		}

		var rows []T
		if err := tx.Order(clause.OrderByColumn{Column: col}).Limit(ks.PageSize + 1).Find(&rows).Error; err != nil {
			return cursor.Page[T]{}, FromDatabase(err, "keyset_page")
		}

		if len(rows) <= ks.PageSize {
			return cursor.Page[T]{Items: rows, Last: true}, nil
		}
		rows = rows[:ks.PageSize]
		next := ks.KeyOf(rows[len(rows)-1])
		if next == "" {
			return cursor.Page[T]{}, errors.Internal(fmt.Errorf("empty key in column %q", ks.Column))
		}
		return cursor.Page[T]{Items: rows, NextToken: next}, nil
	}, nil
}

// Rows returns a cursor over the rows selected by ks.
func Rows[T any](db *DB, ks Keyset[T], opts ...cursor.BufferedOption[T]) (*cursor.Buffered[T], error) {
	fetch, err := KeysetFetcher(db, ks)
	if err != nil {
		return nil, err
	}
	opts = append([]cursor.BufferedOption[T]{
		cursor.WithLogger[T](db.log.WithFields(logger.Fields(logger.FieldOperation, "keyset"))),
	}, opts...)
	return cursor.NewBuffered(fetch, opts...), nil
}

// MapKey is a KeyOf for rows scanned into maps, as used with Keyset.Table.
func MapKey(column string) func(map[string]any) string {
	return func(row map[string]any) string {
		v, ok := row[column]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
}
