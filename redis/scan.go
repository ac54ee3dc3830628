package redis

import (
	"context"
	"strconv"

	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

// ScanOptions narrows a SCAN-family iteration.
type ScanOptions struct {
	// Match is a glob pattern; empty matches everything.
	Match string
	// Count is the per-call COUNT hint. Zero uses Config.ScanCount.
	Count int64
	// Type restricts SCAN to keys of one type ("string", "hash", ...).
	// Ignored by SSCAN, HSCAN and ZSCAN.
	Type string
}

// HashEntry is one field of a hash returned by HSCAN.
type HashEntry struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ScoredMember is one member of a sorted set returned by ZSCAN.
type ScoredMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// scanFunc issues one SCAN-family call and returns the raw reply.
type scanFunc func(ctx context.Context, pos uint64) ([]string, uint64, error)

// page converts a redis cursor position into a page token. Redis ends an
// iteration by returning position 0.
func page[T any](items []T, next uint64) cursor.Page[T] {
	if next == 0 {
		return cursor.Page[T]{Items: items, Last: true}
	}
	return cursor.Page[T]{Items: items, NextToken: strconv.FormatUint(next, 10)}
}

func position(token string) (uint64, error) {
	if token == "" {
		return 0, nil
	}
	pos, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "malformed scan cursor").
			WithDetail("token", token).WithCause(err)
	}
	return pos, nil
}

func (c *Client) count(opts ScanOptions) int64 {
	if opts.Count > 0 {
		return opts.Count
	}
	return c.cfg.ScanCount
}

func fetchRaw(scan scanFunc) cursor.PageFetcher[string] {
	return func(ctx context.Context, token string) (cursor.Page[string], error) {
		pos, err := position(token)
		if err != nil {
			return cursor.Page[string]{}, err
		}
		items, next, err := scan(ctx, pos)
		if err != nil {
			return cursor.Page[string]{}, err
		}
		return page(items, next), nil
	}
}

// KeysFetcher pages through the key space with SCAN.
func (c *Client) KeysFetcher(opts ScanOptions) cursor.PageFetcher[string] {
	count := c.count(opts)
	return fetchRaw(func(ctx context.Context, pos uint64) ([]string, uint64, error) {
		if opts.Type != "" {
			return c.rdb.ScanType(ctx, pos, opts.Match, count, opts.Type).Result()
		}
		return c.rdb.Scan(ctx, pos, opts.Match, count).Result()
	})
}

// SetFetcher pages through the members of the set at key with SSCAN.
func (c *Client) SetFetcher(key string, opts ScanOptions) cursor.PageFetcher[string] {
	count := c.count(opts)
	return fetchRaw(func(ctx context.Context, pos uint64) ([]string, uint64, error) {
		return c.rdb.SScan(ctx, key, pos, opts.Match, count).Result()
	})
}

// HashFetcher pages through the fields of the hash at key with HSCAN.
func (c *Client) HashFetcher(key string, opts ScanOptions) cursor.PageFetcher[HashEntry] {
	raw := fetchRaw(func(ctx context.Context, pos uint64) ([]string, uint64, error) {
		return c.rdb.HScan(ctx, key, pos, opts.Match, c.count(opts)).Result()
	})
	return func(ctx context.Context, token string) (cursor.Page[HashEntry], error) {
		p, err := raw(ctx, token)
		if err != nil {
			return cursor.Page[HashEntry]{}, err
		}
		entries := make([]HashEntry, 0, len(p.Items)/2)
		for i := 0; i+1 < len(p.Items); i += 2 {
			entries = append(entries, HashEntry{Field: p.Items[i], Value: p.Items[i+1]})
		}
		return cursor.Page[HashEntry]{Items: entries, NextToken: p.NextToken, Last: p.Last}, nil
	}
}

// SortedSetFetcher pages through the members of the sorted set at key with ZSCAN.
func (c *Client) SortedSetFetcher(key string, opts ScanOptions) cursor.PageFetcher[ScoredMember] {
	raw := fetchRaw(func(ctx context.Context, pos uint64) ([]string, uint64, error) {
		return c.rdb.ZScan(ctx, key, pos, opts.Match, c.count(opts)).Result()
	})
	return func(ctx context.Context, token string) (cursor.Page[ScoredMember], error) {
		p, err := raw(ctx, token)
		if err != nil {
			return cursor.Page[ScoredMember]{}, err
		}
		members := make([]ScoredMember, 0, len(p.Items)/2)
		for i := 0; i+1 < len(p.Items); i += 2 {
			score, err := strconv.ParseFloat(p.Items[i+1], 64)
			if err != nil {
				return cursor.Page[ScoredMember]{}, errors.Internal(err).WithDetail("member", p.Items[i])
			}
			members = append(members, ScoredMember{Member: p.Items[i], Score: score})
		}
		return cursor.Page[ScoredMember]{Items: members, NextToken: p.NextToken, Last: p.Last}, nil
	}
}

// Keys returns a cursor over the key space. SCAN may return a key more than
// once; consumers that need uniqueness must deduplicate.
func (c *Client) Keys(opts ScanOptions) *cursor.Buffered[string] {
	return cursor.NewBuffered(c.KeysFetcher(opts), c.cursorLogger("scan")...)
}

// Members returns a cursor over the members of the set at key.
func (c *Client) Members(key string, opts ScanOptions) *cursor.Buffered[string] {
	return cursor.NewBuffered(c.SetFetcher(key, opts), c.cursorLogger("sscan")...)
}

func (c *Client) cursorLogger(op string) []cursor.BufferedOption[string] {
	return []cursor.BufferedOption[string]{
		cursor.WithLogger[string](c.log.WithFields(logger.Fields(logger.FieldOperation, op))),
	}
}
