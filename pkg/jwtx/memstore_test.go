package jwtx_test

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
)

// memStore is an in-memory SecretStore.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	records []jwtx.SecretRecord
	err     error
}

func (s *memStore) RotateSecrets(
	ctx context.Context,
	expiredAt, freshSince time.Time,
	generate func() (jwtx.SecretRecord, error),
) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	if s.err != nil {
		return time.Time{}, false, s.err
	}

	kept := s.records[:0]
	fresh := false
	for _, r := range s.records {
		if !r.CreatedAt.After(expiredAt) {
			continue
		}
		if !r.CreatedAt.Before(freshSince) {
			fresh = true
		}
		kept = append(kept, r)
	}
	s.records = kept

	if !fresh {
		rec, err := generate()
		if err != nil {
			return time.Time{}, false, err
		}
		s.nextID++
		rec.ID = s.nextID
		s.records = append(s.records, rec)
	}

	if len(s.records) == 0 {
		return time.Time{}, false, nil
	}
	oldest := s.records[0].CreatedAt
	for _, r := range s.records[1:] {
		if r.CreatedAt.Before(oldest) {
			oldest = r.CreatedAt
		}
	}
	return oldest, true, nil
}

func (s *memStore) ListSecrets(ctx context.Context) ([]jwtx.SecretRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	out := slices.Clone(s.records)
	slices.SortFunc(out, func(a, b jwtx.SecretRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// staticSource yields a fixed list of secrets.
type staticSource struct {
	secrets [][]byte
	err     error
}

func (s staticSource) Secrets(context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if s.err != nil {
			yield(nil, s.err)
			return
		}
		for _, k := range s.secrets {
			if !yield(k, nil) {
				return
			}
		}
	}
}
