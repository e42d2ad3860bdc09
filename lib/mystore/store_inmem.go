package mystore

import (
	"context"
	"sort"
	"sync"
)

type inMemoryTransactionKey struct {
	owner any
}

type InMemoryStore[T any] struct {
	sync.Mutex
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		Items: make(map[string]T),
	}, func() {}, nil
}

func (s *InMemoryStore[T]) inTransaction(c context.Context) bool {
	return c.Value(inMemoryTransactionKey{owner: s}) != nil
}

func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	if s.inTransaction(c) {
		// nested: join the outer transaction
		return f(c)
	}

	// Start transaction
	s.Lock()
	defer s.Unlock()

	snapshot := make(map[string]T, len(s.Items))
	for k, v := range s.Items {
		snapshot[k] = v
	}

	ctx := context.WithValue(c, inMemoryTransactionKey{owner: s}, true)
	ctx = context.WithValue(ctx, ctxTransactionKey{}, true)

	err := f(ctx)
	if err != nil {
		// Rollback
		s.Items = snapshot
		return err
	}

	return nil
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	s.Items[uid] = value

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	result, exists := s.Items[uid]

	return result, exists, nil
}

func (s *InMemoryStore[T]) List(c context.Context) ([]T, error) {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	return s.list(), nil
}

// list returns the items in key order to keep results stable
func (s *InMemoryStore[T]) list() []T {
	keys := make([]string, 0, len(s.Items))
	for k := range s.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]T, 0, len(s.Items))
	for _, k := range keys {
		result = append(result, s.Items[k])
	}
	return result
}

func (s *InMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	if !s.inTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	result, err := applyFilters(s.list(), filters)
	if err != nil {
		return nil, err
	}

	err = applyOrder(result, orderByField)
	if err != nil {
		return nil, err
	}

	return result, nil
}
