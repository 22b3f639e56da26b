package product

import (
	"context"
	"math"
	"sort"
	"sync"
)

type MemStore struct {
	mu     sync.RWMutex
	m      map[int64]Product
	lastID int64
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[int64]Product{}}
}

func (s *MemStore) ListAll(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyDBError("list products", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, clone(p))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Save(ctx context.Context, p Product) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, classifyDBError("save product", err)
	}
	if err := checkConstraints(p); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		if s.lastID == math.MaxInt64 {
			return Product{}, fmtConstraint("id space exhausted")
		}
		s.lastID++
		p.ID = s.lastID
	} else if p.ID > s.lastID {
		s.lastID = p.ID
	}

	p = clone(p)
	s.m[p.ID] = p
	return clone(p), nil
}

// clone detaches the optional fields so callers cannot mutate stored rows.
func clone(p Product) Product {
	if p.Price != nil {
		v := *p.Price
		p.Price = &v
	}
	if p.Description != nil {
		v := *p.Description
		p.Description = &v
	}
	return p
}
