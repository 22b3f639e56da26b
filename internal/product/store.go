// Package product serves the product catalogue: a Store holding products and
// the HTTP surface that lists and saves them.
package product

import (
	"context"
	"errors"
	"strings"
)

// MaxNameLen matches the width of the products.name column.
const MaxNameLen = 255

var (
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrConstraintViolation = errors.New("constraint violation")
)

// Product is the only persisted entity. ID zero means "not yet persisted".
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// Store persists products.
//
// Save assigns a fresh id when p.ID is zero. A non-zero id upserts: the row
// with that id is overwritten, or inserted when absent. Either way the id
// generator moves past every id it has seen.
type Store interface {
	ListAll(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, p Product) (Product, error)
}

// Pinger is implemented by stores backed by something that can go away.
type Pinger interface {
	Ping(ctx context.Context) error
}

func checkConstraints(p Product) error {
	if p.ID < 0 {
		return fmtConstraint("id must be positive, got %d", p.ID)
	}
	if n := len([]rune(p.Name)); n > MaxNameLen {
		return fmtConstraint("name longer than %d characters (%d)", MaxNameLen, n)
	}
	// Postgres text columns cannot hold NUL.
	if strings.ContainsRune(p.Name, 0) {
		return fmtConstraint("name contains a NUL character")
	}
	if p.Description != nil && strings.ContainsRune(*p.Description, 0) {
		return fmtConstraint("description contains a NUL character")
	}
	return nil
}
