// Package memory provides a mutex-guarded in-memory store used by tests and
// local development. A single lock serializes mutations so the balance chain
// in the transaction log stays consistent under concurrent use.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"pitstock/internal/inventory"
	"pitstock/internal/ledger"
	"pitstock/internal/planning"
)

type Store struct {
	mu sync.RWMutex

	parts       map[uuid.UUID]*inventory.Part
	partNumbers map[string]uuid.UUID

	transactions map[uuid.UUID]*ledger.Transaction
	log          []*ledger.Transaction // insertion order, oldest first

	requirements map[uuid.UUID]*planning.Requirement
}

// Interface compliance checks.
var (
	_ inventory.Store = (*Store)(nil)
	_ ledger.Store    = (*Store)(nil)
	_ planning.Store  = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		parts:        make(map[uuid.UUID]*inventory.Part),
		partNumbers:  make(map[string]uuid.UUID),
		transactions: make(map[uuid.UUID]*ledger.Transaction),
		requirements: make(map[uuid.UUID]*planning.Requirement),
	}
}

func clonePart(p *inventory.Part) *inventory.Part {
	c := *p
	return &c
}

func cloneTransaction(t *ledger.Transaction) *ledger.Transaction {
	c := *t
	return &c
}

func cloneRequirement(r *planning.Requirement) *planning.Requirement {
	c := *r
	return &c
}

func clonePtrTime(t time.Time) *time.Time {
	c := t
	return &c
}
