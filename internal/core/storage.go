package core

import (
	"recipebox/internal/infra/persistence/memory"
	"recipebox/pkg/domain"
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
	// MemoryStore is the only backend; state lives for the lifetime of the process.
	MemoryStore = memory.Store
	// Snapshot is the exported form of a MemoryStore.
	Snapshot = memory.Snapshot
)

// NewMemoryStore constructs the in-memory store.
func NewMemoryStore(engine *RulesEngine, opts ...memory.Option) *MemoryStore {
	return memory.NewStore(engine, opts...)
}
