// Package memory provides the in-memory implementation of the recipe book
// persistence store used by the service layer and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"recipebox/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Recipe aliases domain.Recipe for in-memory persistence operations.
	Recipe = domain.Recipe
	// Author aliases domain.Author.
	Author = domain.Author
	// Ingredient aliases domain.Ingredient.
	Ingredient = domain.Ingredient
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// Store provides an in-memory transactional store for the recipe book.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNowFunc overrides the clock used to stamp recipe dates.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the committed state only when fn and every blocking rule succeed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// GetRecipe returns a recipe by title.
func (s *Store) GetRecipe(title string) (Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.recipes.get(title)
}

// ListRecipes returns all recipes in insertion order.
func (s *Store) ListRecipes() []Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.recipes.list()
}

// GetAuthor returns an author by name.
func (s *Store) GetAuthor(name string) (Author, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.authors.get(name)
}

// ListAuthors returns all authors in insertion order.
func (s *Store) ListAuthors() []Author {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.authors.list()
}

// GetIngredient returns an ingredient by name.
func (s *Store) GetIngredient(name string) (Ingredient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ingredients.get(name)
}

// ListIngredients returns all ingredients in insertion order.
func (s *Store) ListIngredients() []Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ingredients.list()
}

// NewSnapshotView exposes a snapshot as a read-only view without normalising
// it, so integrity rules can be evaluated against data as it was exported.
// Later duplicates of a key replace earlier ones.
func NewSnapshotView(snapshot Snapshot) TransactionView {
	state := memoryStateFromSnapshot(snapshot)
	return newTransactionView(&state)
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListRecipes() []Recipe         { return v.state.recipes.list() }
func (v transactionView) ListAuthors() []Author         { return v.state.authors.list() }
func (v transactionView) ListIngredients() []Ingredient { return v.state.ingredients.list() }

func (v transactionView) FindRecipe(title string) (Recipe, bool) {
	return v.state.recipes.get(title)
}

func (v transactionView) FindAuthor(name string) (Author, bool) {
	return v.state.authors.get(name)
}

func (v transactionView) FindIngredient(name string) (Ingredient, bool) {
	return v.state.ingredients.get(name)
}
