package domain

import "context"

// Transaction exposes the mutations a persistence implementation must support
// within an atomic scope. Every method validates before it mutates; a failed
// call leaves the transaction state unchanged.
type Transaction interface {
	Snapshot() TransactionView

	// CreateRecipe stores r with Date set to the transaction time. The author and
	// every ingredient must exist.
	CreateRecipe(r Recipe) (Recipe, error)
	// UpdateRecipe re-creates the recipe in its slot with a fresh Date. The mutator
	// may change the title; the new author and ingredients must exist.
	UpdateRecipe(title string, mutator func(*Recipe) error) (Recipe, error)
	DeleteRecipe(title string) (Recipe, error)

	CreateAuthor(a Author) (Author, error)
	// UpdateAuthor renames in place and rewrites the author key of every recipe.
	UpdateAuthor(name string, mutator func(*Author) error) (Author, error)
	// DeleteAuthor removes the author's recipes first.
	DeleteAuthor(name string) (Author, error)

	CreateIngredient(i Ingredient) (Ingredient, error)
	// UpdateIngredient renames in place and rewrites every recipe ingredient list.
	UpdateIngredient(name string, mutator func(*Ingredient) error) (Ingredient, error)
	// DeleteIngredient removes every recipe that lists the ingredient first.
	DeleteIngredient(name string) (Ingredient, error)

	FindRecipe(title string) (Recipe, bool)
	FindAuthor(name string) (Author, bool)
	FindIngredient(name string) (Ingredient, bool)
}

// TransactionView provides read-only access to snapshot data. Lists are in
// insertion order.
type TransactionView interface {
	ListRecipes() []Recipe
	ListAuthors() []Author
	ListIngredients() []Ingredient
	FindRecipe(title string) (Recipe, bool)
	FindAuthor(name string) (Author, bool)
	FindIngredient(name string) (Ingredient, bool)
}

// PersistentStore is the abstraction the service layer depends on.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetRecipe(title string) (Recipe, bool)
	ListRecipes() []Recipe
	GetAuthor(name string) (Author, bool)
	ListAuthors() []Author
	GetIngredient(name string) (Ingredient, bool)
	ListIngredients() []Ingredient
}
