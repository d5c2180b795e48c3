// Package domain defines the recipe book entities, error kinds, change records
// and rule evaluation primitives shared by the store and service layers.
package domain

import (
	"slices"
	"time"
)

// EntityType identifies the type of record stored in the recipe book.
type EntityType string

// Supported entity type identifiers used in Change records and error values.
const (
	// EntityRecipe identifies a recipe record keyed by title.
	EntityRecipe EntityType = "recipe"
	// EntityAuthor identifies an author record keyed by name.
	EntityAuthor EntityType = "author"
	// EntityIngredient identifies an ingredient record keyed by name.
	EntityIngredient EntityType = "ingredient"
)

// KeyField returns the name of the natural key attribute for the entity type.
func (t EntityType) KeyField() string {
	if t == EntityRecipe {
		return "title"
	}
	return "name"
}

// Recipe belongs to one author and references an ordered list of ingredients.
// Author and Ingredients hold natural keys, not embedded records.
type Recipe struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Author      string    `json:"author"`
	Ingredients []string  `json:"ingredients"`
}

// Key returns the recipe title.
func (r Recipe) Key() string { return r.Title }

// UsesIngredient reports whether the ingredient name appears in the recipe.
func (r Recipe) UsesIngredient(name string) bool {
	return slices.Contains(r.Ingredients, name)
}

// Clone returns a copy that shares no backing array with r.
func (r Recipe) Clone() Recipe {
	cp := r
	if r.Ingredients != nil {
		cp.Ingredients = append([]string(nil), r.Ingredients...)
	}
	return cp
}

// Author writes recipes.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Key returns the author name.
func (a Author) Key() string { return a.Name }

// Ingredient is referenced by recipes.
type Ingredient struct {
	Name string `json:"name"`
}

// Key returns the ingredient name.
func (i Ingredient) Key() string { return i.Name }

// RecipeFilter restricts recipe listings. Empty fields do not filter; when both
// are set a recipe must satisfy both.
type RecipeFilter struct {
	Author     string
	Ingredient string
}

// Matches reports whether the recipe passes the filter.
func (f RecipeFilter) Matches(r Recipe) bool {
	if f.Author != "" && r.Author != f.Author {
		return false
	}
	if f.Ingredient != "" && !r.UsesIngredient(f.Ingredient) {
		return false
	}
	return true
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn is reported but allows commit.
	SeverityWarn Severity = "warn"
)

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the supported mutations.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule      string
	Severity  Severity
	Message   string
	Entity    EntityType
	EntityKey string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
