package memory

import (
	"time"

	"recipebox/pkg/domain"
)

// transaction represents a mutation set applied to a private copy of the store state.
type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindRecipe exposes recipe lookup within the transaction scope.
func (tx *transaction) FindRecipe(title string) (Recipe, bool) {
	return tx.state.recipes.get(title)
}

// FindAuthor exposes author lookup within the transaction scope.
func (tx *transaction) FindAuthor(name string) (Author, bool) {
	return tx.state.authors.get(name)
}

// FindIngredient exposes ingredient lookup within the transaction scope.
func (tx *transaction) FindIngredient(name string) (Ingredient, bool) {
	return tx.state.ingredients.get(name)
}

func (tx *transaction) checkReferences(r Recipe) error {
	if !tx.state.authors.has(r.Author) {
		return domain.NotFoundError{Entity: domain.EntityAuthor, Key: r.Author}
	}
	for _, name := range r.Ingredients {
		if !tx.state.ingredients.has(name) {
			return domain.NotFoundError{Entity: domain.EntityIngredient, Key: name}
		}
	}
	return nil
}

// CreateRecipe stores a new recipe dated at the transaction time.
func (tx *transaction) CreateRecipe(r Recipe) (Recipe, error) {
	if tx.state.recipes.has(r.Title) {
		return Recipe{}, domain.ConflictError{Entity: domain.EntityRecipe, Key: r.Title}
	}
	if err := tx.checkReferences(r); err != nil {
		return Recipe{}, err
	}
	r = cloneRecipe(r)
	r.Date = tx.now
	tx.state.recipes.insert(r)
	tx.recordChange(Change{Entity: domain.EntityRecipe, Action: domain.ActionCreate, After: cloneRecipe(r)})
	return cloneRecipe(r), nil
}

// UpdateRecipe re-creates a recipe in its existing slot. An edit may only
// move a recipe to a known author; anything else is a conflict.
func (tx *transaction) UpdateRecipe(title string, mutator func(*Recipe) error) (Recipe, error) {
	current, ok := tx.state.recipes.get(title)
	if !ok {
		return Recipe{}, domain.NotFoundError{Entity: domain.EntityRecipe, Key: title}
	}
	before := cloneRecipe(current)
	if err := mutator(&current); err != nil {
		return Recipe{}, err
	}
	if current.Title != title && tx.state.recipes.has(current.Title) {
		return Recipe{}, domain.ConflictError{Entity: domain.EntityRecipe, Key: current.Title}
	}
	if !tx.state.authors.has(current.Author) {
		return Recipe{}, domain.ConflictError{Entity: domain.EntityAuthor, Key: current.Author, Reason: "is not a known author"}
	}
	if err := tx.checkReferences(current); err != nil {
		return Recipe{}, err
	}
	current = cloneRecipe(current)
	current.Date = tx.now
	tx.state.recipes.replace(title, current)
	tx.recordChange(Change{Entity: domain.EntityRecipe, Action: domain.ActionUpdate, Before: before, After: cloneRecipe(current)})
	return cloneRecipe(current), nil
}

// DeleteRecipe removes a recipe and returns the removed record.
func (tx *transaction) DeleteRecipe(title string) (Recipe, error) {
	current, ok := tx.state.recipes.get(title)
	if !ok {
		return Recipe{}, domain.NotFoundError{Entity: domain.EntityRecipe, Key: title}
	}
	tx.state.recipes.remove(title)
	tx.recordChange(Change{Entity: domain.EntityRecipe, Action: domain.ActionDelete, Before: cloneRecipe(current)})
	return current, nil
}

// deleteRecipesWhere removes every recipe matching pred, in insertion order.
func (tx *transaction) deleteRecipesWhere(pred func(Recipe) bool) {
	for _, title := range tx.state.recipes.keys() {
		r, _ := tx.state.recipes.get(title)
		if !pred(r) {
			continue
		}
		tx.state.recipes.remove(title)
		tx.recordChange(Change{Entity: domain.EntityRecipe, Action: domain.ActionDelete, Before: r})
	}
}

// rewriteRecipes applies rewrite to every recipe, recording an update for those
// it reports as changed. Dates are left as they are.
func (tx *transaction) rewriteRecipes(rewrite func(*Recipe) bool) {
	for _, title := range tx.state.recipes.keys() {
		r, _ := tx.state.recipes.get(title)
		before := cloneRecipe(r)
		if !rewrite(&r) {
			continue
		}
		tx.state.recipes.replace(title, r)
		tx.recordChange(Change{Entity: domain.EntityRecipe, Action: domain.ActionUpdate, Before: before, After: cloneRecipe(r)})
	}
}

// CreateAuthor stores a new author.
func (tx *transaction) CreateAuthor(a Author) (Author, error) {
	if tx.state.authors.has(a.Name) {
		return Author{}, domain.ConflictError{Entity: domain.EntityAuthor, Key: a.Name}
	}
	tx.state.authors.insert(a)
	tx.recordChange(Change{Entity: domain.EntityAuthor, Action: domain.ActionCreate, After: a})
	return a, nil
}

// UpdateAuthor mutates an author in place and follows a rename into recipes.
func (tx *transaction) UpdateAuthor(name string, mutator func(*Author) error) (Author, error) {
	current, ok := tx.state.authors.get(name)
	if !ok {
		return Author{}, domain.NotFoundError{Entity: domain.EntityAuthor, Key: name}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Author{}, err
	}
	if current.Name != name && tx.state.authors.has(current.Name) {
		return Author{}, domain.ConflictError{Entity: domain.EntityAuthor, Key: current.Name}
	}
	tx.state.authors.replace(name, current)
	tx.recordChange(Change{Entity: domain.EntityAuthor, Action: domain.ActionUpdate, Before: before, After: current})
	if current.Name != name {
		tx.rewriteRecipes(func(r *Recipe) bool {
			if r.Author != name {
				return false
			}
			r.Author = current.Name
			return true
		})
	}
	return current, nil
}

// DeleteAuthor removes an author together with every recipe it wrote.
func (tx *transaction) DeleteAuthor(name string) (Author, error) {
	current, ok := tx.state.authors.get(name)
	if !ok {
		return Author{}, domain.NotFoundError{Entity: domain.EntityAuthor, Key: name}
	}
	tx.deleteRecipesWhere(func(r Recipe) bool { return r.Author == name })
	tx.state.authors.remove(name)
	tx.recordChange(Change{Entity: domain.EntityAuthor, Action: domain.ActionDelete, Before: current})
	return current, nil
}

// CreateIngredient stores a new ingredient.
func (tx *transaction) CreateIngredient(i Ingredient) (Ingredient, error) {
	if tx.state.ingredients.has(i.Name) {
		return Ingredient{}, domain.ConflictError{Entity: domain.EntityIngredient, Key: i.Name}
	}
	tx.state.ingredients.insert(i)
	tx.recordChange(Change{Entity: domain.EntityIngredient, Action: domain.ActionCreate, After: i})
	return i, nil
}

// UpdateIngredient mutates an ingredient in place and follows a rename into
// every recipe ingredient list.
func (tx *transaction) UpdateIngredient(name string, mutator func(*Ingredient) error) (Ingredient, error) {
	current, ok := tx.state.ingredients.get(name)
	if !ok {
		return Ingredient{}, domain.NotFoundError{Entity: domain.EntityIngredient, Key: name}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Ingredient{}, err
	}
	if current.Name != name && tx.state.ingredients.has(current.Name) {
		return Ingredient{}, domain.ConflictError{Entity: domain.EntityIngredient, Key: current.Name}
	}
	tx.state.ingredients.replace(name, current)
	tx.recordChange(Change{Entity: domain.EntityIngredient, Action: domain.ActionUpdate, Before: before, After: current})
	if current.Name != name {
		tx.rewriteRecipes(func(r *Recipe) bool {
			changed := false
			for idx, ing := range r.Ingredients {
				if ing == name {
					r.Ingredients[idx] = current.Name
					changed = true
				}
			}
			return changed
		})
	}
	return current, nil
}

// DeleteIngredient removes an ingredient together with every recipe using it.
func (tx *transaction) DeleteIngredient(name string) (Ingredient, error) {
	current, ok := tx.state.ingredients.get(name)
	if !ok {
		return Ingredient{}, domain.NotFoundError{Entity: domain.EntityIngredient, Key: name}
	}
	tx.deleteRecipesWhere(func(r Recipe) bool { return r.UsesIngredient(name) })
	tx.state.ingredients.remove(name)
	tx.recordChange(Change{Entity: domain.EntityIngredient, Action: domain.ActionDelete, Before: current})
	return current, nil
}
