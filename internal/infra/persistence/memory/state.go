package memory

type keyed interface {
	Key() string
}

// collection keeps records indexed by natural key while remembering the order
// in which keys were first inserted. Records are cloned on the way in and out.
type collection[T keyed] struct {
	items map[string]T
	order []string
	clone func(T) T
}

func newCollection[T keyed](clone func(T) T) collection[T] {
	return collection[T]{items: make(map[string]T), clone: clone}
}

func (c collection[T]) has(key string) bool {
	_, ok := c.items[key]
	return ok
}

func (c collection[T]) get(key string) (T, bool) {
	v, ok := c.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(v), true
}

func (c *collection[T]) insert(v T) {
	key := v.Key()
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = c.clone(v)
}

// replace stores v in the slot held by oldKey, re-keying it when v.Key() differs.
func (c *collection[T]) replace(oldKey string, v T) {
	newKey := v.Key()
	if newKey != oldKey {
		delete(c.items, oldKey)
		for i, k := range c.order {
			if k == oldKey {
				c.order[i] = newKey
				break
			}
		}
	}
	c.items[newKey] = c.clone(v)
}

func (c *collection[T]) remove(key string) {
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

func (c collection[T]) keys() []string {
	return append([]string(nil), c.order...)
}

func (c collection[T]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.clone(c.items[k]))
	}
	return out
}

func (c collection[T]) len() int { return len(c.order) }

func (c collection[T]) copy() collection[T] {
	cp := collection[T]{
		items: make(map[string]T, len(c.items)),
		order: append([]string(nil), c.order...),
		clone: c.clone,
	}
	for k, v := range c.items {
		cp.items[k] = c.clone(v)
	}
	return cp
}

type memoryState struct {
	recipes     collection[Recipe]
	authors     collection[Author]
	ingredients collection[Ingredient]
}

// Snapshot captures a point-in-time clone of the store state. Each slice is in
// insertion order.
type Snapshot struct {
	Recipes     []Recipe     `json:"recipes"`
	Authors     []Author     `json:"authors"`
	Ingredients []Ingredient `json:"ingredients"`
}

func newMemoryState() memoryState {
	return memoryState{
		recipes:     newCollection(cloneRecipe),
		authors:     newCollection(cloneAuthor),
		ingredients: newCollection(cloneIngredient),
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		recipes:     s.recipes.copy(),
		authors:     s.authors.copy(),
		ingredients: s.ingredients.copy(),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Recipes:     state.recipes.list(),
		Authors:     state.authors.list(),
		Ingredients: state.ingredients.list(),
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for _, a := range s.Authors {
		state.authors.insert(a)
	}
	for _, i := range s.Ingredients {
		state.ingredients.insert(i)
	}
	for _, r := range s.Recipes {
		state.recipes.insert(r)
	}
	return state
}

// migrateSnapshot normalises an externally supplied snapshot: records with an
// empty or repeated key are dropped (first occurrence wins) and recipes whose
// author or ingredients are missing are discarded.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	out := Snapshot{
		Recipes:     make([]Recipe, 0, len(snapshot.Recipes)),
		Authors:     make([]Author, 0, len(snapshot.Authors)),
		Ingredients: make([]Ingredient, 0, len(snapshot.Ingredients)),
	}
	authors := make(map[string]struct{}, len(snapshot.Authors))
	for _, a := range snapshot.Authors {
		if a.Name == "" {
			continue
		}
		if _, dup := authors[a.Name]; dup {
			continue
		}
		authors[a.Name] = struct{}{}
		out.Authors = append(out.Authors, a)
	}
	ingredients := make(map[string]struct{}, len(snapshot.Ingredients))
	for _, i := range snapshot.Ingredients {
		if i.Name == "" {
			continue
		}
		if _, dup := ingredients[i.Name]; dup {
			continue
		}
		ingredients[i.Name] = struct{}{}
		out.Ingredients = append(out.Ingredients, i)
	}
	titles := make(map[string]struct{}, len(snapshot.Recipes))
recipes:
	for _, r := range snapshot.Recipes {
		if r.Title == "" {
			continue
		}
		if _, dup := titles[r.Title]; dup {
			continue
		}
		if _, ok := authors[r.Author]; !ok {
			continue
		}
		for _, name := range r.Ingredients {
			if _, ok := ingredients[name]; !ok {
				continue recipes
			}
		}
		titles[r.Title] = struct{}{}
		r = cloneRecipe(r)
		out.Recipes = append(out.Recipes, r)
	}
	return out
}

func cloneRecipe(r Recipe) Recipe {
	cp := r.Clone()
	if cp.Ingredients == nil {
		cp.Ingredients = []string{}
	}
	return cp
}

func cloneAuthor(a Author) Author             { return a }
func cloneIngredient(i Ingredient) Ingredient { return i }
