// Package core exposes the recipe book operations on top of a transactional
// store, with validation, audit, metrics and tracing around every call.
package core

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"recipebox/internal/infra/persistence/memory"
)

// Operation names reported to loggers, audit, metrics and tracers.
const (
	OpAddRecipe           = "add_recipe"
	OpRemoveRecipe        = "remove_recipe"
	OpEditRecipe          = "edit_recipe"
	OpAddAuthor           = "add_author"
	OpRemoveAuthor        = "remove_author"
	OpEditAuthor          = "edit_author"
	OpAddIngredient       = "add_ingredient"
	OpRemoveIngredient    = "remove_ingredient"
	OpEditIngredient      = "edit_ingredient"
	OpListRecipes         = "list_recipes"
	OpListAuthors         = "list_authors"
	OpListIngredients     = "list_ingredients"
	OpAuthorOf            = "author_of"
	OpIngredientsOf       = "ingredients_of"
	OpRecipesOfAuthor     = "recipes_of_author"
	OpRecipesOfIngredient = "recipes_of_ingredient"
)

type auditMetadata struct {
	entity EntityType
	action Action
}

var auditedOperations = map[string]auditMetadata{
	OpAddRecipe:        {EntityRecipe, ActionCreate},
	OpRemoveRecipe:     {EntityRecipe, ActionDelete},
	OpEditRecipe:       {EntityRecipe, ActionUpdate},
	OpAddAuthor:        {EntityAuthor, ActionCreate},
	OpRemoveAuthor:     {EntityAuthor, ActionDelete},
	OpEditAuthor:       {EntityAuthor, ActionUpdate},
	OpAddIngredient:    {EntityIngredient, ActionCreate},
	OpRemoveIngredient: {EntityIngredient, ActionDelete},
	OpEditIngredient:   {EntityIngredient, ActionUpdate},
}

// Service exposes the transactional recipe book operations.
type Service struct {
	store    PersistentStore
	logger   Logger
	clock    Clock
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	validate *validator.Validate
}

type nowFuncProvider interface {
	NowFunc() func() time.Time
}

// NewService constructs a service backed by the supplied store. When the store
// exposes its own clock the service adopts it unless WithClock is given.
func NewService(store PersistentStore, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		logger:   noopLogger{},
		clock:    systemClock{},
		audit:    noopAuditRecorder{},
		metrics:  noopMetricsRecorder{},
		tracer:   noopTracer{},
		validate: newValidator(),
	}
	if provider, ok := store.(nowFuncProvider); ok {
		if fn := provider.NowFunc(); fn != nil {
			svc.clock = ClockFunc(fn)
		}
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NewInMemoryService creates a service and in-memory store with the given rules
// engine. The store dates recipes with the service clock.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	svc := NewService(nil, opts...)
	svc.store = NewMemoryStore(engine, memory.WithNowFunc(svc.clock.Now))
	return svc
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// AddRecipe stores a new recipe dated now.
func (s *Service) AddRecipe(ctx context.Context, title, description, author string, ingredients []string) (Recipe, error) {
	args := recipeArgs{Title: title, Author: author, Ingredients: ingredients}
	return mutate(ctx, s, OpAddRecipe, title, args, func(tx Transaction) (Recipe, error) {
		return tx.CreateRecipe(Recipe{
			Title:       title,
			Description: description,
			Author:      author,
			Ingredients: ingredients,
		})
	})
}

// RemoveRecipe deletes a recipe and returns it.
func (s *Service) RemoveRecipe(ctx context.Context, title string) (Recipe, error) {
	return mutate(ctx, s, OpRemoveRecipe, title, titleArgs{Title: title}, func(tx Transaction) (Recipe, error) {
		return tx.DeleteRecipe(title)
	})
}

// EditRecipe replaces every field of the recipe titled title. The recipe keeps
// its position in listings and receives a fresh date.
func (s *Service) EditRecipe(ctx context.Context, title, newTitle, newDescription, newAuthor string, newIngredients []string) (Recipe, error) {
	args := editRecipeArgs{Title: title, NewTitle: newTitle, NewAuthor: newAuthor, NewIngredients: newIngredients}
	return mutate(ctx, s, OpEditRecipe, title, args, func(tx Transaction) (Recipe, error) {
		return tx.UpdateRecipe(title, func(r *Recipe) error {
			r.Title = newTitle
			r.Description = newDescription
			r.Author = newAuthor
			r.Ingredients = append([]string(nil), newIngredients...)
			return nil
		})
	})
}

// AddAuthor stores a new author.
func (s *Service) AddAuthor(ctx context.Context, name, email string) (Author, error) {
	return mutate(ctx, s, OpAddAuthor, name, nameArgs{Name: name}, func(tx Transaction) (Author, error) {
		return tx.CreateAuthor(Author{Name: name, Email: email})
	})
}

// RemoveAuthor deletes an author and every recipe it wrote.
func (s *Service) RemoveAuthor(ctx context.Context, name string) (Author, error) {
	return mutate(ctx, s, OpRemoveAuthor, name, nameArgs{Name: name}, func(tx Transaction) (Author, error) {
		return tx.DeleteAuthor(name)
	})
}

// EditAuthor renames an author and updates its email. Recipes follow the rename.
func (s *Service) EditAuthor(ctx context.Context, name, newName, newEmail string) (Author, error) {
	return mutate(ctx, s, OpEditAuthor, name, renameArgs{Name: name, NewName: newName}, func(tx Transaction) (Author, error) {
		return tx.UpdateAuthor(name, func(a *Author) error {
			a.Name = newName
			a.Email = newEmail
			return nil
		})
	})
}

// AddIngredient stores a new ingredient.
func (s *Service) AddIngredient(ctx context.Context, name string) (Ingredient, error) {
	return mutate(ctx, s, OpAddIngredient, name, nameArgs{Name: name}, func(tx Transaction) (Ingredient, error) {
		return tx.CreateIngredient(Ingredient{Name: name})
	})
}

// RemoveIngredient deletes an ingredient and every recipe that lists it.
func (s *Service) RemoveIngredient(ctx context.Context, name string) (Ingredient, error) {
	return mutate(ctx, s, OpRemoveIngredient, name, nameArgs{Name: name}, func(tx Transaction) (Ingredient, error) {
		return tx.DeleteIngredient(name)
	})
}

// EditIngredient renames an ingredient. Recipe ingredient lists follow the rename.
func (s *Service) EditIngredient(ctx context.Context, name, newName string) (Ingredient, error) {
	return mutate(ctx, s, OpEditIngredient, name, renameArgs{Name: name, NewName: newName}, func(tx Transaction) (Ingredient, error) {
		return tx.UpdateIngredient(name, func(i *Ingredient) error {
			i.Name = newName
			return nil
		})
	})
}

// mutate validates args, runs apply in a transaction and reports the outcome to
// the tracer, metrics, logger and audit recorder. key names the record the
// caller addressed and is used for failure reporting.
func mutate[T keyed](ctx context.Context, s *Service, op, key string, args any, apply func(Transaction) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := s.clock.Now()

	var out T
	err := s.validateArgs(args)
	if err == nil {
		_, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var applyErr error
			out, applyErr = apply(tx)
			return applyErr
		})
	}

	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logger.Warn("operation failed", "operation", op, "key", key, "error", err)
		s.recordAuditFailure(ctx, op, key, duration, err)
		var zero T
		return zero, err
	}
	s.logger.Debug("operation completed", "operation", op, "key", out.Key(), "duration", duration)
	s.recordAuditSuccess(ctx, op, out.Key(), duration)
	return out, nil
}

// observe wraps read-only operations with tracing and metrics.
func (s *Service) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	started := s.clock.Now()
	err := fn(ctx)
	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logger.Warn("query failed", "operation", op, "error", err)
	}
	return err
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityKey string, duration time.Duration) {
	s.recordAudit(ctx, op, entityKey, duration, nil)
}

func (s *Service) recordAuditFailure(ctx context.Context, op, entityKey string, duration time.Duration, err error) {
	s.recordAudit(ctx, op, entityKey, duration, err)
}

func (s *Service) recordAudit(ctx context.Context, op, entityKey string, duration time.Duration, err error) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityKey: entityKey,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if id, idErr := uuid.NewV7(); idErr == nil {
		entry.ID = id.String()
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
