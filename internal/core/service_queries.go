package core

import (
	"context"

	"recipebox/pkg/domain"
)

// ListRecipes returns the recipes passing filter in insertion order.
func (s *Service) ListRecipes(ctx context.Context, filter RecipeFilter) ([]Recipe, error) {
	var out []Recipe
	err := s.observe(ctx, OpListRecipes, func(ctx context.Context) error {
		return s.store.View(ctx, func(view TransactionView) error {
			out = filterRecipes(view.ListRecipes(), filter)
			return nil
		})
	})
	return out, err
}

// ListAuthors returns every author in insertion order.
func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	var out []Author
	err := s.observe(ctx, OpListAuthors, func(context.Context) error {
		out = s.store.ListAuthors()
		return nil
	})
	return out, err
}

// ListIngredients returns every ingredient in insertion order.
func (s *Service) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	var out []Ingredient
	err := s.observe(ctx, OpListIngredients, func(context.Context) error {
		out = s.store.ListIngredients()
		return nil
	})
	return out, err
}

// AuthorOf resolves the author a recipe points at.
func (s *Service) AuthorOf(ctx context.Context, recipe Recipe) (Author, error) {
	var out Author
	err := s.observe(ctx, OpAuthorOf, func(context.Context) error {
		author, ok := s.store.GetAuthor(recipe.Author)
		if !ok {
			return domain.NotFoundError{Entity: EntityAuthor, Key: recipe.Author}
		}
		out = author
		return nil
	})
	return out, err
}

// IngredientsOf resolves the ingredients a recipe lists. The result follows the
// ingredient collection order and names each ingredient once.
func (s *Service) IngredientsOf(ctx context.Context, recipe Recipe) ([]Ingredient, error) {
	var out []Ingredient
	err := s.observe(ctx, OpIngredientsOf, func(ctx context.Context) error {
		return s.store.View(ctx, func(view TransactionView) error {
			out = make([]Ingredient, 0, len(recipe.Ingredients))
			for _, ing := range view.ListIngredients() {
				if recipe.UsesIngredient(ing.Name) {
					out = append(out, ing)
				}
			}
			return nil
		})
	})
	return out, err
}

// RecipesOfAuthor returns the recipes written by author.
func (s *Service) RecipesOfAuthor(ctx context.Context, author Author) ([]Recipe, error) {
	var out []Recipe
	err := s.observe(ctx, OpRecipesOfAuthor, func(context.Context) error {
		out = filterRecipes(s.store.ListRecipes(), RecipeFilter{Author: author.Name})
		return nil
	})
	return out, err
}

// RecipesOfIngredient returns the recipes that list ingredient.
func (s *Service) RecipesOfIngredient(ctx context.Context, ingredient Ingredient) ([]Recipe, error) {
	var out []Recipe
	err := s.observe(ctx, OpRecipesOfIngredient, func(context.Context) error {
		out = filterRecipes(s.store.ListRecipes(), RecipeFilter{Ingredient: ingredient.Name})
		return nil
	})
	return out, err
}

func filterRecipes(recipes []Recipe, filter RecipeFilter) []Recipe {
	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
