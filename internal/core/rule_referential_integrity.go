package core

import (
	"context"
	"fmt"

	"recipebox/pkg/domain"
)

const referentialIntegrityRuleName = "referential_integrity"

// ReferentialIntegrityRule blocks commits that leave a recipe pointing at a
// missing author or ingredient.
func ReferentialIntegrityRule() domain.Rule {
	return referentialIntegrityRule{}
}

type referentialIntegrityRule struct{}

func (referentialIntegrityRule) Name() string { return referentialIntegrityRuleName }

func (referentialIntegrityRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, recipe := range view.ListRecipes() {
		if _, ok := view.FindAuthor(recipe.Author); !ok {
			res.Violations = append(res.Violations, integrityViolation(recipe.Title,
				fmt.Sprintf("recipe %q references missing author %q", recipe.Title, recipe.Author)))
		}
		for _, name := range recipe.Ingredients {
			if _, ok := view.FindIngredient(name); !ok {
				res.Violations = append(res.Violations, integrityViolation(recipe.Title,
					fmt.Sprintf("recipe %q references missing ingredient %q", recipe.Title, name)))
			}
		}
	}
	return res, nil
}

func integrityViolation(title, message string) domain.Violation {
	return domain.Violation{
		Rule:      referentialIntegrityRuleName,
		Severity:  domain.SeverityBlock,
		Message:   message,
		Entity:    domain.EntityRecipe,
		EntityKey: title,
	}
}

type keyed interface {
	Key() string
}

// keyViolations reports empty and repeated keys in an exported collection.
func keyViolations[T keyed](entity EntityType, records []T) []Violation {
	var out []Violation
	seen := make(map[string]int, len(records))
	for _, r := range records {
		key := r.Key()
		if key == "" {
			out = append(out, Violation{
				Rule:     referentialIntegrityRuleName,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s with empty %s", entity, entity.KeyField()),
				Entity:   entity,
			})
			continue
		}
		seen[key]++
		if seen[key] != 2 {
			continue
		}
		out = append(out, Violation{
			Rule:      referentialIntegrityRuleName,
			Severity:  domain.SeverityBlock,
			Message:   fmt.Sprintf("%s %s %q appears more than once", entity, entity.KeyField(), key),
			Entity:    entity,
			EntityKey: key,
		})
	}
	return out
}
