package core

import (
	"context"

	"recipebox/internal/infra/persistence/memory"
	"recipebox/pkg/domain"
)

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(ReferentialIntegrityRule())
	return engine
}

// CheckSnapshot evaluates the built-in rules against a snapshot as exported,
// without the normalisation ImportState applies. Empty and repeated keys are reported
// alongside rule violations.
func CheckSnapshot(ctx context.Context, snapshot Snapshot) (Result, error) {
	var res Result
	res.Violations = append(res.Violations, keyViolations(EntityAuthor, snapshot.Authors)...)
	res.Violations = append(res.Violations, keyViolations(EntityIngredient, snapshot.Ingredients)...)
	res.Violations = append(res.Violations, keyViolations(EntityRecipe, snapshot.Recipes)...)

	out, err := NewDefaultRulesEngine().Evaluate(ctx, memory.NewSnapshotView(snapshot), nil)
	if err != nil {
		return Result{}, err
	}
	res.Merge(out)
	return res, nil
}
