package core

import "recipebox/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Recipe             = domain.Recipe
	Author             = domain.Author
	Ingredient         = domain.Ingredient
	RecipeFilter       = domain.RecipeFilter
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityRecipe     = domain.EntityRecipe
	EntityAuthor     = domain.EntityAuthor
	EntityIngredient = domain.EntityIngredient
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
