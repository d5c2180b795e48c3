package core

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"recipebox/pkg/domain"
)

// Argument structs are validated before any transaction opens. Field names in
// errors come from the arg tag.

type recipeArgs struct {
	Title       string   `arg:"title" validate:"required"`
	Author      string   `arg:"author" validate:"required"`
	Ingredients []string `arg:"ingredients" validate:"dive,required"`
}

type editRecipeArgs struct {
	Title          string   `arg:"title" validate:"required"`
	NewTitle       string   `arg:"newTitle" validate:"required"`
	NewAuthor      string   `arg:"newAuthor" validate:"required"`
	NewIngredients []string `arg:"newIngredients" validate:"dive,required"`
}

type titleArgs struct {
	Title string `arg:"title" validate:"required"`
}

type nameArgs struct {
	Name string `arg:"name" validate:"required"`
}

type renameArgs struct {
	Name    string `arg:"name" validate:"required"`
	NewName string `arg:"newName" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("arg")
	})
	return v
}

// validateArgs maps validator failures onto domain.InvalidArgumentError so
// callers can match domain.ErrInvalidArgument.
func (s *Service) validateArgs(args any) error {
	err := s.validate.Struct(args)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := fe.Tag()
		if reason == "required" {
			reason = "must not be empty"
		}
		return domain.InvalidArgumentError{Argument: fe.Field(), Reason: reason}
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
}
