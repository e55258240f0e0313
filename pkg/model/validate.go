package model

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structValidatorOnce sync.Once
	structValidator     *validator.Validate
)

func descriptorValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New()
	})
	return structValidator
}

// Validate checks the structural invariants renderers rely on: positive
// unique ids, known placements and compilable input masks.
func (f Form) Validate() error {
	if err := descriptorValidator().Struct(f); err != nil {
		return fmt.Errorf("model: form %d: %w", f.ID, err)
	}

	seen := make(map[int]struct{}, len(f.Fields))
	var errs []error
	for _, field := range f.Fields {
		if _, exists := seen[field.ID]; exists {
			errs = append(errs, fmt.Errorf("model: form %d: duplicate field id %d", f.ID, field.ID))
			continue
		}
		seen[field.ID] = struct{}{}

		if field.InputMaskValue != "" {
			if _, err := regexp.Compile(field.InputMaskValue); err != nil {
				errs = append(errs, fmt.Errorf("model: form %d: field %d input mask: %w", f.ID, field.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}
