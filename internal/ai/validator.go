package ai

import (
	"fmt"

	"github.com/smart-grid-ai/internal/domain"
)

// Validate checks that value has the expected shape and that every required
// top-level key is present and non-null. The check is shallow: nested values
// and field types are not inspected, and extra fields are kept.
//
// Objects are returned as domain.Result, arrays as []domain.Result.
func Validate(value any, shape Shape, required []string) (any, error) {
	if shape == ShapeArray {
		return validateArray(value, required)
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, domain.WrapError("validate",
			fmt.Errorf("%w: expected a JSON object, got %T", domain.ErrSchema, value), false)
	}
	if err := requireFields(obj, required); err != nil {
		return nil, err
	}
	return domain.Result(obj), nil
}

func validateArray(value any, required []string) (any, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, domain.WrapError("validate",
			fmt.Errorf("%w: expected a JSON array, got %T", domain.ErrSchema, value), false)
	}
	if len(items) == 0 {
		return nil, domain.WrapError("validate",
			fmt.Errorf("%w: array is empty", domain.ErrSchema), false)
	}

	results := make([]domain.Result, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, domain.WrapError("validate",
				fmt.Errorf("%w: element %d is %T, not an object", domain.ErrSchema, i, item), false)
		}
		if err := requireFields(obj, required); err != nil {
			return nil, err
		}
		results = append(results, domain.Result(obj))
	}
	return results, nil
}

func requireFields(obj map[string]any, required []string) error {
	for _, field := range required {
		if v, ok := obj[field]; !ok || v == nil {
			return domain.WrapError("validate_"+field,
				fmt.Errorf("%w: %s is required", domain.ErrSchema, field), false)
		}
	}
	return nil
}
