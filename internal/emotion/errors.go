package emotion

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed validation errors via errors.Is.
var (
	ErrUnknownCategory    = errors.New("unknown emotion category")
	ErrInvalidProbability = errors.New("probability out of range")
	ErrDistributionSum    = errors.New("distribution does not sum to 1")
)

// UnknownCategoryError is returned when a label is not part of the palette.
type UnknownCategoryError struct {
	Name string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownCategory, e.Name)
}

func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}

// InvalidProbabilityError is returned when a weight lies outside [0, 1].
type InvalidProbabilityError struct {
	Category Category
	Value    float64
}

func (e *InvalidProbabilityError) Error() string {
	return fmt.Sprintf("%v: %s=%v", ErrInvalidProbability, e.Category, e.Value)
}

func (e *InvalidProbabilityError) Is(target error) bool {
	return target == ErrInvalidProbability
}

// DistributionSumError is returned when the weights do not total 1.0 within
// the deriver's tolerance.
type DistributionSumError struct {
	Sum       float64
	Tolerance float64
}

func (e *DistributionSumError) Error() string {
	return fmt.Sprintf("%v: sum=%v tolerance=%v", ErrDistributionSum, e.Sum, e.Tolerance)
}

func (e *DistributionSumError) Is(target error) bool {
	return target == ErrDistributionSum
}

// ErrorKind returns a short machine-readable name for a validation error, or
// the empty string if err is not one.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, ErrInvalidProbability):
		return "invalid_probability"
	case errors.Is(err, ErrDistributionSum):
		return "distribution_sum"
	default:
		return ""
	}
}
