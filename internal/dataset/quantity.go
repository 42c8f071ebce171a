package dataset

import (
	"fmt"
	"math"

	apperrors "github.com/agbru/ertscan/internal/errors"
)

// Rejection reasons recorded for entries excluded at ingestion.
const (
	ReasonNotNumeric = "not numeric"
	ReasonNotFinite  = "not finite"
	ReasonZero       = "zero"
)

// Quantity is a labelled magnitude that passed validation.
type Quantity struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Rejection records an entry that was excluded from fitting and why.
type Rejection struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// Validate is the single ingestion predicate for ratio scoring: the raw value
// must be numeric, finite and non-zero. On rejection the returned error is an
// apperrors.ValidationError whose Message is one of the Reason constants.
func Validate(label string, raw any) (Quantity, error) {
	v, err := number(label, raw)
	if err != nil {
		return Quantity{}, err
	}
	if v == 0 {
		return Quantity{}, apperrors.NewValidationError(label, ReasonZero, raw)
	}
	return Quantity{Label: label, Value: v}, nil
}

// ValidateFinite is Validate without the non-zero requirement. Residuals use
// it, since an exact zero residual is meaningful there.
func ValidateFinite(label string, raw any) (Quantity, error) {
	v, err := number(label, raw)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Label: label, Value: v}, nil
}

func number(label string, raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint64:
		v = float64(x)
	case float64:
		v = x
	case float32:
		v = float64(x)
	default:
		return 0, apperrors.NewValidationError(label, ReasonNotNumeric, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.NewValidationError(label, ReasonNotFinite, raw)
	}
	return v, nil
}

// reason extracts the rejection reason from a validation failure.
func reason(err error) string {
	if ve, ok := err.(apperrors.ValidationError); ok {
		return ve.Message
	}
	return fmt.Sprint(err)
}
