package aggregates

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// RequireStatusAllowed validates current status against allowed values.
func RequireStatusAllowed(current string, allowed ...string) error {
	current = strings.TrimSpace(current)
	if len(allowed) == 0 {
		return ValidationError("allowed statuses cannot be empty")
	}
	for _, s := range allowed {
		if strings.EqualFold(current, strings.TrimSpace(s)) {
			return nil
		}
	}
	return InvalidStateError("status " + current + " does not allow this operation")
}

// RequireOwner rejects the nil owner; anonymous writes never reach the store.
func RequireOwner(ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return ValidationError("owner id is required")
	}
	return nil
}

func RequireIDs(named map[string]uuid.UUID) error {
	for name, id := range named {
		if id == uuid.Nil {
			return ValidationError(name + " is required")
		}
	}
	return nil
}

// RequireRating accepts nil (clears the rating) or an integer in [1,5].
func RequireRating(rating *int) error {
	if rating == nil {
		return nil
	}
	if *rating < MinRating || *rating > MaxRating {
		return ValidationError("rating must be between 1 and 5")
	}
	return nil
}

// RequireJSON validates free-form JSON documents such as deviations.
func RequireJSON(raw json.RawMessage, field string) error {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return ValidationError(field + " must be valid JSON")
	}
	return nil
}
