package baking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidRating = errors.New("invalid rating")

// ParseRating decodes a JSON rating. null (or no value) clears the rating;
// anything else must be a whole number. Range checks belong to the caller.
func ParseRating(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %s is not a number", ErrInvalidRating, raw)
	}
	if math.Trunc(f) != f || math.Abs(f) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %s is not a whole number", ErrInvalidRating, raw)
	}
	v := int(f)
	return &v, nil
}
