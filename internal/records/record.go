package records

import (
	"fmt"
	"time"

	"github.com/hvukovic/weightly/pkg"
)

// MaxWeightKg is the upper bound for a plausible weight entry.
const MaxWeightKg = 300

// Exercise is an optional activity note attached to a weight record.
type Exercise struct {
	Type            string `json:"type"`
	DurationMinutes int    `json:"durationMinutes"`
	Calories        int    `json:"calories"`
}

type WeightRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Date      pkg.Date  `json:"date"`
	Weight    float64   `json:"weight"`
	Note      string    `json:"note,omitempty"`
	Exercise  *Exercise `json:"exercise,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the boundary rules for incoming records.
func (r WeightRecord) Validate() error {
	if r.Weight <= 0 || r.Weight > MaxWeightKg {
		return fmt.Errorf("weight must be between 0 and %d", MaxWeightKg)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("date missing")
	}
	return nil
}
