package goals

import (
	"fmt"
	"time"

	"github.com/hvukovic/weightly/pkg"
)

// MaxWeightKg is the upper bound for a plausible target weight.
const MaxWeightKg = 300

// Goal is a target weight to reach by a target date. StartWeight is
// optional: when absent, progress is computed against the current weight.
type Goal struct {
	ID           string   `json:"id"`
	UserID       string   `json:"userId"`
	TargetWeight float64  `json:"targetWeight"`
	StartWeight  *float64 `json:"startWeight,omitempty"`
	StartDate    pkg.Date `json:"startDate"`
	TargetDate   pkg.Date `json:"targetDate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (g Goal) Validate() error {
	if g.TargetWeight <= 0 || g.TargetWeight > MaxWeightKg {
		return fmt.Errorf("target weight must be between 0 and %d", MaxWeightKg)
	}
	if g.StartDate.IsZero() || g.TargetDate.IsZero() {
		return fmt.Errorf("start and target dates missing")
	}
	if !g.TargetDate.After(g.StartDate.Time) {
		return fmt.Errorf("target date must be after start date")
	}
	return nil
}
