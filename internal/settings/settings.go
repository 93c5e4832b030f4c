package settings

import "fmt"

// UserSettings holds per-user display and notification preferences.
type UserSettings struct {
	UserID        string `json:"userId"`
	WeightUnit    string `json:"weightUnit"`
	HeightUnit    string `json:"heightUnit"`
	Notifications bool   `json:"notifications"`
}

const (
	WeightUnitKg = "kg"
	WeightUnitLb = "lb"
	HeightUnitCm = "cm"
	HeightUnitIn = "in"
)

// Defaults returns the settings a user gets before ever saving any.
func Defaults(userID string) UserSettings {
	return UserSettings{
		UserID:        userID,
		WeightUnit:    WeightUnitKg,
		HeightUnit:    HeightUnitCm,
		Notifications: false,
	}
}

func (s UserSettings) Validate() error {
	if s.WeightUnit != WeightUnitKg && s.WeightUnit != WeightUnitLb {
		return fmt.Errorf("weight unit must be %s or %s", WeightUnitKg, WeightUnitLb)
	}
	if s.HeightUnit != HeightUnitCm && s.HeightUnit != HeightUnitIn {
		return fmt.Errorf("height unit must be %s or %s", HeightUnitCm, HeightUnitIn)
	}
	return nil
}
