// Package analytics holds intake, goal and report types for nutrition analytics.
package analytics

import (
	"time"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
)

// DateLayout is the calendar-day format used on the wire.
const DateLayout = "2006-01-02"

// MaxRangeDays caps a summary range.
const MaxRangeDays = 366

// Nutrient keys in report order, with their units.
var (
	Nutrients = []string{"calories", "protein", "carbs", "fat", "fiber", "sugar", "sodium"}
	Units     = map[string]string{
		"calories": "kcal", "protein": "g", "carbs": "g", "fat": "g",
		"fiber": "g", "sugar": "g", "sodium": "g",
	}
)

// DayIntake is what was eaten on one calendar day.
type DayIntake struct {
	Date     time.Time
	Consumed food.NutrientProfile
}

// Goal is a daily nutrient target.
type Goal = food.NutrientProfile

// Average is a per-nutrient mean over a range.
type Average struct {
	AvgConsumed float64 `json:"avgConsumed"`
	AvgGoal     float64 `json:"avgGoal"`
	AvgPercent  float64 `json:"avgPercent"`
	Unit        string  `json:"unit"`
}

// Summary averages intake over [From, To].
type Summary struct {
	From               string             `json:"from"`
	To                 string             `json:"to"`
	Nutrients          map[string]Average `json:"nutrients"`
	DaysCounted        int                `json:"daysCounted"`
	IncludeMissingDays bool               `json:"includeMissingDays"`
}

// Metric is one nutrient of a daily report.
type Metric struct {
	Consumed  float64 `json:"consumed"`
	Target    float64 `json:"target"`
	Remaining float64 `json:"remaining"`
	Percent   float64 `json:"percent"`
	Unit      string  `json:"unit"`
}

// Daily compares one day of intake with the goal.
type Daily struct {
	Date    string            `json:"date"`
	Metrics map[string]Metric `json:"metrics"`
}

// ParseDay parses a YYYY-MM-DD date in UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, domain.Invalidf("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

// DayStart truncates t to midnight in its location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Values returns the profile keyed by nutrient name.
func Values(p food.NutrientProfile) map[string]float64 {
	return map[string]float64{
		"calories": p.Calories,
		"protein":  p.Protein,
		"carbs":    p.Carbs,
		"fat":      p.Fat,
		"fiber":    p.Fiber,
		"sugar":    p.Sugar,
		"sodium":   p.Sodium,
	}
}
