// Package analytics computes stateless intake-vs-goal reports.
package analytics

import (
	"math"
	"time"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	domanalytics "github.com/kailas-cloud/nutrisearch/internal/domain/analytics"
	"github.com/kailas-cloud/nutrisearch/internal/domain/food"
)

// Service computes analytics reports. It holds no state.
type Service struct{}

// New creates an analytics service.
func New() *Service { return &Service{} }

// Summarize averages intake over the inclusive day range [from, to]. Intakes outside
// the range are ignored and several entries for one day are added up. With
// includeMissing every calendar day counts (empty days as zero); otherwise only
// days that have intake do.
func (s *Service) Summarize(
	days []domanalytics.DayIntake, goal domanalytics.Goal, from, to time.Time, includeMissing bool,
) (domanalytics.Summary, error) {
	from, to = domanalytics.DayStart(from), domanalytics.DayStart(to)
	if to.Before(from) {
		return domanalytics.Summary{}, domain.Invalidf("from must not be after to")
	}
	if span := int(to.Sub(from).Hours()/24) + 1; span > domanalytics.MaxRangeDays {
		return domanalytics.Summary{}, domain.Invalidf("range too long (max %d days)", domanalytics.MaxRangeDays)
	}

	byDay := make(map[string]food.NutrientProfile)
	for _, d := range days {
		day := domanalytics.DayStart(d.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		key := day.Format(domanalytics.DateLayout)
		byDay[key] = byDay[key].Add(d.Consumed)
	}

	var keys []string
	if includeMissing {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			keys = append(keys, d.Format(domanalytics.DateLayout))
		}
	} else {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if _, ok := byDay[d.Format(domanalytics.DateLayout)]; ok {
				keys = append(keys, d.Format(domanalytics.DateLayout))
			}
		}
	}

	type acc struct{ sum, gsum, psum float64 }
	sums := make(map[string]*acc, len(domanalytics.Nutrients))
	for _, n := range domanalytics.Nutrients {
		sums[n] = &acc{}
	}

	goals := domanalytics.Values(goal)
	for _, k := range keys {
		consumed := domanalytics.Values(byDay[k])
		for _, n := range domanalytics.Nutrients {
			a := sums[n]
			a.sum += consumed[n]
			a.gsum += goals[n]
			a.psum += percentOf(consumed[n], goals[n])
		}
	}

	out := domanalytics.Summary{
		From:               from.Format(domanalytics.DateLayout),
		To:                 to.Format(domanalytics.DateLayout),
		Nutrients:          make(map[string]domanalytics.Average, len(domanalytics.Nutrients)),
		DaysCounted:        len(keys),
		IncludeMissingDays: includeMissing,
	}
	for _, n := range domanalytics.Nutrients {
		a := sums[n]
		out.Nutrients[n] = domanalytics.Average{
			AvgConsumed: avg(a.sum, len(keys)),
			AvgGoal:     avg(a.gsum, len(keys)),
			AvgPercent:  avg(a.psum, len(keys)),
			Unit:        domanalytics.Units[n],
		}
	}
	return out, nil
}

// Daily reports one day's intake against the goal.
func (s *Service) Daily(day domanalytics.DayIntake, goal domanalytics.Goal) domanalytics.Daily {
	consumed := domanalytics.Values(day.Consumed)
	goals := domanalytics.Values(goal)

	out := domanalytics.Daily{
		Date:    domanalytics.DayStart(day.Date).Format(domanalytics.DateLayout),
		Metrics: make(map[string]domanalytics.Metric, len(domanalytics.Nutrients)),
	}
	for _, n := range domanalytics.Nutrients {
		out.Metrics[n] = domanalytics.Metric{
			Consumed:  round2(consumed[n]),
			Target:    round2(goals[n]),
			Remaining: round2(math.Max(goals[n]-consumed[n], 0)),
			Percent:   pct(consumed[n], goals[n]),
			Unit:      domanalytics.Units[n],
		}
	}
	return out
}

// pct is percentOf rounded for display.
func pct(actual, goal float64) float64 {
	return round2(percentOf(actual, goal))
}

// percentOf is actual as a percentage of goal. Without a goal any intake counts
// as 100% and no intake as 0%.
func percentOf(actual, goal float64) float64 {
	if goal <= 0 {
		if actual <= 0 {
			return 0
		}
		return 100
	}
	return actual / goal * 100
}

func avg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
