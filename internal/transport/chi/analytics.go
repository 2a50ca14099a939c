package chi

import (
	"net/http"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	domanalytics "github.com/kailas-cloud/nutrisearch/internal/domain/analytics"
)

// DayIntakeJSON is one day of intake.
type DayIntakeJSON struct {
	Date     string         `json:"date"`
	Consumed *NutrientsJSON `json:"consumed"`
}

// SummaryRequest is the POST /analytics/summary body.
type SummaryRequest struct {
	From               string          `json:"from"`
	To                 string          `json:"to"`
	IncludeMissingDays bool            `json:"includeMissingDays"`
	Goal               *NutrientsJSON  `json:"goal"`
	Days               []DayIntakeJSON `json:"days"`
}

// DailyRequest is the POST /analytics/daily body.
type DailyRequest struct {
	Date     string         `json:"date"`
	Consumed *NutrientsJSON `json:"consumed"`
	Goal     *NutrientsJSON `json:"goal"`
}

// AnalyticsSummary handles POST /analytics/summary.
func (s *Server) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	from, err := domanalytics.ParseDay(req.From)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	to, err := domanalytics.ParseDay(req.To)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	days := make([]domanalytics.DayIntake, 0, len(req.Days))
	for _, d := range req.Days {
		day, err := dayFromJSON(d.Date, d.Consumed)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		days = append(days, day)
	}

	summary, err := s.svc.Analytics.Summarize(days, nutrientsFromJSON(req.Goal), from, to, req.IncludeMissingDays)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// AnalyticsDaily handles POST /analytics/daily.
func (s *Server) AnalyticsDaily(w http.ResponseWriter, r *http.Request) {
	var req DailyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	day, err := dayFromJSON(req.Date, req.Consumed)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.svc.Analytics.Daily(day, nutrientsFromJSON(req.Goal)))
}

func dayFromJSON(date string, consumed *NutrientsJSON) (domanalytics.DayIntake, error) {
	t, err := domanalytics.ParseDay(date)
	if err != nil {
		return domanalytics.DayIntake{}, err
	}
	if consumed != nil && hasNegative(consumed) {
		return domanalytics.DayIntake{}, domain.Invalidf("consumed nutrients on %s must not be negative", date)
	}
	return domanalytics.DayIntake{Date: t, Consumed: nutrientsFromJSON(consumed)}, nil
}

func hasNegative(n *NutrientsJSON) bool {
	return n.Calories < 0 || n.Protein < 0 || n.Carbs < 0 || n.Fat < 0 ||
		n.Fiber < 0 || n.Sugar < 0 || n.Sodium < 0
}
