// Package stats derives read-only views from the store: per-day session
// lists, chart series and productivity insights. Everything here is a pure
// function of store data: no caching, no mutation.
package stats

import (
	"time"

	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/store"
)

// ChartPoint is one bucket of a chart series.
type ChartPoint struct {
	Label    string    `json:"label"`
	Date     time.Time `json:"date"`
	Minutes  int       `json:"minutes"`
	Sessions int       `json:"sessions"`
}

// Insights summarizes lifetime and recent productivity. Totals are computed
// directly from the sessions collection, not the denormalized counters.
type Insights struct {
	TotalSessions         int     `json:"totalSessions"`
	TotalFocusMinutes     int     `json:"totalFocusMinutes"`
	AverageSessionMinutes float64 `json:"averageSessionMinutes"`
	CompletionRate        float64 `json:"completionRate"`
	TotalSeedsEarned      int     `json:"totalSeedsEarned"`
	CurrentStreakDays     int     `json:"currentStreakDays"`
	LongestStreakDays     int     `json:"longestStreakDays"`
	BestDayMinutes        int     `json:"bestDayMinutes"`
}

// SessionsForDate returns the completed and cancelled sessions whose start
// falls on the given calendar day, plus any current session started that day.
func SessionsForDate(st *store.Store, day time.Time) []domain.FocusSession {
	y, m, d := day.Date()
	var out []domain.FocusSession
	for _, s := range st.Focus().Sessions() {
		sy, sm, sd := s.StartTime.Date()
		if sy == y && sm == m && sd == d {
			out = append(out, s)
		}
	}
	return out
}

// ActiveSession returns the singleton active-or-paused session, if any.
func ActiveSession(st *store.Store) (domain.FocusSession, bool) {
	return st.Focus().CurrentSession()
}

// ChartData builds a focus-minutes series for the given period ending at now:
// "day" buckets the last 24 hours hourly, "week" the last 7 days daily,
// "month" the last 30 days daily. Unknown periods fall back to "week".
func ChartData(st *store.Store, period string, now time.Time) []ChartPoint {
	switch period {
	case "day":
		return hourlySeries(st, now)
	case "month":
		return dailySeries(st, now, 30)
	default:
		return dailySeries(st, now, 7)
	}
}

func dailySeries(st *store.Store, now time.Time, days int) []ChartPoint {
	sessions := completedSessions(st)
	points := make([]ChartPoint, days)
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, i-days+1)
		y, m, d := day.Date()
		p := ChartPoint{
			Label: day.Format("Mon 02"),
			Date:  time.Date(y, m, d, 0, 0, 0, 0, day.Location()),
		}
		for _, s := range sessions {
			sy, sm, sd := s.StartTime.Date()
			if sy == y && sm == m && sd == d {
				p.Minutes += s.Duration
				p.Sessions++
			}
		}
		points[i] = p
	}
	return points
}

func hourlySeries(st *store.Store, now time.Time) []ChartPoint {
	sessions := completedSessions(st)
	points := make([]ChartPoint, 24)
	for i := 0; i < 24; i++ {
		hour := now.Truncate(time.Hour).Add(time.Duration(i-23) * time.Hour)
		p := ChartPoint{
			Label: hour.Format("15:00"),
			Date:  hour,
		}
		for _, s := range sessions {
			if s.StartTime.Truncate(time.Hour).Equal(hour) {
				p.Minutes += s.Duration
				p.Sessions++
			}
		}
		points[i] = p
	}
	return points
}

// ProductivityInsights computes the summary view.
func ProductivityInsights(st *store.Store, now time.Time) Insights {
	completed := completedSessions(st)

	var in Insights
	in.TotalSessions = len(completed)
	var finished int
	for _, s := range st.Focus().Sessions() {
		if s.Status.IsTerminal() {
			finished++
		}
	}
	for _, s := range completed {
		in.TotalFocusMinutes += s.Duration
		in.TotalSeedsEarned += s.SeedsEarned
	}
	if in.TotalSessions > 0 {
		in.AverageSessionMinutes = float64(in.TotalFocusMinutes) / float64(in.TotalSessions)
	}
	if finished > 0 {
		in.CompletionRate = float64(in.TotalSessions) / float64(finished)
	}

	byDay := minutesByDay(completed)
	for _, minutes := range byDay {
		if minutes > in.BestDayMinutes {
			in.BestDayMinutes = minutes
		}
	}
	in.CurrentStreakDays = currentStreak(byDay, now)
	in.LongestStreakDays = longestStreak(byDay)
	return in
}

func completedSessions(st *store.Store) []domain.FocusSession {
	var out []domain.FocusSession
	for _, s := range st.Focus().Sessions() {
		if s.Status == domain.SessionCompleted {
			out = append(out, s)
		}
	}
	return out
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func minutesByDay(sessions []domain.FocusSession) map[string]int {
	byDay := make(map[string]int)
	for _, s := range sessions {
		byDay[dayKey(s.StartTime)] += s.Duration
	}
	return byDay
}

// currentStreak counts consecutive days with at least one completed session,
// walking back from today. A streak survives an empty today (the day is not
// over) but breaks on any earlier gap.
func currentStreak(byDay map[string]int, now time.Time) int {
	day := now
	streak := 0
	if _, ok := byDay[dayKey(day)]; !ok {
		day = day.AddDate(0, 0, -1)
	}
	for {
		if _, ok := byDay[dayKey(day)]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// longestStreak scans all recorded days for the longest consecutive run.
func longestStreak(byDay map[string]int) int {
	longest := 0
	for key := range byDay {
		day, err := time.Parse("2006-01-02", key)
		if err != nil {
			continue
		}
		// Only count runs from their first day.
		if _, hasPrev := byDay[dayKey(day.AddDate(0, 0, -1))]; hasPrev {
			continue
		}
		run := 0
		for {
			if _, ok := byDay[dayKey(day)]; !ok {
				break
			}
			run++
			day = day.AddDate(0, 0, 1)
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
