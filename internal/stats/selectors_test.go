package stats

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/bus"
	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/store"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var now = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(fixedClock{t: now}, bus.New(zap.NewNop()), zap.NewNop(), "user-1")

	put := func(id string, start time.Time, minutes, seeds int, status domain.SessionStatus) {
		sess := domain.FocusSession{
			Base:           domain.NewBase(id, start),
			UserID:         "user-1",
			StartTime:      start,
			Duration:       minutes,
			TargetDuration: minutes,
			Status:         status,
			SeedsEarned:    seeds,
		}
		if status.IsTerminal() {
			end := start.Add(time.Duration(minutes) * time.Minute)
			sess.EndTime = &end
		}
		st.Focus().PutSession(sess)
	}

	// Three-day streak ending today, a gap on the 7th, one session on the 6th.
	put("s1", now.Add(-2*time.Hour), 60, 1, domain.SessionCompleted)          // today
	put("s2", now.AddDate(0, 0, -1), 130, 3, domain.SessionCompleted)         // yesterday
	put("s3", now.AddDate(0, 0, -2), 30, 0, domain.SessionCompleted)          // two days ago
	put("s4", now.AddDate(0, 0, -2).Add(time.Hour), 45, 0, domain.SessionCompleted)
	put("s5", now.AddDate(0, 0, -4), 25, 0, domain.SessionCompleted)          // before the gap
	put("s6", now.Add(-30*time.Minute), 0, 0, domain.SessionCancelled)
	return st
}

func TestSessionsForDate(t *testing.T) {
	st := seedStore(t)

	today := SessionsForDate(st, now)
	if len(today) != 2 {
		t.Fatalf("sessions today = %d, want 2 (one completed, one cancelled)", len(today))
	}
	twoAgo := SessionsForDate(st, now.AddDate(0, 0, -2))
	if len(twoAgo) != 2 {
		t.Fatalf("sessions two days ago = %d, want 2", len(twoAgo))
	}
	if got := SessionsForDate(st, now.AddDate(0, 0, -3)); len(got) != 0 {
		t.Fatalf("sessions on empty day = %d, want 0", len(got))
	}
}

func TestActiveSession(t *testing.T) {
	st := seedStore(t)
	if _, ok := ActiveSession(st); ok {
		t.Fatal("no session should be active")
	}
	st.Focus().PutSession(domain.FocusSession{
		Base:      domain.NewBase("live", now),
		StartTime: now,
		Status:    domain.SessionActive,
	})
	if live, ok := ActiveSession(st); !ok || live.ID != "live" {
		t.Fatalf("active session = (%+v, %v)", live, ok)
	}
}

func TestChartDataWeek(t *testing.T) {
	st := seedStore(t)
	points := ChartData(st, "week", now)
	if len(points) != 7 {
		t.Fatalf("points = %d, want 7", len(points))
	}
	last := points[6]
	if last.Minutes != 60 || last.Sessions != 1 {
		t.Errorf("today's bucket = %+v, want 60 minutes from 1 session", last)
	}
	if points[5].Minutes != 130 {
		t.Errorf("yesterday's bucket = %+v, want 130 minutes", points[5])
	}
	if points[4].Minutes != 75 || points[4].Sessions != 2 {
		t.Errorf("two-days-ago bucket = %+v, want 75 minutes over 2 sessions", points[4])
	}
	if points[3].Minutes != 0 {
		t.Errorf("gap day bucket = %+v, want empty", points[3])
	}
}

func TestChartDataMonthLength(t *testing.T) {
	st := seedStore(t)
	if got := len(ChartData(st, "month", now)); got != 30 {
		t.Fatalf("month points = %d, want 30", got)
	}
	// Unknown period falls back to the weekly series.
	if got := len(ChartData(st, "fortnight", now)); got != 7 {
		t.Fatalf("fallback points = %d, want 7", got)
	}
}

func TestChartDataDayBucketsHourly(t *testing.T) {
	st := seedStore(t)
	points := ChartData(st, "day", now)
	if len(points) != 24 {
		t.Fatalf("points = %d, want 24", len(points))
	}
	// s1 started two hours ago.
	bucket := points[21]
	if bucket.Minutes != 60 {
		t.Fatalf("bucket two hours back = %+v, want 60 minutes", bucket)
	}
}

func TestProductivityInsights(t *testing.T) {
	st := seedStore(t)
	in := ProductivityInsights(st, now)

	if in.TotalSessions != 5 {
		t.Errorf("total sessions = %d, want 5 completed", in.TotalSessions)
	}
	if in.TotalFocusMinutes != 290 {
		t.Errorf("total minutes = %d, want 290", in.TotalFocusMinutes)
	}
	if in.TotalSeedsEarned != 4 {
		t.Errorf("seeds = %d, want 4", in.TotalSeedsEarned)
	}
	if in.AverageSessionMinutes != 58 {
		t.Errorf("average = %v, want 58", in.AverageSessionMinutes)
	}
	// 5 completed of 6 finished (one cancelled).
	if in.CompletionRate < 0.83 || in.CompletionRate > 0.84 {
		t.Errorf("completion rate = %v, want ~0.833", in.CompletionRate)
	}
	if in.CurrentStreakDays != 3 {
		t.Errorf("current streak = %d, want 3", in.CurrentStreakDays)
	}
	if in.LongestStreakDays != 3 {
		t.Errorf("longest streak = %d, want 3", in.LongestStreakDays)
	}
	if in.BestDayMinutes != 130 {
		t.Errorf("best day = %d, want 130", in.BestDayMinutes)
	}
}

func TestInsightsOnEmptyStore(t *testing.T) {
	st := store.New(fixedClock{t: now}, bus.New(zap.NewNop()), zap.NewNop(), "user-1")
	in := ProductivityInsights(st, now)
	if in.TotalSessions != 0 || in.AverageSessionMinutes != 0 || in.CurrentStreakDays != 0 {
		t.Fatalf("empty-store insights = %+v", in)
	}
}

func TestCurrentStreakSurvivesEmptyToday(t *testing.T) {
	st := store.New(fixedClock{t: now}, bus.New(zap.NewNop()), zap.NewNop(), "user-1")
	for i := 1; i <= 2; i++ {
		start := now.AddDate(0, 0, -i)
		end := start.Add(30 * time.Minute)
		st.Focus().PutSession(domain.FocusSession{
			Base:      domain.NewBase(start.Format("2006-01-02"), start),
			StartTime: start,
			EndTime:   &end,
			Duration:  30,
			Status:    domain.SessionCompleted,
		})
	}
	in := ProductivityInsights(st, now)
	if in.CurrentStreakDays != 2 {
		t.Fatalf("streak with empty today = %d, want 2", in.CurrentStreakDays)
	}
}
