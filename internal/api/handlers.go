package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/session"
	"github.com/grove-app/grove/internal/stats"
)

// ─── Session Handlers ───────────────────────────────────────────────────────

type startSessionRequest struct {
	TargetMinutes int      `json:"targetMinutes"`
	CategoryID    string   `json:"categoryId,omitempty"`
	TagIDs        []string `json:"tagIds,omitempty"`
	TaskID        string   `json:"taskId,omitempty"`
	Description   string   `json:"description,omitempty"`
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.ctrl.Start(session.StartOptions{
		TargetMinutes: req.TargetMinutes,
		CategoryID:    req.CategoryID,
		TagIDs:        req.TagIDs,
		TaskID:        req.TaskID,
		Description:   req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSessionPause(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Pause(); err != nil {
		writeDomainError(w, err)
		return
	}
	cur, _ := s.ctrl.Current()
	writeJSON(w, http.StatusOK, cur)
}

func (s *Server) handleSessionResume(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Resume(); err != nil {
		writeDomainError(w, err)
		return
	}
	cur, _ := s.ctrl.Current()
	writeJSON(w, http.StatusOK, cur)
}

func (s *Server) handleSessionComplete(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ctrl.Complete()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionCancel(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ctrl.Cancel()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// currentSessionResponse decorates the session record with the live
// countdown. Elapsed excludes pauses, including a still-open one.
type currentSessionResponse struct {
	domain.FocusSession
	ElapsedSeconds   int `json:"elapsedSeconds"`
	RemainingSeconds int `json:"remainingSeconds"`
}

func (s *Server) handleSessionCurrent(w http.ResponseWriter, r *http.Request) {
	cur, ok := s.ctrl.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no current session")
		return
	}
	now := s.clock.Now()
	writeJSON(w, http.StatusOK, currentSessionResponse{
		FocusSession:     cur,
		ElapsedSeconds:   int(cur.Elapsed(now) / time.Second),
		RemainingSeconds: int(cur.Remaining(now) / time.Second),
	})
}

func (s *Server) handleSessionsForDate(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stats.SessionsForDate(s.st, day))
}

// ─── Seed Handlers ──────────────────────────────────────────────────────────

type seedsRequest struct {
	Amount int    `json:"amount"`
	Source string `json:"source,omitempty"`
}

func (s *Server) handleSeedsBalance(w http.ResponseWriter, r *http.Request) {
	earned, spent := s.st.Rewards().Totals()
	writeJSON(w, http.StatusOK, map[string]int{
		"balance":     s.st.Rewards().Balance(),
		"totalEarned": earned,
		"totalSpent":  spent,
	})
}

func (s *Server) handleSeedsTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.st.Rewards().Transactions())
}

func (s *Server) handleSeedsEarn(w http.ResponseWriter, r *http.Request) {
	var req seedsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}
	tx, err := s.st.Rewards().EarnSeeds(req.Amount, source, nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleSeedsSpend(w http.ResponseWriter, r *http.Request) {
	var req seedsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}
	tx, err := s.st.Rewards().SpendSeeds(req.Amount, source, nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// ─── Task Handlers ──────────────────────────────────────────────────────────

type createTaskRequest struct {
	Title           string   `json:"title"`
	Date            string   `json:"date"`
	StartTime       string   `json:"startTime,omitempty"`
	DurationMinutes int      `json:"durationMinutes"`
	CategoryID      string   `json:"categoryId,omitempty"`
	TagIDs          []string `json:"tagIds,omitempty"`
}

func (s *Server) handleTasksList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("date") == "" {
		writeJSON(w, http.StatusOK, s.st.Tasks().All())
		return
	}
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.st.Tasks().TasksForDate(day))
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	task, err := s.st.Tasks().CreateTask(req.Title, date, req.StartTime, req.DurationMinutes, req.CategoryID, req.TagIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleTaskComplete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.st.Tasks().CompleteTask(id); err != nil {
		writeDomainError(w, err)
		return
	}
	task, _ := s.st.Tasks().Task(id)
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.st.Tasks().DeleteTask(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Category / Tag Handlers ────────────────────────────────────────────────

type createCategoryRequest struct {
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

func (s *Server) handleCategoriesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.st.Focus().Categories())
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := s.st.Focus().CreateCategory(req.Name, req.Icon, req.Color, req.IsDefault)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.st.Focus().DeleteCategory(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func (s *Server) handleTagsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.st.Focus().Tags())
}

func (s *Server) handleTagCreate(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tag, err := s.st.Focus().CreateTag(req.Name, req.Color)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleTagDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.st.Focus().DeleteTag(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Squad Handlers ─────────────────────────────────────────────────────────

type createSquadRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleSquadsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.st.Social().Squads())
}

func (s *Server) handleSquadCreate(w http.ResponseWriter, r *http.Request) {
	var req createSquadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	squad, err := s.st.Social().CreateSquad(req.Name, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, squad)
}

func (s *Server) handleSquadJoin(w http.ResponseWriter, r *http.Request) {
	if err := s.st.Social().JoinSquad(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	squad, _ := s.st.Social().Squad(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, squad)
}

func (s *Server) handleSquadLeave(w http.ResponseWriter, r *http.Request) {
	if err := s.st.Social().LeaveSquad(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createChallengeRequest struct {
	Name        string `json:"name"`
	GoalMinutes int    `json:"goalMinutes"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
}

func (s *Server) handleChallengeCreate(w http.ResponseWriter, r *http.Request) {
	var req createChallengeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		return
	}
	ch, err := s.st.Social().CreateChallenge(chi.URLParam(r, "id"), req.Name, req.GoalMinutes, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

// ─── App Handlers ───────────────────────────────────────────────────────────

type registerAppRequest struct {
	BundleIdentifier string `json:"bundleIdentifier"`
	Name             string `json:"name"`
	CostSeeds        int    `json:"costSeeds"`
	UnlockMinutes    int    `json:"unlockMinutes"`
}

func (s *Server) handleAppsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.st.Rewards().UnlockableApps())
}

func (s *Server) handleAppRegister(w http.ResponseWriter, r *http.Request) {
	var req registerAppRequest
	if !decodeBody(w, r, &req) {
		return
	}
	app, err := s.st.Rewards().AddUnlockableApp(req.BundleIdentifier, req.Name, req.CostSeeds, req.UnlockMinutes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) handleAppUnlock(w http.ResponseWriter, r *http.Request) {
	expiresAt, err := s.blocker.UnlockApp(chi.URLParam(r, "bundleID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expiresAt": expiresAt})
}

func (s *Server) handleBlockedLaunches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.blocker.BlockedLaunches())
}

// ─── Stats / Settings Handlers ──────────────────────────────────────────────

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.ProductivityInsights(s.st, s.clock.Now()))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}
	writeJSON(w, http.StatusOK, stats.ChartData(s.st, period, s.clock.Now()))
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.st.Settings().Current())
}

func (s *Server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if !decodeBody(w, r, &req) {
		return
	}
	next, err := s.st.Settings().Update(func(domain.Settings) domain.Settings { return req })
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// parseDay reads the date query param (YYYY-MM-DD), defaulting to today.
func (s *Server) parseDay(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return s.clock.Now(), true
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}
