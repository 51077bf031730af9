package store

import (
	"time"

	"github.com/grove-app/grove/internal/domain"
	"github.com/grove-app/grove/internal/store/entity"
)

// ─── Social Slice ───────────────────────────────────────────────────────────

// SocialState is the durable shape of squads and challenges.
type SocialState struct {
	Squads             entity.State[domain.Squad]     `json:"squads"`
	Challenges         entity.State[domain.Challenge] `json:"challenges"`
	UserSquadIDs       []string                       `json:"userSquads"`
	ActiveChallengeIDs []string                       `json:"activeChallenges"`
}

// SocialSlice owns squads and challenges. Per-member stats and challenge
// progress are updated reactively from session-completion events, never
// written directly by session logic.
type SocialSlice struct {
	st          *Store
	squads      *entity.Manager[domain.Squad]
	challenges  *entity.Manager[domain.Challenge]
	lastUpdated *time.Time
}

func newSocialSlice(st *Store) *SocialSlice {
	return &SocialSlice{
		st:         st,
		squads:     entity.NewManager[domain.Squad](),
		challenges: entity.NewManager[domain.Challenge](),
	}
}

func (s *SocialSlice) touch() {
	now := s.st.now()
	s.lastUpdated = &now
}

// ─── Squad Actions ──────────────────────────────────────────────────────────

// CreateSquad creates a squad owned by the local user, who joins immediately.
func (s *SocialSlice) CreateSquad(name, description string) (domain.Squad, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if name == "" {
		return domain.Squad{}, domain.NewValidation("squad_name", "squad name is required")
	}
	userID := s.st.userID
	squad := domain.Squad{
		Base:        domain.NewBase(s.st.newID(), s.st.now()),
		Name:        name,
		Description: description,
		OwnerID:     userID,
		MemberIDs:   []string{userID},
		MemberStats: map[string]domain.MemberStats{},
	}
	s.squads.Add(squad)
	s.touch()
	s.st.emit(domain.EventSquadJoined, domain.SquadEventPayload{SquadID: squad.ID, UserID: userID})
	return squad, nil
}

// JoinSquad adds the local user to a squad.
func (s *SocialSlice) JoinSquad(squadID string) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	squad, ok := s.squads.Get(squadID)
	if !ok {
		return &domain.NotFoundError{Kind: "squad", ID: squadID}
	}
	userID := s.st.userID
	if squad.HasMember(userID) {
		return domain.NewValidation("already_member", "user %q is already in squad %q", userID, squadID)
	}
	s.squads.Update(squadID, s.st.now(), func(sq domain.Squad) domain.Squad {
		sq.MemberIDs = append(sq.MemberIDs, userID)
		return sq
	})
	s.touch()
	s.st.emit(domain.EventSquadJoined, domain.SquadEventPayload{SquadID: squadID, UserID: userID})
	return nil
}

// LeaveSquad removes the local user from a squad.
func (s *SocialSlice) LeaveSquad(squadID string) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	squad, ok := s.squads.Get(squadID)
	if !ok {
		return &domain.NotFoundError{Kind: "squad", ID: squadID}
	}
	userID := s.st.userID
	if !squad.HasMember(userID) {
		return domain.NewValidation("not_member", "user %q is not in squad %q", userID, squadID)
	}
	s.squads.Update(squadID, s.st.now(), func(sq domain.Squad) domain.Squad {
		members := make([]string, 0, len(sq.MemberIDs)-1)
		for _, id := range sq.MemberIDs {
			if id != userID {
				members = append(members, id)
			}
		}
		sq.MemberIDs = members
		delete(sq.MemberStats, userID)
		return sq
	})
	s.touch()
	s.st.emit(domain.EventSquadLeft, domain.SquadEventPayload{SquadID: squadID, UserID: userID})
	return nil
}

// Squad returns a squad by id.
func (s *SocialSlice) Squad(id string) (domain.Squad, bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.squads.Get(id)
}

// Squads returns all squads.
func (s *SocialSlice) Squads() []domain.Squad {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.squads.All()
}

// UserSquads returns the squads the local user belongs to.
func (s *SocialSlice) UserSquads() []domain.Squad {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	userID := s.st.userID
	return s.squads.Query(func(sq domain.Squad) bool { return sq.HasMember(userID) })
}

// ─── Challenge Actions ──────────────────────────────────────────────────────

// CreateChallenge starts a focus challenge within a squad.
func (s *SocialSlice) CreateChallenge(squadID, name string, goalMinutes int, start, end time.Time) (domain.Challenge, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if !s.squads.Has(squadID) {
		return domain.Challenge{}, &domain.NotFoundError{Kind: "squad", ID: squadID}
	}
	if goalMinutes <= 0 {
		return domain.Challenge{}, domain.NewValidation("challenge_goal", "goal must be positive, got %d", goalMinutes)
	}
	if !end.After(start) {
		return domain.Challenge{}, domain.NewValidation("challenge_window", "end date must be after start date")
	}
	ch := domain.Challenge{
		Base:        domain.NewBase(s.st.newID(), s.st.now()),
		SquadID:     squadID,
		Name:        name,
		GoalMinutes: goalMinutes,
		Progress:    map[string]int{},
		StartDate:   start,
		EndDate:     end,
		Active:      true,
	}
	s.challenges.Add(ch)
	s.touch()
	s.st.emit(domain.EventChallengeCreated, ch)
	return ch, nil
}

// Challenges returns all challenges.
func (s *SocialSlice) Challenges() []domain.Challenge {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.challenges.All()
}

// ActiveChallenges returns challenges currently running for the local user's
// squads.
func (s *SocialSlice) ActiveChallenges() []domain.Challenge {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.activeChallenges(s.st.now())
}

func (s *SocialSlice) activeChallenges(now time.Time) []domain.Challenge {
	userID := s.st.userID
	return s.challenges.Query(func(ch domain.Challenge) bool {
		if !ch.Active || now.Before(ch.StartDate) || now.After(ch.EndDate) {
			return false
		}
		sq, ok := s.squads.Get(ch.SquadID)
		return ok && sq.HasMember(userID)
	})
}

// ─── Reactions / Snapshot ───────────────────────────────────────────────────

// applySessionCompleted updates member stats for every squad the user belongs
// to and accrues progress on active challenges. Lock already held.
func (s *SocialSlice) applySessionCompleted(p domain.SessionCompletedPayload) {
	now := s.st.now()
	week := domain.WeekStart(now)

	for _, sq := range s.squads.All() {
		if !sq.HasMember(p.UserID) {
			continue
		}
		s.squads.Update(sq.ID, now, func(sq domain.Squad) domain.Squad {
			if sq.MemberStats == nil {
				sq.MemberStats = map[string]domain.MemberStats{}
			}
			stats := sq.MemberStats[p.UserID]
			if !stats.WeekStart.Equal(week) {
				stats.WeeklyFocusMinutes = 0
				stats.WeeklySessions = 0
				stats.WeekStart = week
			}
			stats.WeeklyFocusMinutes += p.DurationMinutes
			stats.WeeklySessions++
			stats.TotalSeedsEarned += p.SeedsEarned
			sq.MemberStats[p.UserID] = stats
			return sq
		})
	}

	for _, ch := range s.activeChallenges(now) {
		s.challenges.Update(ch.ID, now, func(ch domain.Challenge) domain.Challenge {
			if ch.Progress == nil {
				ch.Progress = map[string]int{}
			}
			ch.Progress[p.UserID] += p.DurationMinutes
			return ch
		})
		s.st.emit(domain.EventChallengeProgress, domain.SquadEventPayload{SquadID: ch.SquadID, UserID: p.UserID})
	}
	s.touch()
}

func (s *SocialSlice) state() SocialState {
	userID := s.st.userID
	st := SocialState{
		Squads:     s.squads.State(),
		Challenges: s.challenges.State(),
	}
	for _, sq := range s.squads.All() {
		if sq.HasMember(userID) {
			st.UserSquadIDs = append(st.UserSquadIDs, sq.ID)
		}
	}
	for _, ch := range s.activeChallenges(s.st.now()) {
		st.ActiveChallengeIDs = append(st.ActiveChallengeIDs, ch.ID)
	}
	st.Squads.LastUpdated = s.lastUpdated
	st.Challenges.LastUpdated = s.lastUpdated
	return st
}

func (s *SocialSlice) load(st SocialState) {
	s.squads = entity.FromState(st.Squads)
	s.challenges = entity.FromState(st.Challenges)
	s.lastUpdated = st.Squads.LastUpdated
}
