// Package persistencetest provides an in-memory persistence.Store for tests.
package persistencetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/db"
	"github.com/jonathan/cojournalist/internal/types"
)

// Store is a goroutine-safe in-memory store. Set the Err fields to make the
// matching operation fail.
type Store struct {
	mu    sync.Mutex
	users map[string]*db.User
	jobs  map[uuid.UUID]*db.ScheduledScraper
	clock time.Time

	GetUserErr error
	EnsureErr  error
	CreateErr  error
	ListErr    error
	DeleteErr  error

	// Counters of store calls.
	GetUserCalls int
	EnsureCalls  int
	InsertCalls  int
	CreateCalls  int
	ListCalls    int
	DeleteCalls  int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]*db.User),
		jobs:  make(map[uuid.UUID]*db.ScheduledScraper),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing creation times.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// AddUser inserts a user directly and returns it.
func (s *Store) AddUser(externalID, email string) *db.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &db.User{ID: uuid.New(), ExternalIdentityID: externalID, Email: email, CreatedAt: s.tick()}
	s.users[externalID] = u
	return u
}

// Users returns the number of user rows.
func (s *Store) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Jobs returns a copy of every job row.
func (s *Store) Jobs() []db.ScheduledScraper {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.ScheduledScraper, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out
}

func (s *Store) GetUserByExternalID(ctx context.Context, externalID string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetUserCalls++
	if s.GetUserErr != nil {
		return nil, s.GetUserErr
	}
	u, ok := s.users[externalID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) EnsureUser(ctx context.Context, externalID, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EnsureCalls++
	if s.EnsureErr != nil {
		return nil, s.EnsureErr
	}
	u, ok := s.users[externalID]
	if !ok {
		s.InsertCalls++
		u = &db.User{ID: uuid.New(), ExternalIdentityID: externalID, Email: email, CreatedAt: s.tick()}
		s.users[externalID] = u
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CreateScheduledScraper(ctx context.Context, in *types.NewScheduledJob) (*db.ScheduledScraper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	row := &db.ScheduledScraper{
		ID:             uuid.New(),
		UserID:         in.UserID,
		Name:           in.Name,
		Criteria:       in.Criteria,
		Regularity:     in.Regularity,
		DayNumber:      in.DayNumber,
		TimeUTC:        in.TimeUTC,
		Monitoring:     in.Monitoring,
		ScraperService: in.ScraperService,
		PromptSummary:  in.PromptSummary,
		CreatedAt:      s.tick(),
	}
	s.jobs[row.ID] = row
	cp := *row
	return &cp, nil
}

func (s *Store) ListScheduledScrapers(ctx context.Context, userID uuid.UUID) ([]db.ScheduledScraper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []db.ScheduledScraper
	for _, j := range s.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteScheduledScraper(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteCalls++
	if s.DeleteErr != nil {
		return false, s.DeleteErr
	}
	j, ok := s.jobs[id]
	if !ok || j.UserID != userID {
		return false, nil
	}
	delete(s.jobs, id)
	return true, nil
}

// Calls returns the total number of store calls made so far.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.GetUserCalls + s.EnsureCalls + s.CreateCalls + s.ListCalls + s.DeleteCalls
}
