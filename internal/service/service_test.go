package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/cinema-ticketing/internal/apperr"
	"github.com/iliyamo/cinema-ticketing/internal/clock"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/service"
	"github.com/iliyamo/cinema-ticketing/internal/testutil"
)

// recordingPublisher keeps every event it receives.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.TicketEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.TicketEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []string{}
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type ServiceTestSuite struct {
	suite.Suite

	ctx    context.Context
	db     *sql.DB
	now    time.Time
	events *recordingPublisher

	booking *service.BookingService
	catalog *service.CatalogService
	tickets *service.TicketService
	users   *service.UserService
	auth    *service.AuthService

	movieRepo   *repository.MovieRepo
	sessionRepo *repository.SessionRepo
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.now = time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)
	s.events = &recordingPublisher{}
	s.build(clock.Fixed{At: s.now})
}

func (s *ServiceTestSuite) build(clk clock.Clock) {
	log := zaptest.NewLogger(s.T())
	tx := repository.NewTxManager(s.db)
	s.movieRepo = repository.NewMovieRepo(s.db)
	s.sessionRepo = repository.NewSessionRepo(s.db)
	ticketRepo := repository.NewTicketRepo(s.db)

	s.booking = service.NewBookingService(s.sessionRepo, s.movieRepo, tx, clk, time.UTC, log)
	s.catalog = service.NewCatalogService(s.movieRepo, s.sessionRepo, s.booking, tx, log)
	s.tickets = service.NewTicketService(ticketRepo, s.movieRepo, s.booking, s.events, clk, log)
	s.users = service.NewUserService(repository.NewUserRepo(s.db), s.tickets, s.catalog, 4, log)
	s.auth = service.NewAuthService(s.users, repository.NewTokenRepo(s.db), tx, service.TokenSettings{
		Secret:         "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
	}, log)
}

func (s *ServiceTestSuite) customer(email string, age int) service.Principal {
	u, err := s.users.Register(s.ctx, service.NewUserRequest{
		Username: "viewer",
		Email:    email,
		Password: "secret-pass",
		Age:      age,
	})
	s.Require().NoError(err)
	return service.Principal{ID: u.ID, Email: u.Email, Age: u.Age, Role: u.Role}
}

func (s *ServiceTestSuite) countRows(table string) int {
	var n int
	s.Require().NoError(s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n))
	return n
}

func session(date string, slot model.TimeSlot, room int) service.NewSession {
	return service.NewSession{Date: date, TimeSlot: slot, RoomNumber: room}
}

func (s *ServiceTestSuite) requireCode(err error, want *apperr.Error) {
	s.T().Helper()
	s.Require().Error(err)
	e, ok := apperr.As(err)
	s.Require().True(ok, "expected domain error, got %v", err)
	s.Equal(want.Code, e.Code, "got %s", e.Name)
}

func (s *ServiceTestSuite) TestInceptionScenario() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name:           "Inception",
		AgeRestriction: 13,
		Sessions:       []service.NewSession{session("2024-01-01", model.Slot10to12, 1)},
	})
	s.Require().NoError(err)
	s.Equal("Inception", m.Name)
	s.True(m.IsActive)
	s.Require().Len(m.Sessions, 1)
	s.Equal("2024-01-01", m.Sessions[0].Date)
	s.Equal(model.Slot10to12, m.Sessions[0].TimeSlot)
	s.Equal(1, m.Sessions[0].RoomNumber)

	user := s.customer("twenty@example.com", 20)
	t, err := s.tickets.Checkout(s.ctx, user, m.Sessions[0].ID)
	s.Require().NoError(err)
	s.False(t.Used)
	s.Equal(m.ID, t.MovieID)

	watched, err := s.tickets.Watch(s.ctx, user, t.ID)
	s.Require().NoError(err)
	s.True(watched.Used)

	_, err = s.tickets.Watch(s.ctx, user, t.ID)
	s.requireCode(err, apperr.TicketAlreadyUsed)
	s.Equal(11, apperr.TicketAlreadyUsed.Code)

	s.Equal([]string{queue.EventTicketPurchased, queue.EventTicketWatched}, s.events.types())

	history, err := s.users.GetWatchHistory(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(m.ID, history[0].ID)
}

func (s *ServiceTestSuite) TestBulkCreateConflictPersistsNothing() {
	_, err := s.catalog.BulkCreateMovies(s.ctx, []service.NewMovie{
		{Name: "First", AgeRestriction: 0, Sessions: []service.NewSession{session("2024-02-01", model.Slot12to14, 2)}},
		{Name: "Second", AgeRestriction: 0, Sessions: []service.NewSession{session("2024-02-01", model.Slot12to14, 2)}},
	})
	s.requireCode(err, apperr.SessionAlreadyExists)
	s.Equal(7, apperr.SessionAlreadyExists.Code)
	s.Zero(s.countRows("movies"))
	s.Zero(s.countRows("sessions"))
}

func (s *ServiceTestSuite) TestCreateMovieIsAtomic() {
	_, err := s.booking.AddSession(s.ctx, s.seedMovie("Existing", 0).ID, session("2024-03-01", model.Slot14to16, 4))
	s.Require().NoError(err)

	_, err = s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name: "Clash",
		Sessions: []service.NewSession{
			session("2024-03-01", model.Slot16to18, 4),
			session("2024-03-01", model.Slot14to16, 4),
		},
	})
	s.requireCode(err, apperr.SessionAlreadyExists)
	s.Equal(1, s.countRows("movies"))
	s.Equal(1, s.countRows("sessions"))
}

func (s *ServiceTestSuite) seedMovie(name string, age int) *model.Movie {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{Name: name, AgeRestriction: age})
	s.Require().NoError(err)
	return m
}

func (s *ServiceTestSuite) TestSlotUniquenessAcrossMovies() {
	a := s.seedMovie("A", 0)
	b := s.seedMovie("B", 0)

	_, err := s.booking.AddSession(s.ctx, a.ID, session("2024-04-01", model.Slot20to22, 1))
	s.Require().NoError(err)

	_, err = s.booking.AddSession(s.ctx, b.ID, session("2024-04-01", model.Slot20to22, 1))
	s.requireCode(err, apperr.SessionAlreadyExists)

	err = s.booking.CheckRoomAvailability(s.ctx, "2024-04-01", model.Slot20to22, 1)
	s.requireCode(err, apperr.SessionAlreadyExists)
	s.NoError(s.booking.CheckRoomAvailability(s.ctx, "2024-04-01", model.Slot20to22, 2))

	_, err = s.booking.AddSession(s.ctx, "missing", session("2024-04-01", model.Slot10to12, 1))
	s.requireCode(err, apperr.MovieNotFound)
}

func (s *ServiceTestSuite) TestConcurrentBookingsOfOneSlot() {
	movies := make([]*model.Movie, 8)
	for i := range movies {
		movies[i] = s.seedMovie("M", 0)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, m := range movies {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.booking.AddSession(s.ctx, id, session("2024-05-05", model.Slot18to20, 3))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperr.IsConflict(err) {
				conflicts++
			}
		}(m.ID)
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(len(movies)-1, conflicts)
	s.Equal(1, s.countRows("sessions"))
}

func (s *ServiceTestSuite) TestAddSessionValidatesInput() {
	m := s.seedMovie("V", 0)
	_, err := s.booking.AddSession(s.ctx, m.ID, session("2024-13-01", model.Slot10to12, 1))
	s.requireCode(err, apperr.ValidationFailed)
	_, err = s.booking.AddSession(s.ctx, m.ID, session("2024-01-01", "09:00-11:00", 1))
	s.requireCode(err, apperr.ValidationFailed)
	_, err = s.booking.AddSession(s.ctx, m.ID, session("2024-01-01", model.Slot10to12, 0))
	s.requireCode(err, apperr.ValidationFailed)
}

func (s *ServiceTestSuite) TestAgeGateBoundary() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name:           "Rated",
		AgeRestriction: 16,
		Sessions:       []service.NewSession{session("2024-01-02", model.Slot10to12, 1)},
	})
	s.Require().NoError(err)
	sessID := m.Sessions[0].ID

	_, err = s.tickets.Checkout(s.ctx, s.customer("sixteen@example.com", 16), sessID)
	s.requireCode(err, apperr.UserNotOldEnough)

	t, err := s.tickets.Checkout(s.ctx, s.customer("seventeen@example.com", 17), sessID)
	s.Require().NoError(err)
	s.False(t.Used)
}

func (s *ServiceTestSuite) TestLateNightSlot() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name: "Midnight",
		Sessions: []service.NewSession{
			session("2024-09-13", model.TimeSlot("22:00-00:00"), 7),
			session("2023-12-31", model.Slot22to00, 7),
		},
	})
	s.Require().NoError(err)
	s.Require().Len(m.Sessions, 2)
	s.Equal(model.Slot22to00, m.Sessions[1].TimeSlot)

	passed, err := s.booking.HasSessionPassed("2024-09-13", model.Slot22to00, time.Date(2024, 9, 13, 21, 59, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.False(passed)
	passed, err = s.booking.HasSessionPassed("2024-09-13", model.Slot22to00, time.Date(2024, 9, 13, 22, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.True(passed)

	// tonight's last show is still ahead of the noon clock
	_, err = s.tickets.Checkout(s.ctx, s.customer("night@example.com", 30), m.Sessions[0].ID)
	s.NoError(err)
}

func (s *ServiceTestSuite) TestCheckoutRules() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name: "Rules",
		Sessions: []service.NewSession{
			session("2023-12-31", model.Slot10to12, 1),
			session("2023-12-31", model.Slot14to16, 1),
			session("2023-12-30", model.Slot22to00, 1),
		},
	})
	s.Require().NoError(err)
	user := s.customer("rules@example.com", 30)

	_, err = s.tickets.Checkout(s.ctx, user, "missing")
	s.requireCode(err, apperr.SessionNotFound)

	// today 10:00 started before the fixed noon clock; yesterday is past
	_, err = s.tickets.Checkout(s.ctx, user, m.Sessions[1].ID)
	s.requireCode(err, apperr.SessionAlreadyPassed)
	_, err = s.tickets.Checkout(s.ctx, user, m.Sessions[0].ID)
	s.requireCode(err, apperr.SessionAlreadyPassed)

	var later string
	for _, sess := range m.Sessions {
		if sess.TimeSlot == model.Slot14to16 {
			later = sess.ID
		}
	}
	_, err = s.tickets.Checkout(s.ctx, user, later)
	s.Require().NoError(err)

	_, err = s.catalog.DeleteMovie(s.ctx, m.ID)
	s.Require().NoError(err)
	_, err = s.tickets.Checkout(s.ctx, user, later)
	s.requireCode(err, apperr.MovieIsNotActive)
}

func (s *ServiceTestSuite) TestWatchRules() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name:     "Watch",
		Sessions: []service.NewSession{session("2024-01-01", model.Slot10to12, 1)},
	})
	s.Require().NoError(err)
	owner := s.customer("owner@example.com", 30)
	other := s.customer("other@example.com", 30)

	t, err := s.tickets.Checkout(s.ctx, owner, m.Sessions[0].ID)
	s.Require().NoError(err)

	_, err = s.tickets.Watch(s.ctx, owner, "missing")
	s.requireCode(err, apperr.TicketNotFound)

	_, err = s.tickets.Watch(s.ctx, other, t.ID)
	s.requireCode(err, apperr.TicketDoesNotBelongToUser)

	_, err = s.tickets.GetTicket(s.ctx, other, t.ID)
	s.requireCode(err, apperr.TicketDoesNotBelongToUser)
	got, err := s.tickets.GetTicket(s.ctx, service.Principal{ID: "boss", Role: model.RoleManager}, t.ID)
	s.Require().NoError(err)
	s.Equal(t.ID, got.ID)

	// the session starts before the clock now reads
	s.build(clock.Fixed{At: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)})
	_, err = s.tickets.Watch(s.ctx, owner, t.ID)
	s.requireCode(err, apperr.SessionAlreadyPassed)

	used, err := s.tickets.GetUsedTickets(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Empty(used)
}

func (s *ServiceTestSuite) TestConcurrentWatchSucceedsOnce() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name:     "Race",
		Sessions: []service.NewSession{session("2024-01-01", model.Slot10to12, 1)},
	})
	s.Require().NoError(err)
	owner := s.customer("race@example.com", 30)
	t, err := s.tickets.Checkout(s.ctx, owner, m.Sessions[0].ID)
	s.Require().NoError(err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		used int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.tickets.Watch(s.ctx, owner, t.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperr.IsConflict(err):
				used++
			}
		}()
	}
	wg.Wait()
	s.Equal(1, wins)
	s.Equal(5, used)
}

func (s *ServiceTestSuite) TestSoftAndHardDelete() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name:     "Keep",
		Sessions: []service.NewSession{session("2024-06-01", model.Slot10to12, 1), session("2024-06-01", model.Slot12to14, 1)},
	})
	s.Require().NoError(err)

	deleted, err := s.catalog.DeleteMovie(s.ctx, m.ID)
	s.Require().NoError(err)
	s.False(deleted.IsActive)
	s.Len(deleted.Sessions, 2)
	s.Equal(1, s.countRows("movies"))
	s.Equal(2, s.countRows("sessions"))

	res, err := s.booking.DeleteSession(s.ctx, m.Sessions[0].ID)
	s.Require().NoError(err)
	s.True(res.Deleted)
	s.Equal(1, s.countRows("sessions"))

	_, err = s.booking.DeleteSession(s.ctx, m.Sessions[0].ID)
	s.requireCode(err, apperr.SessionNotFound)

	res, err = s.catalog.DeleteMovieSessions(s.ctx, m.ID)
	s.Require().NoError(err)
	s.True(res.Deleted)
	_, err = s.catalog.DeleteMovieSessions(s.ctx, m.ID)
	s.requireCode(err, apperr.MovieHasNoSessionsToDelete)
	_, err = s.catalog.DeleteMovieSessions(s.ctx, "missing")
	s.requireCode(err, apperr.MovieNotFound)

	_, err = s.catalog.DeleteMovie(s.ctx, "missing")
	s.requireCode(err, apperr.MovieNotFound)
}

func (s *ServiceTestSuite) TestBulkDeleteSkipsUnknownIDs() {
	a, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name:     "A",
		Sessions: []service.NewSession{session("2024-07-01", model.Slot10to12, 1)},
	})
	s.Require().NoError(err)
	b := s.seedMovie("B", 0)

	out, err := s.catalog.BulkDeleteMovies(s.ctx, []string{a.ID, "missing", b.ID, a.ID})
	s.Require().NoError(err)
	s.Require().Len(out, 2)
	for _, m := range out {
		s.False(m.IsActive)
		s.Empty(m.Sessions)
	}
	s.Equal(2, s.countRows("movies"))
	s.Zero(s.countRows("sessions"))
}

func (s *ServiceTestSuite) TestUpdateMovie() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name:     "Old",
		Sessions: []service.NewSession{session("2024-08-01", model.Slot10to12, 1)},
	})
	s.Require().NoError(err)
	other, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name:     "Other",
		Sessions: []service.NewSession{session("2024-08-01", model.Slot12to14, 1)},
	})
	s.Require().NoError(err)

	name, age := "New", 12
	room := 5
	updated, err := s.catalog.UpdateMovie(s.ctx, m.ID, service.MovieUpdate{
		Name:           &name,
		AgeRestriction: &age,
		Sessions: []service.SessionUpdate{{
			ID:            m.Sessions[0].ID,
			SessionChange: service.SessionChange{RoomNumber: &room},
		}},
	})
	s.Require().NoError(err)
	s.Equal("New", updated.Name)
	s.Equal(12, updated.AgeRestriction)
	s.Require().Len(updated.Sessions, 1)
	s.Equal(5, updated.Sessions[0].RoomNumber)

	// moving into the other movie's slot is rejected and nothing changes
	slot, sameRoom := model.Slot12to14, 1
	renamed := "Renamed"
	_, err = s.catalog.UpdateMovie(s.ctx, m.ID, service.MovieUpdate{
		Name: &renamed,
		Sessions: []service.SessionUpdate{{
			ID:            m.Sessions[0].ID,
			SessionChange: service.SessionChange{TimeSlot: &slot, RoomNumber: &sameRoom},
		}},
	})
	s.requireCode(err, apperr.SessionAlreadyExists)
	got, err := s.catalog.GetMovie(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal("New", got.Name)

	_, err = s.catalog.UpdateMovie(s.ctx, m.ID, service.MovieUpdate{
		Sessions: []service.SessionUpdate{{ID: other.Sessions[0].ID, SessionChange: service.SessionChange{RoomNumber: &room}}},
	})
	s.requireCode(err, apperr.SessionNotFound)

	_, err = s.catalog.UpdateMovie(s.ctx, "missing", service.MovieUpdate{Name: &name})
	s.requireCode(err, apperr.MovieNotFound)
}

func (s *ServiceTestSuite) TestUpdateSessionIfChangedSkipsNoop() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name:     "Same",
		Sessions: []service.NewSession{session("2024-09-01", model.Slot10to12, 1)},
	})
	s.Require().NoError(err)
	sess := m.Sessions[0]

	date, room := sess.Date, sess.RoomNumber
	changed, err := s.booking.UpdateSessionIfChanged(s.ctx, &sess, service.SessionChange{Date: &date, RoomNumber: &room})
	s.Require().NoError(err)
	s.False(changed)

	newDate := "2024-09-02"
	changed, err = s.booking.UpdateSessionIfChanged(s.ctx, &sess, service.SessionChange{Date: &newDate})
	s.Require().NoError(err)
	s.True(changed)
	s.Equal(newDate, sess.Date)
}

func (s *ServiceTestSuite) TestListActiveMovies() {
	_, err := s.catalog.ListActiveMovies(s.ctx, service.MovieFilter{})
	s.requireCode(err, apperr.ThereAreNoMovies)

	s.seedMovie("Beta", 12)
	s.seedMovie("Alpha", 18)
	gone := s.seedMovie("Gamma", 0)
	_, err = s.catalog.DeleteMovie(s.ctx, gone.ID)
	s.Require().NoError(err)

	list, err := s.catalog.ListActiveMovies(s.ctx, service.MovieFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Alpha", list[0].Name)
	s.NotNil(list[0].Sessions)

	list, err = s.catalog.ListActiveMovies(s.ctx, service.MovieFilter{SortBy: "ageRestriction", SortOrder: "desc"})
	s.Require().NoError(err)
	s.Equal("Alpha", list[0].Name)

	threshold := 18
	list, err = s.catalog.ListActiveMovies(s.ctx, service.MovieFilter{AgeRestriction: &threshold, AgeCondition: "lesser"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Beta", list[0].Name)

	_, err = s.catalog.ListActiveMovies(s.ctx, service.MovieFilter{SortBy: "password"})
	s.requireCode(err, apperr.ValidationFailed)
	_, err = s.catalog.ListActiveMovies(s.ctx, service.MovieFilter{SortOrder: "sideways"})
	s.requireCode(err, apperr.ValidationFailed)
}

func (s *ServiceTestSuite) TestUsersAndAuth() {
	res, err := s.auth.Register(s.ctx, service.NewUserRequest{
		Username:      "mallory",
		Email:         "Mallory@Example.com",
		Password:      "secret-pass",
		Age:           25,
		RequestedRole: model.RoleManager,
	})
	s.Require().NoError(err)
	s.Equal(model.RoleCustomer, res.User.Role)
	s.Equal("mallory@example.com", res.User.Email)
	s.NotEmpty(res.Access.Token)

	_, err = s.users.Register(s.ctx, service.NewUserRequest{Username: "dup", Email: "mallory@example.com", Password: "secret-pass", Age: 1})
	s.requireCode(err, apperr.UserAlreadyExists)

	_, err = s.users.Register(s.ctx, service.NewUserRequest{Username: "bad", Email: "not-an-email", Password: "secret-pass"})
	s.requireCode(err, apperr.ValidationFailed)

	_, err = s.auth.Login(s.ctx, "mallory@example.com", "wrong")
	s.requireCode(err, apperr.UserNotAuthorized)
	_, err = s.auth.Login(s.ctx, "nobody@example.com", "secret-pass")
	s.requireCode(err, apperr.UserNotAuthorized)

	logged, err := s.auth.Login(s.ctx, " MALLORY@example.com", "secret-pass")
	s.Require().NoError(err)

	rotated, err := s.auth.Refresh(s.ctx, logged.Refresh.Raw)
	s.Require().NoError(err)
	s.NotEqual(logged.Refresh.Raw, rotated.Refresh.Raw)

	_, err = s.auth.Refresh(s.ctx, logged.Refresh.Raw)
	s.requireCode(err, apperr.UserNotAuthorized)

	s.Require().NoError(s.auth.Logout(s.ctx, rotated.Refresh.Raw))
	_, err = s.auth.Refresh(s.ctx, rotated.Refresh.Raw)
	s.requireCode(err, apperr.UserNotAuthorized)

	_, err = s.users.FindByID(s.ctx, "missing")
	s.requireCode(err, apperr.UserNotFound)
}

func (s *ServiceTestSuite) TestEnsureInitialManagerIsIdempotent() {
	s.Require().NoError(s.auth.EnsureInitialManager(s.ctx, "", ""))
	s.Require().NoError(s.auth.EnsureInitialManager(s.ctx, "root@example.com", "manager-pass"))
	s.Require().NoError(s.auth.EnsureInitialManager(s.ctx, "root@example.com", "manager-pass"))

	managers, err := s.users.FindByRole(s.ctx, model.RoleManager)
	s.Require().NoError(err)
	s.Require().Len(managers, 1)
	s.Equal("root@example.com", managers[0].Email)
}

func (s *ServiceTestSuite) TestWatchHistoryIsDistinct() {
	m, err := s.catalog.CreateMovie(s.ctx, service.NewMovie{
		Name: "Twice",
		Sessions: []service.NewSession{
			session("2024-01-01", model.Slot10to12, 1),
			session("2024-01-01", model.Slot12to14, 1),
		},
	})
	s.Require().NoError(err)
	user := s.customer("twice@example.com", 30)
	for _, sess := range m.Sessions {
		t, err := s.tickets.Checkout(s.ctx, user, sess.ID)
		s.Require().NoError(err)
		_, err = s.tickets.Watch(s.ctx, user, t.ID)
		s.Require().NoError(err)
	}

	history, err := s.users.GetWatchHistory(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Len(history, 1)

	empty, err := s.users.GetWatchHistory(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(empty)
}
