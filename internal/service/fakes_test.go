package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/events"
	"github.com/serviceflow/helpdesk-service/internal/repository"
	"github.com/serviceflow/helpdesk-service/internal/storage"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// fakeTicketRepo is an in-memory TicketRepository with the same CAS and
// cascade semantics as the Postgres implementation.
type fakeTicketRepo struct {
	tickets  map[string]domain.Ticket
	worklogs *fakeWorklogRepo
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if !filter.Scope.All && ticket.CompanyID != filter.Scope.CompanyID {
			continue
		}
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(strings.ToLower(ticket.Title), strings.ToLower(*filter.SearchTerm)) {
			continue
		}
		out = append(out, ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket, expectedUpdatedAt time.Time) error {
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !stored.UpdatedAt.Equal(expectedUpdatedAt) {
		return repository.ErrStale
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) DeleteCascade(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	if r.worklogs != nil {
		for _, worklog := range r.worklogs.worklogs {
			if worklog.TicketID == id && worklog.EndedAt == nil {
				return repository.ErrActiveWorklog
			}
		}
	}
	delete(r.tickets, id)
	return nil
}

// staleOnceRepo fails the first Update with ErrStale to simulate losing a
// compare-and-swap race.
type staleOnceRepo struct {
	*fakeTicketRepo
	failed bool
}

func (r *staleOnceRepo) Update(ctx context.Context, ticket *domain.Ticket, expectedUpdatedAt time.Time) error {
	if !r.failed {
		r.failed = true
		return repository.ErrStale
	}
	return r.fakeTicketRepo.Update(ctx, ticket, expectedUpdatedAt)
}

// fakeWorklogRepo enforces the one-open-session-per-user rule in memory.
type fakeWorklogRepo struct {
	worklogs []domain.Worklog
}

func (r *fakeWorklogRepo) Start(_ context.Context, ticketID, userID string) (*domain.Worklog, error) {
	for _, worklog := range r.worklogs {
		if worklog.UserID == userID && worklog.EndedAt == nil {
			return nil, repository.ErrActiveSession
		}
	}
	worklog := domain.Worklog{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		UserID:    userID,
		StartedAt: time.Now(),
	}
	r.worklogs = append(r.worklogs, worklog)
	return &worklog, nil
}

func (r *fakeWorklogRepo) StopOpen(_ context.Context, ticketID, userID string) (*domain.Worklog, error) {
	for i := range r.worklogs {
		worklog := &r.worklogs[i]
		if worklog.TicketID == ticketID && worklog.UserID == userID && worklog.EndedAt == nil {
			now := time.Now()
			worklog.EndedAt = &now
			copied := *worklog
			return &copied, nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (r *fakeWorklogRepo) ListByTicket(_ context.Context, ticketID string, userID *string) ([]domain.Worklog, error) {
	var out []domain.Worklog
	for _, worklog := range r.worklogs {
		if worklog.TicketID != ticketID {
			continue
		}
		if userID != nil && worklog.UserID != *userID {
			continue
		}
		out = append(out, worklog)
	}
	return out, nil
}

// fakeUserRepo mirrors the unique-email constraint with a synthesized
// Postgres error code so the service's 23505 mapping is exercised.
type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) add(user *domain.User) {
	r.users[user.ID] = *user
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.users {
		if !filter.Scope.All && user.CompanyID != filter.Scope.CompanyID {
			continue
		}
		if filter.SelfID != nil && user.ID != *filter.SelfID {
			continue
		}
		if filter.Active != nil && user.IsActive != *filter.Active {
			continue
		}
		if filter.RoleFilter != nil && user.Role != *filter.RoleFilter {
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

func (r *fakeUserRepo) CountInactive(_ context.Context, scope repository.CompanyScope) (int, error) {
	count := 0
	for _, user := range r.users {
		if !scope.All && user.CompanyID != scope.CompanyID {
			continue
		}
		if !user.IsActive {
			count++
		}
	}
	return count, nil
}

// fakeStatsRepo returns canned aggregates.
type fakeStatsRepo struct {
	byStatus   map[domain.TicketStatus]int
	byPriority map[domain.TicketPriority]int
	trend      []repository.TrendPoint
	perf       []repository.TechPerformance
	closed     int
	withinSLA  int
	urgent     int
}

func (r *fakeStatsRepo) CountByStatus(context.Context, repository.CompanyScope) (map[domain.TicketStatus]int, error) {
	if r.byStatus == nil {
		return map[domain.TicketStatus]int{}, nil
	}
	return r.byStatus, nil
}

func (r *fakeStatsRepo) CountByPriority(context.Context, repository.CompanyScope) (map[domain.TicketPriority]int, error) {
	if r.byPriority == nil {
		return map[domain.TicketPriority]int{}, nil
	}
	return r.byPriority, nil
}

func (r *fakeStatsRepo) ResolutionTrend(context.Context, repository.CompanyScope, time.Time, string) ([]repository.TrendPoint, error) {
	return r.trend, nil
}

func (r *fakeStatsRepo) TechPerformance(context.Context, repository.CompanyScope, time.Time) ([]repository.TechPerformance, error) {
	return r.perf, nil
}

func (r *fakeStatsRepo) SLACounts(context.Context, repository.CompanyScope, time.Duration) (int, int, error) {
	return r.closed, r.withinSLA, nil
}

func (r *fakeStatsRepo) CountUrgentUnassigned(context.Context, repository.CompanyScope) (int, error) {
	return r.urgent, nil
}

type fakeCommentRepo struct {
	comments []domain.Comment
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string, publicOnly bool) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID != ticketID {
			continue
		}
		if publicOnly && !comment.IsPublic {
			continue
		}
		out = append(out, comment)
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	attachments []domain.Attachment
	failCreate  bool
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	if r.failCreate {
		return io.ErrUnexpectedEOF
	}
	attachment.ID = uuid.NewString()
	attachment.CreatedAt = time.Now()
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID {
			out = append(out, attachment)
		}
	}
	return out, nil
}

// fakeStore records saved objects and rejects payloads beyond maxSize.
type fakeStore struct {
	maxSize int64
	objects map[string][]byte
	deleted []string
}

func newFakeStore(maxSize int64) *fakeStore {
	return &fakeStore{maxSize: maxSize, objects: make(map[string][]byte)}
}

func (s *fakeStore) Save(_ context.Context, key string, r io.Reader) (int64, error) {
	var buf bytes.Buffer
	written, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}
	if s.maxSize > 0 && written > s.maxSize {
		return 0, storage.ErrTooLarge
	}
	s.objects[key] = buf.Bytes()
	return written, nil
}

func (s *fakeStore) URL(key string) string {
	return "http://files.local/" + key
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// captureDispatcher stores published events for assertions.
type captureDispatcher struct {
	published []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) eventsOfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func strPtr(v string) *string { return &v }

func statusPtr(v domain.TicketStatus) *domain.TicketStatus { return &v }

func priorityPtr(v domain.TicketPriority) *domain.TicketPriority { return &v }

func testUser(role domain.Role, companyID string) *domain.User {
	return &domain.User{
		ID:        uuid.NewString(),
		Email:     string(role) + "@example.com",
		Role:      role,
		CompanyID: companyID,
		IsActive:  true,
	}
}

func scopeFor(user *domain.User) access.Scope {
	return access.NewGuard().ResolveScope(user, "")
}
