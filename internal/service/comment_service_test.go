package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/events"
)

type commentFixture struct {
	svc         *CommentService
	comments    *fakeCommentRepo
	attachments *fakeAttachmentRepo
	store       *fakeStore
	dispatcher  *captureDispatcher
	ticket      *domain.Ticket
	owner       *domain.User
}

func newCommentFixture(t *testing.T, maxUpload int64) *commentFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	ticketService := newTicketService(tickets, nil)
	comments := &fakeCommentRepo{}
	attachments := &fakeAttachmentRepo{}
	store := newFakeStore(maxUpload)
	dispatcher := &captureDispatcher{}

	svc := NewCommentService(CommentDependencies{
		CommentRepo:    comments,
		AttachmentRepo: attachments,
		Tickets:        ticketService,
		Store:          store,
		Guard:          access.NewGuard(),
		Dispatcher:     dispatcher,
	})

	owner := testUser(domain.RoleUser, "acme")
	ticket, err := ticketService.Create(context.Background(), owner, TicketCreateInput{Title: "commented"})
	require.NoError(t, err)
	return &commentFixture{
		svc:         svc,
		comments:    comments,
		attachments: attachments,
		store:       store,
		dispatcher:  dispatcher,
		ticket:      ticket,
		owner:       owner,
	}
}

func TestCommentPrivacyForcedPublicForEndUsers(t *testing.T) {
	fx := newCommentFixture(t, 0)

	comment, err := fx.svc.Add(context.Background(), fx.owner, scopeFor(fx.owner), fx.ticket.ID, "please hurry", false)
	require.NoError(t, err)
	assert.True(t, comment.IsPublic)

	tech := testUser(domain.RoleTech, "acme")
	internal, err := fx.svc.Add(context.Background(), tech, scopeFor(tech), fx.ticket.ID, "notes for the team", false)
	require.NoError(t, err)
	assert.False(t, internal.IsPublic)
}

func TestCommentListingFiltersPrivateForEndUsers(t *testing.T) {
	fx := newCommentFixture(t, 0)
	tech := testUser(domain.RoleTech, "acme")

	_, err := fx.svc.Add(context.Background(), fx.owner, scopeFor(fx.owner), fx.ticket.ID, "public question", true)
	require.NoError(t, err)
	_, err = fx.svc.Add(context.Background(), tech, scopeFor(tech), fx.ticket.ID, "internal note", false)
	require.NoError(t, err)

	visible, err := fx.svc.List(context.Background(), fx.owner, scopeFor(fx.owner), fx.ticket.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "public question", visible[0].Body)

	all, err := fx.svc.List(context.Background(), tech, scopeFor(tech), fx.ticket.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCommentValidationAndEvents(t *testing.T) {
	fx := newCommentFixture(t, 0)

	_, err := fx.svc.Add(context.Background(), fx.owner, scopeFor(fx.owner), fx.ticket.ID, "   ", true)
	assertCode(t, err, "VALIDATION_FAILED")

	long := strings.Repeat("x", 500)
	_, err = fx.svc.Add(context.Background(), fx.owner, scopeFor(fx.owner), fx.ticket.ID, long, true)
	require.NoError(t, err)

	published := fx.dispatcher.eventsOfType(events.EventCommentAdded)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.CommentAddedPayload)
	require.True(t, ok)
	assert.LessOrEqual(t, len(payload.BodyPreview), 120)
	assert.True(t, payload.IsPublic)
}

func TestAttachmentUploadAndLimit(t *testing.T) {
	fx := newCommentFixture(t, 16)

	attachment, err := fx.svc.AddAttachment(context.Background(), fx.owner, scopeFor(fx.owner), fx.ticket.ID,
		"../../etc/report.pdf", strPtr("application/pdf"), strings.NewReader("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", attachment.Filename)
	assert.Equal(t, int64(10), attachment.SizeBytes)
	assert.Contains(t, fx.svc.AttachmentURL(attachment), attachment.StorageKey)

	_, err = fx.svc.AddAttachment(context.Background(), fx.owner, scopeFor(fx.owner), fx.ticket.ID,
		"big.bin", nil, strings.NewReader(strings.Repeat("a", 64)))
	assertCode(t, err, "VALIDATION_FAILED")

	listed, err := fx.svc.ListAttachments(context.Background(), scopeFor(fx.owner), fx.ticket.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestAttachmentOnlyRequesterOrStaff(t *testing.T) {
	fx := newCommentFixture(t, 0)
	stranger := testUser(domain.RoleUser, "acme")

	// Same-company end users see the ticket is gone entirely, not forbidden.
	_, err := fx.svc.AddAttachment(context.Background(), stranger, scopeFor(stranger), fx.ticket.ID,
		"notes.txt", nil, strings.NewReader("hello"))
	assertCode(t, err, "NOT_FOUND")

	tech := testUser(domain.RoleTech, "acme")
	_, err = fx.svc.AddAttachment(context.Background(), tech, scopeFor(tech), fx.ticket.ID,
		"notes.txt", nil, strings.NewReader("hello"))
	require.NoError(t, err)
}

func TestAttachmentStoreCleanupOnMetadataFailure(t *testing.T) {
	fx := newCommentFixture(t, 0)
	fx.attachments.failCreate = true

	_, err := fx.svc.AddAttachment(context.Background(), fx.owner, scopeFor(fx.owner), fx.ticket.ID,
		"orphan.txt", nil, strings.NewReader("data"))
	require.Error(t, err)
	assert.Len(t, fx.store.deleted, 1)
	assert.Empty(t, fx.store.objects)
}
