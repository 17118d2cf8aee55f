package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/gateway"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/panel"
	"github.com/spec-kit/ticket-desk/internal/quota"
	"github.com/spec-kit/ticket-desk/internal/registry"
	"github.com/spec-kit/ticket-desk/internal/store"
	"github.com/spec-kit/ticket-desk/internal/transcript"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

const staffRole = "400000000000000001"

// fakeChat records platform calls and fails on demand.
type fakeChat struct {
	mu         sync.Mutex
	nextID     int
	created    []gateway.ChannelSpec
	edits      []gateway.PermissionOverwrite
	notices    []gateway.Notice
	deleted    []string
	failCreate error
	failEdit   error
	failPost   error
}

func (c *fakeChat) CreateChannel(ctx context.Context, spec gateway.ChannelSpec) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreate != nil {
		return "", c.failCreate
	}
	c.nextID++
	c.created = append(c.created, spec)
	return fmt.Sprintf("90000000000000000%d", c.nextID), nil
}

func (c *fakeChat) EditPermission(ctx context.Context, channelID string, overwrite gateway.PermissionOverwrite) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failEdit != nil {
		return c.failEdit
	}
	c.edits = append(c.edits, overwrite)
	return nil
}

func (c *fakeChat) PostNotice(ctx context.Context, channelID string, notice gateway.Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failPost != nil {
		return c.failPost
	}
	c.notices = append(c.notices, notice)
	return nil
}

func (c *fakeChat) DeleteChannel(ctx context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, channelID)
	return nil
}

func (c *fakeChat) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	return true, nil
}

func (c *fakeChat) FetchMessages(ctx context.Context, channelID string) ([]gateway.Message, error) {
	return nil, nil
}

func (c *fakeChat) lastNotice() gateway.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notices[len(c.notices)-1]
}

// stubTranscripts fails or succeeds wholesale.
type stubTranscripts struct {
	err   error
	calls int
}

func (s *stubTranscripts) Generate(ctx context.Context, channelID string, opts transcript.Options) (*transcript.Artifact, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &transcript.Artifact{Path: "transcripts/" + channelID + ".txt"}, nil
}

// tickingClock hands out strictly increasing instants, one second apart.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	service     *Service
	chat        *fakeChat
	registry    *registry.Registry
	transcripts *stubTranscripts
	scheduled   []func()
	graces      []time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, err := store.NewFileStore(filepath.Join(t.TempDir(), "tickets.json"))
	require.NoError(t, err)
	writer := store.NewWriter(backend, zap.NewNop())
	t.Cleanup(writer.Close)

	reg := registry.New(backend, writer, zap.NewNop())
	panels, err := panel.NewRegistry(panel.BuiltIn()...)
	require.NoError(t, err)

	f := &fixture{
		chat:        &fakeChat{},
		registry:    reg,
		transcripts: &stubTranscripts{},
	}
	f.service = NewService(Dependencies{
		Registry: reg,
		Chat:     f.chat,
		Policy: auth.NewPolicy(map[domain.Category][]string{
			domain.CategorySupport: {staffRole},
		}),
		Quota:       quota.NewGuard(config.QuotaConfig{MaxTotal: 10, MaxPerCategory: 3}),
		Panels:      panels,
		Transcripts: f.transcripts,
		Metrics:     observability.NewMetrics(),
		Logger:      zap.NewNop(),
		DeleteGrace: 5 * time.Second,
	})
	f.service.now = (&tickingClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}).Now
	f.service.schedule = func(d time.Duration, fn func()) {
		f.graces = append(f.graces, d)
		f.scheduled = append(f.scheduled, fn)
	}
	return f
}

var (
	requester = domain.Actor{ID: "200000000000000001"}
	staff     = domain.Actor{ID: "200000000000000002", Roles: []string{staffRole}}
)

func (f *fixture) create(t *testing.T) *domain.TicketRecord {
	t.Helper()
	rec, err := f.service.Create(context.Background(), requester, domain.CategorySupport,
		domain.FormData{"issue": "no audio"})
	require.NoError(t, err)
	return rec
}

func TestCreateAllocatesChannelAndPersists(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t)

	require.Len(t, f.chat.created, 1)
	spec := f.chat.created[0]
	var targets []string
	for _, ow := range spec.Overwrites {
		targets = append(targets, ow.TargetID)
	}
	assert.Contains(t, targets, requester.ID)
	assert.Contains(t, targets, staffRole)

	stored, ok := f.registry.Get(context.Background(), rec.ChannelID)
	require.True(t, ok)
	assert.Equal(t, requester.ID, stored.UserID)
	assert.Equal(t, domain.CategorySupport, stored.Category)
	assert.False(t, stored.Closed)
	assert.Equal(t, "no audio", stored.FormData["issue"])

	// Staff roles are pinged on the welcome notice.
	assert.Contains(t, f.chat.lastNotice().MentionRoles, staffRole)
}

func TestCreateDeniedByQuota(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.create(t)
	}

	_, err := f.service.Create(context.Background(), requester, domain.CategorySupport, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "QUOTA_EXCEEDED"))
	assert.Len(t, f.chat.created, 3, "no channel may be allocated for a denied creation")
}

func TestCreateChannelFailure(t *testing.T) {
	f := newFixture(t)
	f.chat.failCreate = errors.New("platform down")

	_, err := f.service.Create(context.Background(), requester, domain.CategorySupport, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "COLLABORATOR_FAILURE"))
	assert.Empty(t, f.registry.Snapshot(context.Background()))
}

func TestCloseRequestThenCancelLeavesRecordUntouched(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t)
	ctx := context.Background()

	require.NoError(t, f.service.RequestClose(ctx, requester, rec.ChannelID))
	assert.True(t, f.service.PendingClose(rec.ChannelID))

	require.NoError(t, f.service.CancelClose(ctx, staff, rec.ChannelID))
	assert.False(t, f.service.PendingClose(rec.ChannelID))

	stored, ok := f.registry.Get(ctx, rec.ChannelID)
	require.True(t, ok)
	assert.False(t, stored.Closed)
	assert.Nil(t, stored.ClosedAt)
}

func TestCloseConfirmReopenSequence(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t)
	ctx := context.Background()

	require.NoError(t, f.service.RequestClose(ctx, requester, rec.ChannelID))
	require.NoError(t, f.service.ConfirmClose(ctx, staff, rec.ChannelID))
	assert.False(t, f.service.PendingClose(rec.ChannelID))

	closed, ok := f.registry.Get(ctx, rec.ChannelID)
	require.True(t, ok)
	assert.True(t, closed.Closed)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, staff.ID, closed.ClosedBy)

	require.NoError(t, f.service.Reopen(ctx, staff, rec.ChannelID))

	reopened, ok := f.registry.Get(ctx, rec.ChannelID)
	require.True(t, ok)
	assert.False(t, reopened.Closed)
	require.NotNil(t, reopened.ClosedAt)
	require.NotNil(t, reopened.ReopenedAt)
	assert.True(t, reopened.ReopenedAt.After(*reopened.ClosedAt))
	assert.Equal(t, staff.ID, reopened.ReopenedBy)

	// Send permission was revoked on close and restored on reopen.
	require.Len(t, f.chat.edits, 2)
	assert.Contains(t, f.chat.edits[0].Deny, gateway.PermissionSend)
	assert.Contains(t, f.chat.edits[1].Allow, gateway.PermissionSend)
}

func TestConfirmCloseAlreadyClosed(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t)
	ctx := context.Background()

	require.NoError(t, f.service.ConfirmClose(ctx, staff, rec.ChannelID))
	err := f.service.ConfirmClose(ctx, staff, rec.ChannelID)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestConfirmClosePermissionFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t)
	f.chat.failEdit = errors.New("missing access")

	err := f.service.ConfirmClose(context.Background(), staff, rec.ChannelID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "COLLABORATOR_FAILURE"))

	stored, ok := f.registry.Get(context.Background(), rec.ChannelID)
	require.True(t, ok)
	assert.False(t, stored.Closed)
	assert.Nil(t, stored.ClosedAt)
}

func TestDeleteRemovesRecordBeforeChannel(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t)
	ctx := context.Background()

	require.NoError(t, f.service.Delete(ctx, staff, rec.ChannelID))

	// Record is gone while the channel still stands: the grace window.
	_, ok := f.registry.Get(ctx, rec.ChannelID)
	assert.False(t, ok)
	assert.Empty(t, f.chat.deleted)
	require.Len(t, f.graces, 1)
	assert.Equal(t, 5*time.Second, f.graces[0])

	f.scheduled[0]()
	assert.Equal(t, []string{rec.ChannelID}, f.chat.deleted)
}

func TestDeleteSurvivesTranscriptFailure(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t)
	f.transcripts.err = errors.New("history unavailable")

	require.NoError(t, f.service.Delete(context.Background(), staff, rec.ChannelID))
	assert.Equal(t, 1, f.transcripts.calls)

	_, ok := f.registry.Get(context.Background(), rec.ChannelID)
	assert.False(t, ok)
}

func TestTransitionsOnUnknownChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	unknown := "800000000000000009"

	assert.True(t, apperrors.IsCode(f.service.RequestClose(ctx, requester, unknown), "NOT_A_TICKET"))
	assert.True(t, apperrors.IsCode(f.service.ConfirmClose(ctx, staff, unknown), "NOT_A_TICKET"))
	assert.True(t, apperrors.IsCode(f.service.CancelClose(ctx, staff, unknown), "NOT_A_TICKET"))
	assert.True(t, apperrors.IsCode(f.service.Reopen(ctx, staff, unknown), "NOT_A_TICKET"))
	assert.True(t, apperrors.IsCode(f.service.Delete(ctx, staff, unknown), "NOT_A_TICKET"))

	_, err := f.service.Transcript(ctx, unknown)
	assert.True(t, apperrors.IsCode(err, "NOT_A_TICKET"))
}

func TestReopenRequiresClosedTicket(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t)

	err := f.service.Reopen(context.Background(), staff, rec.ChannelID)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
