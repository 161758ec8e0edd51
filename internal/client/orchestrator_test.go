package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	notifdomain "github.com/felixgeelhaar/petconnect/internal/notifications/domain"
)

type sessionFixture struct {
	clock   *testclock.FakeClock
	remote  *stubRemote
	surface *recordingSurface
	session *Session
}

func newSessionFixture(t *testing.T, prompter Prompter, remote *stubRemote) *sessionFixture {
	t.Helper()
	clk := testclock.NewFakeClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	surface := &recordingSurface{}
	session, err := NewSession(SessionConfig{
		Remote:   remote,
		Prompter: prompter,
		Surface:  surface,
		Clock:    clk,
	})
	require.NoError(t, err)
	return &sessionFixture{clock: clk, remote: remote, surface: surface, session: session}
}

func approvedResponse(approved bool) SubmitResponse {
	return SubmitResponse{Status: StatusSuccess, Approved: ptr(approved)}
}

func headMessage(t *testing.T, f *Feed) FeedEntry {
	t.Helper()
	view := f.View()
	require.NotEmpty(t, view.Entries)
	return view.Entries[0]
}

func TestRequestAdoption_Approved(t *testing.T) {
	remote := &stubRemote{response: approvedResponse(true)}
	fx := newSessionFixture(t, answers("Ana Torres", "2.000.000"), remote)

	result := fx.session.RequestAdoption(context.Background(), "Luna_1")

	assert.Equal(t, OutcomeApproved, result.Outcome)
	assert.NoError(t, result.Err)
	require.Len(t, remote.submits, 1)
	assert.Equal(t, AdoptionRequest{ItemID: "Luna_1", RequesterName: "Ana Torres", RequesterIncome: 2_000_000}, remote.submits[0])
	assert.Equal(t, ButtonApproved, fx.session.Buttons().State("Luna_1"))
	assert.Equal(t, 1, remote.fetchCount())
}

func TestRequestAdoption_RejectedRevertsAndRefreshesOnce(t *testing.T) {
	remote := &stubRemote{response: approvedResponse(false)}
	fx := newSessionFixture(t, answers("Ana Torres", "500000"), remote)

	result := fx.session.RequestAdoption(context.Background(), "Luna_1")

	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Equal(t, ButtonRejected, fx.session.Buttons().State("Luna_1"))
	assert.Equal(t, 1, remote.fetchCount())

	fx.clock.Step(RejectDisplayWindow - time.Millisecond)
	assert.Equal(t, ButtonRejected, fx.session.Buttons().State("Luna_1"))

	fx.clock.Step(time.Millisecond)
	view := fx.session.Buttons().View("Luna_1")
	assert.Equal(t, ButtonIdle, view.State)
	assert.Equal(t, LabelRetry, view.Label)
	assert.Equal(t, 1, remote.fetchCount())
}

func TestRequestAdoption_SecondRapidCallIsDuplicate(t *testing.T) {
	remote := &stubRemote{
		response:   approvedResponse(true),
		block:      make(chan struct{}),
		submitting: make(chan struct{}),
	}
	prompter := answers("Ana Torres", "2000000")
	fx := newSessionFixture(t, prompter, remote)

	done := make(chan Result, 1)
	go func() { done <- fx.session.RequestAdoption(context.Background(), "Luna_1") }()
	<-remote.submitting

	second := fx.session.RequestAdoption(context.Background(), "Luna_1")

	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	var dup *DuplicateRequestError
	require.ErrorAs(t, second.Err, &dup)
	assert.Equal(t, "Luna_1", dup.ItemID)
	assert.Equal(t, 2, prompter.askedCount(), "duplicate must not prompt")
	head := headMessage(t, fx.session.Feed())
	assert.Equal(t, notifdomain.KindWarning, head.Kind)
	assert.Equal(t, "Already processing adoption for Luna", head.Message)

	close(remote.block)
	first := <-done
	assert.Equal(t, OutcomeApproved, first.Outcome)
	assert.Equal(t, 1, remote.submitCount())
}

func TestRequestAdoption_LosesAcquireRaceAfterPrompts(t *testing.T) {
	remote := &stubRemote{
		response:   approvedResponse(true),
		block:      make(chan struct{}),
		submitting: make(chan struct{}),
	}
	entered := make(chan struct{}, 2)
	gate := make(chan struct{})
	prompter := PrompterFunc(func(ctx context.Context, req PromptRequest) (PromptResponse, error) {
		if req.Field == PromptIncome {
			return PromptResponse{Value: "2000000"}, nil
		}
		entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return PromptResponse{}, ctx.Err()
		}
		return PromptResponse{Value: "Ana Torres"}, nil
	})
	fx := newSessionFixture(t, prompter, remote)
	guard := fx.session.Guard()

	results := make(chan Result, 2)
	for i := 0; i < 2; i++ {
		go func() { results <- fx.session.RequestAdoption(context.Background(), "Luna_1") }()
	}
	// both calls are past the held check before either acquires
	<-entered
	<-entered
	close(gate)

	<-remote.submitting
	loser := <-results

	assert.Equal(t, OutcomeDuplicate, loser.Outcome)
	var dup *DuplicateRequestError
	require.ErrorAs(t, loser.Err, &dup)
	assert.Equal(t, "Luna_1", dup.ItemID)
	head := headMessage(t, fx.session.Feed())
	assert.Equal(t, notifdomain.KindWarning, head.Kind)
	assert.Equal(t, "Already processing adoption for Luna", head.Message)
	assert.Equal(t, 1, remote.submitCount())
	assert.True(t, guard.Held("Luna_1"))
	assert.Equal(t, 1, guard.Len())
	assert.Equal(t, ButtonProcessing, fx.session.Buttons().State("Luna_1"))

	close(remote.block)
	winner := <-results
	assert.Equal(t, OutcomeApproved, winner.Outcome)
	assert.Equal(t, 1, remote.submitCount())

	// the winner's lease is the one released after the cooldown
	assert.True(t, guard.Held("Luna_1"))
	fx.clock.Step(CooldownWindow)
	assert.False(t, guard.Held("Luna_1"))
}

func TestRequestAdoption_GuardReleasedAfterCooldown(t *testing.T) {
	remote := &stubRemote{response: approvedResponse(false)}
	fx := newSessionFixture(t, answers("Ana Torres", "2000000", "Ana Torres", "2000000"), remote)
	guard := fx.session.Guard()

	fx.session.RequestAdoption(context.Background(), "Luna_1")
	require.True(t, guard.Held("Luna_1"))

	fx.clock.Step(CooldownWindow - time.Millisecond)
	assert.True(t, guard.Held("Luna_1"))
	second := fx.session.RequestAdoption(context.Background(), "Luna_1")
	assert.Equal(t, OutcomeDuplicate, second.Outcome)

	fx.clock.Step(time.Millisecond)
	assert.False(t, guard.Held("Luna_1"))

	third := fx.session.RequestAdoption(context.Background(), "Luna_1")
	assert.Equal(t, OutcomeRejected, third.Outcome)
	assert.Equal(t, 2, remote.submitCount())
}

func TestRequestAdoption_Cancellations(t *testing.T) {
	tests := []struct {
		name     string
		prompter *scriptedPrompter
		message  string
		field    string
	}{
		{
			name:     "name cancelled",
			prompter: (&scriptedPrompter{}).cancelNext(),
			message:  MsgCancelled,
			field:    "name",
		},
		{
			name:     "name blank",
			prompter: answers("   "),
			message:  MsgCancelled,
			field:    "name",
		},
		{
			name:     "income cancelled",
			prompter: answers("Ana Torres").cancelNext(),
			message:  MsgIncomeCancelled,
			field:    "income",
		},
		{
			name:     "income empty",
			prompter: answers("Ana Torres", ""),
			message:  MsgIncomeCancelled,
			field:    "income",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &stubRemote{response: approvedResponse(true)}
			fx := newSessionFixture(t, tt.prompter, remote)

			result := fx.session.RequestAdoption(context.Background(), "Luna_1")

			assert.Equal(t, OutcomeCancelled, result.Outcome)
			var validation *ValidationError
			require.ErrorAs(t, result.Err, &validation)
			assert.True(t, validation.Cancelled)
			assert.Equal(t, tt.field, validation.Field)

			head := headMessage(t, fx.session.Feed())
			assert.Equal(t, notifdomain.KindInfo, head.Kind)
			assert.Equal(t, "INFO", head.Title)
			assert.Equal(t, tt.message, head.Message)

			assert.Zero(t, remote.submitCount())
			assert.False(t, fx.session.Guard().Held("Luna_1"))
			assert.Zero(t, fx.session.Guard().Len())
			assert.Equal(t, ButtonIdle, fx.session.Buttons().State("Luna_1"))
		})
	}
}

func TestRequestAdoption_PrompterErrorCancels(t *testing.T) {
	remote := &stubRemote{}
	prompter := PrompterFunc(func(context.Context, PromptRequest) (PromptResponse, error) {
		return PromptResponse{}, errors.New("stdin closed")
	})
	fx := newSessionFixture(t, prompter, remote)

	result := fx.session.RequestAdoption(context.Background(), "Luna_1")

	assert.Equal(t, OutcomeCancelled, result.Outcome)
	assert.Zero(t, remote.submitCount())
}

func TestRequestAdoption_NonNumericIncome(t *testing.T) {
	remote := &stubRemote{}
	fx := newSessionFixture(t, answers("Ana Torres", "a lot"), remote)

	result := fx.session.RequestAdoption(context.Background(), "Luna_1")

	assert.Equal(t, OutcomeInvalid, result.Outcome)
	var validation *ValidationError
	require.ErrorAs(t, result.Err, &validation)
	assert.False(t, validation.Cancelled)
	head := headMessage(t, fx.session.Feed())
	assert.Equal(t, notifdomain.KindError, head.Kind)
	assert.Equal(t, MsgInvalidIncome, head.Message)
	assert.Zero(t, remote.submitCount())
	assert.False(t, fx.session.Guard().Held("Luna_1"))
}

func TestRequestAdoption_Failures(t *testing.T) {
	tests := []struct {
		name      string
		remote    *stubRemote
		message   string
		assertErr func(t *testing.T, err error)
	}{
		{
			name:    "transport failure",
			remote:  &stubRemote{submitErr: errors.New("connection refused")},
			message: MsgUnreachable,
			assertErr: func(t *testing.T, err error) {
				var transport *TransportError
				require.ErrorAs(t, err, &transport)
				assert.Equal(t, "submit adoption", transport.Op)
			},
		},
		{
			name:    "error field",
			remote:  &stubRemote{response: SubmitResponse{Status: StatusError, Error: "queue unavailable"}},
			message: "Server error: queue unavailable",
			assertErr: func(t *testing.T, err error) {
				var app *ApplicationError
				require.ErrorAs(t, err, &app)
				assert.Equal(t, "queue unavailable", app.Message)
			},
		},
		{
			name:    "missing decision",
			remote:  &stubRemote{response: SubmitResponse{Status: StatusSuccess}},
			message: MsgUnreachable,
			assertErr: func(t *testing.T, err error) {
				var transport *TransportError
				require.ErrorAs(t, err, &transport)
				assert.ErrorIs(t, err, errMissingDecision)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newSessionFixture(t, answers("Ana Torres", "2000000"), tt.remote)

			result := fx.session.RequestAdoption(context.Background(), "Luna_1")

			assert.Equal(t, OutcomeFailed, result.Outcome)
			tt.assertErr(t, result.Err)

			view := fx.session.Buttons().View("Luna_1")
			assert.Equal(t, ButtonIdle, view.State)
			assert.Equal(t, LabelIdle, view.Label)
			assert.True(t, view.Enabled)

			head := headMessage(t, fx.session.Feed())
			assert.Equal(t, notifdomain.KindError, head.Kind)
			assert.Equal(t, tt.message, head.Message)
			assert.Zero(t, tt.remote.fetchCount())

			assert.True(t, fx.session.Guard().Held("Luna_1"))
			fx.clock.Step(CooldownWindow)
			assert.False(t, fx.session.Guard().Held("Luna_1"))
		})
	}
}

func TestRequestAdoption_ApprovedIsIgnored(t *testing.T) {
	remote := &stubRemote{response: approvedResponse(true)}
	prompter := answers("Ana Torres", "2000000", "Ana Torres", "2000000")
	fx := newSessionFixture(t, prompter, remote)

	fx.session.RequestAdoption(context.Background(), "Luna_1")
	fx.clock.Step(CooldownWindow)

	result := fx.session.RequestAdoption(context.Background(), "Luna_1")

	assert.Equal(t, OutcomeIgnored, result.Outcome)
	assert.Equal(t, 2, prompter.askedCount())
	assert.Equal(t, 1, remote.submitCount())
}

func TestRequestAdoption_FetchFailureDoesNotFailRequest(t *testing.T) {
	remote := &stubRemote{response: approvedResponse(true), fetchErr: errors.New("timeout")}
	fx := newSessionFixture(t, answers("Ana Torres", "2000000"), remote)

	result := fx.session.RequestAdoption(context.Background(), "Luna_1")

	assert.Equal(t, OutcomeApproved, result.Outcome)
	assert.NoError(t, result.Err)
	assert.Equal(t, 1, remote.fetchCount())
}

func TestSession_Start(t *testing.T) {
	remote := &stubRemote{history: []Notification{serverNotification(1)}}
	fx := newSessionFixture(t, answers(), remote)

	require.NoError(t, fx.session.Start(context.Background()))

	assert.Equal(t, 1, remote.fetchCount())
	assert.Len(t, fx.session.Feed().View().Entries, 1)
}

func TestSession_Clear(t *testing.T) {
	remote := &stubRemote{history: []Notification{serverNotification(1)}}
	fx := newSessionFixture(t, answers(), remote)
	require.NoError(t, fx.session.Start(context.Background()))

	require.NoError(t, fx.session.Clear(context.Background()))

	assert.True(t, fx.session.Feed().View().Placeholder)
	assert.Equal(t, 2, remote.fetchCount())
}

func TestNewSession_RequiresCollaborators(t *testing.T) {
	_, err := NewSession(SessionConfig{Prompter: answers()})
	assert.Error(t, err)

	_, err = NewSession(SessionConfig{Remote: &stubRemote{}})
	assert.Error(t, err)
}
