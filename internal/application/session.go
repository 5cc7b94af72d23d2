package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/looplab/fsm"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

// Session states.
const (
	StateUnauthenticated = "unauthenticated"
	StateAwaitingOTP     = "awaiting_otp"
	StateAuthenticated   = "authenticated"
)

// Session events.
const (
	eventLoginSucceeded = "login_succeeded"
	eventOTPRequired    = "otp_required"
	eventOTPConfirmed   = "otp_confirmed"
	eventOTPFailed      = "otp_failed"
	eventResumed        = "resumed"
)

// DefaultBootstrapInterval is the fixed wait between anti-forgery bootstrap attempts.
const DefaultBootstrapInterval = 5 * time.Second

// OTPPrompt asks the operator for a one-time passcode.
type OTPPrompt func(ctx context.Context) (string, error)

// SessionManager owns the authenticated session for one process run.
// It is not safe for concurrent use.
type SessionManager struct {
	exchanger         driven.SessionExchanger
	store             driven.CredentialStore
	machine           *fsm.FSM
	bootstrapInterval time.Duration
	current           *model.AuthenticatedContext
}

// NewSessionManager creates a SessionManager in the unauthenticated state.
func NewSessionManager(exchanger driven.SessionExchanger, store driven.CredentialStore, bootstrapInterval time.Duration) *SessionManager {
	return &SessionManager{
		exchanger:         exchanger,
		store:             store,
		bootstrapInterval: bootstrapInterval,
		machine: fsm.NewFSM(
			StateUnauthenticated,
			fsm.Events{
				{Name: eventLoginSucceeded, Src: []string{StateUnauthenticated}, Dst: StateAuthenticated},
				{Name: eventOTPRequired, Src: []string{StateUnauthenticated}, Dst: StateAwaitingOTP},
				{Name: eventOTPConfirmed, Src: []string{StateAwaitingOTP}, Dst: StateAuthenticated},
				{Name: eventOTPFailed, Src: []string{StateAwaitingOTP}, Dst: StateUnauthenticated},
				{Name: eventResumed, Src: []string{StateUnauthenticated}, Dst: StateAuthenticated},
			},
			fsm.Callbacks{
				"enter_state": func(_ context.Context, e *fsm.Event) {
					slog.Debug("session state changed", "event", e.Event, "from", e.Src, "to", e.Dst)
				},
			},
		),
	}
}

// State returns the current session state.
func (m *SessionManager) State() string {
	return m.machine.Current()
}

// AuthenticateWithPassword performs the password exchange under a fresh
// anti-forgery pair. On model.LoginSuccess the session becomes authenticated;
// on model.OTPRequired it awaits CompleteOTP.
func (m *SessionManager) AuthenticateWithPassword(ctx context.Context, username, password string) (model.LoginResult, error) {
	if !m.machine.Is(StateUnauthenticated) {
		return nil, fmt.Errorf("cannot log in while %s", m.machine.Current())
	}

	pair, err := m.exchanger.CreateAntiForgeryPair(ctx)
	if err != nil {
		return nil, fmt.Errorf("create anti-forgery token: %w", err)
	}

	result, err := m.exchanger.Login(ctx, pair, username, password)
	if err != nil {
		return nil, err
	}

	switch r := result.(type) {
	case model.LoginSuccess:
		if err := m.machine.Event(ctx, eventLoginSucceeded); err != nil {
			return nil, err
		}
		m.current = &model.AuthenticatedContext{Credentials: r.Bundle, AntiForgery: pair}
	case model.OTPRequired:
		if err := m.machine.Event(ctx, eventOTPRequired); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unexpected login result %T", result)
	}

	return result, nil
}

// CompleteOTP exchanges the operator's code for a credential bundle. Any
// failure abandons the challenge, returns the session to unauthenticated and
// is reported as a *model.AuthenticationError.
func (m *SessionManager) CompleteOTP(ctx context.Context, username, code string, challenge model.OTPChallenge) (model.CredentialBundle, error) {
	if !m.machine.Is(StateAwaitingOTP) {
		return model.CredentialBundle{}, fmt.Errorf("no one-time passcode pending (state %s)", m.machine.Current())
	}

	bundle, pair, err := m.exchangeOTP(ctx, username, code, challenge)
	if err != nil {
		m.abandonOTP(ctx)
		return model.CredentialBundle{}, asAuthenticationError(err)
	}

	if err := m.machine.Event(ctx, eventOTPConfirmed); err != nil {
		return model.CredentialBundle{}, err
	}
	m.current = &model.AuthenticatedContext{Credentials: bundle, AntiForgery: pair}
	return bundle, nil
}

func (m *SessionManager) exchangeOTP(ctx context.Context, username, code string, challenge model.OTPChallenge) (model.CredentialBundle, model.AntiForgeryPair, error) {
	pair, err := m.exchanger.CreateAntiForgeryPair(ctx)
	if err != nil {
		return model.CredentialBundle{}, model.AntiForgeryPair{}, fmt.Errorf("create anti-forgery token: %w", err)
	}

	bundle, err := m.exchanger.LoginWithOTP(ctx, pair, username, code, challenge.OTPToken)
	if err != nil {
		return model.CredentialBundle{}, model.AntiForgeryPair{}, err
	}
	return bundle, pair, nil
}

func asAuthenticationError(err error) error {
	var authErr *model.AuthenticationError
	if errors.As(err, &authErr) {
		return err
	}
	wrapped := &model.AuthenticationError{Err: err}
	var transportErr *model.TransportError
	if errors.As(err, &transportErr) {
		wrapped.StatusCode = transportErr.StatusCode
		wrapped.Body = transportErr.Body
	}
	return wrapped
}

func (m *SessionManager) abandonOTP(ctx context.Context) {
	if err := m.machine.Event(ctx, eventOTPFailed); err != nil {
		slog.Warn("abandon otp challenge", "error", err)
	}
}

// Resume turns a previously obtained bundle into an authenticated context
// without contacting the login endpoints. The anti-forgery bootstrap is
// retried at a fixed interval until it succeeds or ctx is cancelled.
func (m *SessionManager) Resume(ctx context.Context, bundle model.CredentialBundle) (model.AuthenticatedContext, error) {
	if !bundle.Complete() {
		return model.AuthenticatedContext{}, model.ErrNotAuthenticated
	}
	if !m.machine.Is(StateUnauthenticated) {
		return model.AuthenticatedContext{}, fmt.Errorf("cannot resume while %s", m.machine.Current())
	}

	pair, err := m.bootstrapAntiForgery(ctx)
	if err != nil {
		return model.AuthenticatedContext{}, err
	}

	if err := m.machine.Event(ctx, eventResumed); err != nil {
		return model.AuthenticatedContext{}, err
	}
	m.current = &model.AuthenticatedContext{Credentials: bundle, AntiForgery: pair}
	return *m.current, nil
}

func (m *SessionManager) bootstrapAntiForgery(ctx context.Context) (model.AntiForgeryPair, error) {
	var pair model.AntiForgeryPair
	operation := func() error {
		p, err := m.exchanger.CreateAntiForgeryPair(ctx)
		if err != nil {
			return err
		}
		pair = p
		return nil
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(m.bootstrapInterval), ctx)
	notify := func(err error, next time.Duration) {
		slog.Warn("anti-forgery token unavailable, retrying", "error", err, "retry_in", next)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return model.AntiForgeryPair{}, fmt.Errorf("create anti-forgery token: %w", err)
	}
	return pair, nil
}

// Login runs the full interactive login: password, an optional OTP prompt,
// then persists the new bundle.
func (m *SessionManager) Login(ctx context.Context, username, password string, prompt OTPPrompt) (model.AuthenticatedContext, error) {
	if username == "" || password == "" {
		return model.AuthenticatedContext{}, errors.New("username and password are required to log in")
	}

	result, err := m.AuthenticateWithPassword(ctx, username, password)
	if err != nil {
		return model.AuthenticatedContext{}, err
	}

	if otp, ok := result.(model.OTPRequired); ok {
		code, err := prompt(ctx)
		if err != nil {
			m.abandonOTP(ctx)
			return model.AuthenticatedContext{}, fmt.Errorf("read one-time passcode: %w", err)
		}
		if _, err := m.CompleteOTP(ctx, username, code, otp.Challenge); err != nil {
			return model.AuthenticatedContext{}, err
		}
	}

	if err := m.store.Save(ctx, m.current.Credentials); err != nil {
		return *m.current, fmt.Errorf("persist credentials: %w", err)
	}
	slog.Info("login successful")
	return *m.current, nil
}

// Session returns the current authenticated context, resuming from the
// credential store when no login happened in this process.
func (m *SessionManager) Session(ctx context.Context) (model.AuthenticatedContext, error) {
	if m.current != nil {
		return *m.current, nil
	}

	bundle, err := m.store.Load(ctx)
	if err != nil {
		return model.AuthenticatedContext{}, err
	}
	return m.Resume(ctx, bundle)
}
