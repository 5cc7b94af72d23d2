package driven

import (
	"context"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// SessionExchanger defines the driven port for the three pre-authentication
// exchanges with the backend. Each call is a single request/response.
type SessionExchanger interface {
	// CreateAntiForgeryPair obtains a fresh CSRF token and app-session token.
	CreateAntiForgeryPair(ctx context.Context) (model.AntiForgeryPair, error)

	// Login performs the password exchange. The result is either
	// model.LoginSuccess or model.OTPRequired; any other outcome is a
	// *model.AuthenticationError.
	Login(ctx context.Context, pair model.AntiForgeryPair, username, password string) (model.LoginResult, error)

	// LoginWithOTP exchanges a user-entered code and the OTP token for a bundle.
	// Every failure, including transport errors, is a *model.AuthenticationError.
	LoginWithOTP(ctx context.Context, pair model.AntiForgeryPair, username, code, otpToken string) (model.CredentialBundle, error)
}
