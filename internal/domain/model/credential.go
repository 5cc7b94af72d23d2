package model

import (
	"fmt"
	"strings"
)

// CredentialBundle holds the three long-lived tokens issued by a successful
// login. A bundle is usable only when all three are non-empty; a partial
// bundle is treated as absent.
type CredentialBundle struct {
	AccessToken      string
	RefreshToken     string
	UserSessionToken string
}

// Complete reports whether all three tokens are present.
func (b CredentialBundle) Complete() bool {
	return b.AccessToken != "" && b.RefreshToken != "" && b.UserSessionToken != ""
}

// authorizationSeparator delimits the tokens in an authorization override.
const authorizationSeparator = ";"

// ParseAuthorization parses an "access;refresh;userSession" override string.
// Tokens are taken verbatim; surrounding whitespace is not trimmed.
func ParseAuthorization(s string) (CredentialBundle, error) {
	parts := strings.Split(s, authorizationSeparator)
	if len(parts) != 3 {
		return CredentialBundle{}, fmt.Errorf("authorization override must contain 3 %q-separated tokens, got %d", authorizationSeparator, len(parts))
	}

	b := CredentialBundle{
		AccessToken:      parts[0],
		RefreshToken:     parts[1],
		UserSessionToken: parts[2],
	}
	if !b.Complete() {
		return CredentialBundle{}, fmt.Errorf("authorization override contains an empty token")
	}
	return b, nil
}

// OTPChallenge is returned by a password login when the account requires a
// second factor. It is only valid for the login transaction that produced it.
type OTPChallenge struct {
	OTPToken string
}

// LoginResult is the outcome of a password login: either LoginSuccess or
// OTPRequired. The set of implementations is closed.
type LoginResult interface {
	isLoginResult()
}

// LoginSuccess carries the credentials from a login that needed no second factor.
type LoginSuccess struct {
	Bundle CredentialBundle
}

// OTPRequired carries the challenge from a login that needs a second factor.
type OTPRequired struct {
	Challenge OTPChallenge
}

func (LoginSuccess) isLoginResult() {}
func (OTPRequired) isLoginResult()  {}
