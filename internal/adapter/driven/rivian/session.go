package rivian

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

const createCSRFTokenMutation = `mutation CreateCSRFToken {createCsrfToken {__typename csrfToken appSessionToken}}`

const loginMutation = `mutation Login($email: String!, $password: String!) {
  login(email: $email, password: $password) {
    __typename
    ... on MobileLoginResponse {
      __typename
      accessToken
      refreshToken
      userSessionToken
    }
    ... on MobileMFALoginResponse {
      __typename
      otpToken
    }
  }
}`

const loginWithOTPMutation = `mutation LoginWithOTP($email: String!, $otpCode: String!, $otpToken: String!) {
  loginWithOTP(email: $email, otpCode: $otpCode, otpToken: $otpToken) {
    __typename
    ... on MobileLoginResponse {
      __typename
      accessToken
      refreshToken
      userSessionToken
    }
  }
}`

// GraphQL type names of the two login response shapes.
const (
	typeLoginResponse    = "MobileLoginResponse"
	typeMFALoginResponse = "MobileMFALoginResponse"
)

type csrfResponse struct {
	Data struct {
		CreateCsrfToken *struct {
			CSRFToken       string `json:"csrfToken"`
			AppSessionToken string `json:"appSessionToken"`
		} `json:"createCsrfToken"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// loginPayload covers both login response shapes.
type loginPayload struct {
	Typename         string  `json:"__typename"`
	AccessToken      string  `json:"accessToken"`
	RefreshToken     string  `json:"refreshToken"`
	UserSessionToken string  `json:"userSessionToken"`
	OTPToken         *string `json:"otpToken"`
}

type loginResponse struct {
	Data struct {
		Login        *loginPayload `json:"login"`
		LoginWithOTP *loginPayload `json:"loginWithOTP"`
	} `json:"data"`
}

// CreateAntiForgeryPair requests a fresh CSRF token and app-session token.
func (c *Client) CreateAntiForgeryPair(ctx context.Context) (model.AntiForgeryPair, error) {
	resp, err := c.post(ctx, gatewayPath, graphqlRequest{
		OperationName: "CreateCSRFToken",
		Query:         createCSRFTokenMutation,
	}, baseHeaders())
	if err != nil {
		return model.AntiForgeryPair{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return model.AntiForgeryPair{}, &model.TransportError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var parsed csrfResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return model.AntiForgeryPair{}, &model.MalformedResponseError{Reason: "createCsrfToken: " + err.Error()}
	}
	token := parsed.Data.CreateCsrfToken
	if token == nil || token.CSRFToken == "" || token.AppSessionToken == "" {
		reason := "createCsrfToken: missing tokens"
		if msg := firstError(parsed.Errors); msg != "" {
			reason += ": " + msg
		}
		return model.AntiForgeryPair{}, &model.MalformedResponseError{Reason: reason}
	}

	return model.AntiForgeryPair{CSRFToken: token.CSRFToken, AppSessionToken: token.AppSessionToken}, nil
}

// Login performs the password exchange. The two response shapes are resolved
// here into model.LoginSuccess or model.OTPRequired.
func (c *Client) Login(ctx context.Context, pair model.AntiForgeryPair, username, password string) (model.LoginResult, error) {
	resp, err := c.post(ctx, gatewayPath, graphqlRequest{
		OperationName: "Login",
		Query:         loginMutation,
		Variables:     map[string]any{"email": username, "password": password},
	}, c.loginHeaders(pair))
	if err != nil {
		return nil, err
	}

	authErr := &model.AuthenticationError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	if resp.StatusCode != http.StatusOK {
		return nil, authErr
	}

	var parsed loginResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil || parsed.Data.Login == nil {
		return nil, authErr
	}

	result, ok := parseLoginPayload(*parsed.Data.Login)
	if !ok {
		return nil, authErr
	}
	return result, nil
}

// LoginWithOTP completes a second-factor login.
func (c *Client) LoginWithOTP(ctx context.Context, pair model.AntiForgeryPair, username, code, otpToken string) (model.CredentialBundle, error) {
	resp, err := c.post(ctx, gatewayPath, graphqlRequest{
		OperationName: "LoginWithOTP",
		Query:         loginWithOTPMutation,
		Variables:     map[string]any{"email": username, "otpCode": code, "otpToken": otpToken},
	}, c.loginHeaders(pair))
	if err != nil {
		return model.CredentialBundle{}, &model.AuthenticationError{Err: err}
	}

	authErr := &model.AuthenticationError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	if resp.StatusCode != http.StatusOK {
		return model.CredentialBundle{}, authErr
	}

	var parsed loginResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil || parsed.Data.LoginWithOTP == nil {
		return model.CredentialBundle{}, authErr
	}

	result, ok := parseLoginPayload(*parsed.Data.LoginWithOTP)
	success, isSuccess := result.(model.LoginSuccess)
	if !ok || !isSuccess {
		return model.CredentialBundle{}, authErr
	}
	return success.Bundle, nil
}

// parseLoginPayload maps a login payload onto the closed LoginResult variant.
// The __typename decides when present; otherwise the populated fields do.
func parseLoginPayload(p loginPayload) (model.LoginResult, bool) {
	bundle := model.CredentialBundle{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		UserSessionToken: p.UserSessionToken,
	}
	hasOTP := p.OTPToken != nil && *p.OTPToken != ""

	switch {
	case p.Typename == typeMFALoginResponse && hasOTP:
		return model.OTPRequired{Challenge: model.OTPChallenge{OTPToken: *p.OTPToken}}, true
	case p.Typename == typeLoginResponse && bundle.Complete():
		return model.LoginSuccess{Bundle: bundle}, true
	case p.Typename == "" && hasOTP:
		return model.OTPRequired{Challenge: model.OTPChallenge{OTPToken: *p.OTPToken}}, true
	case p.Typename == "" && bundle.Complete():
		return model.LoginSuccess{Bundle: bundle}, true
	default:
		return nil, false
	}
}

// loginHeaders returns the headers for the password and OTP exchanges.
func (c *Client) loginHeaders(pair model.AntiForgeryPair) http.Header {
	h := baseHeaders()
	h.Set("Csrf-Token", pair.CSRFToken)
	h.Set("A-Sess", pair.AppSessionToken)
	h.Set("Dc-Cid", "m-ios-"+c.newID())
	return h
}

// gatewayHeaders returns the headers for authenticated gateway queries.
func (c *Client) gatewayHeaders(session model.AuthenticatedContext) http.Header {
	h := baseHeaders()
	h.Set("Csrf-Token", session.AntiForgery.CSRFToken)
	h.Set("A-Sess", session.AntiForgery.AppSessionToken)
	h.Set("U-Sess", session.Credentials.UserSessionToken)
	h.Set("Dc-Cid", "m-ios-"+c.newID())
	return h
}

// transactionHeaders returns the headers for the orders service.
func (c *Client) transactionHeaders(session model.AuthenticatedContext) http.Header {
	h := c.gatewayHeaders(session)
	h.Set("Dc-Cid", "t2d--"+c.newID()+"--"+c.newID())
	h.Set("App-Id", "t2d")
	return h
}
