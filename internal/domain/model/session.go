package model

// AntiForgeryPair is the short-lived CSRF token and app-session token that
// must accompany every request of one top-level operation.
type AntiForgeryPair struct {
	CSRFToken       string
	AppSessionToken string
}

// AuthenticatedContext is a ready-to-use session: long-lived credentials plus
// the anti-forgery pair established for this process.
type AuthenticatedContext struct {
	Credentials CredentialBundle
	AntiForgery AntiForgeryPair
}
