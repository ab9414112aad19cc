package client

import (
	"net/http"
)

// TokenStore is the part of Session the transport needs.
type TokenStore interface {
	Token() (string, error)
	ClearToken() error
}

// Navigator moves the user between views.
type Navigator interface {
	Current() string
	Navigate(path string) string
}

// AuthTransport attaches the stored bearer token to outgoing requests.
// A 401 response clears the token and sends the navigator to /login,
// unless it is already there. The response itself is passed through.
type AuthTransport struct {
	Base      http.RoundTripper
	Tokens    TokenStore
	Navigator Navigator
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Tokens.Token()
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err := t.Tokens.ClearToken(); err != nil {
			resp.Body.Close()
			return nil, err
		}
		if t.Navigator != nil && t.Navigator.Current() != LoginPath {
			t.Navigator.Navigate(LoginPath)
		}
	}
	return resp, nil
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
