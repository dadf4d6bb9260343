package lastfm

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
)

// AuthService implements the token handshake: GetToken, AuthURL,
// GetSession. The resulting session key never expires on its own; store
// it and reuse it across runs.
type AuthService struct {
	client *Client
}

// GetToken requests an unauthorized token from Last.fm. The user must
// authorize it at AuthURL before it can be exchanged for a session.
func (a *AuthService) GetToken(ctx context.Context) (*Token, error) {
	inner, err := a.client.get(ctx, "auth.getToken", nil, false)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Token string `xml:"token"`
	}
	if err := xml.Unmarshal(wrap(inner), &resp); err != nil {
		return nil, fmt.Errorf("lastfm: parse token response: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("lastfm: empty token in response")
	}
	return &Token{Token: resp.Token}, nil
}

// AuthURL returns the page where the user authorizes the given token.
func (a *AuthService) AuthURL(token string) string {
	q := url.Values{}
	q.Set("api_key", a.client.apiKey)
	q.Set("token", token)
	return DefaultAuthURL + "?" + q.Encode()
}

// GetSession exchanges an authorized token for a session key. Fails
// with error code 14 while the user has not yet authorized the token.
func (a *AuthService) GetSession(ctx context.Context, token string) (*Session, error) {
	params := map[string]string{"token": token}
	inner, err := a.client.get(ctx, "auth.getSession", params, false)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Name       string `xml:"session>name"`
		Key        string `xml:"session>key"`
		Subscriber int    `xml:"session>subscriber"`
	}
	if err := xml.Unmarshal(wrap(inner), &resp); err != nil {
		return nil, fmt.Errorf("lastfm: parse session response: %w", err)
	}
	if resp.Key == "" {
		return nil, fmt.Errorf("lastfm: empty session key in response")
	}

	return &Session{
		Key:        resp.Key,
		Username:   resp.Name,
		Subscriber: resp.Subscriber == 1,
	}, nil
}

// wrap encloses envelope inner XML in a root element so it can be
// unmarshaled into a struct.
func wrap(inner []byte) []byte {
	return append(append([]byte("<root>"), inner...), []byte("</root>")...)
}
