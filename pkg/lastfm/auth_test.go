package lastfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAuthGetToken(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantToken   string
		wantErr     bool
		errContains string
	}{
		{
			name:      "success",
			response:  `<lfm status="ok"><token>test-token-123</token></lfm>`,
			wantToken: "test-token-123",
		},
		{
			name:        "invalid api key",
			response:    `<lfm status="failed"><error code="10">Invalid API key</error></lfm>`,
			wantErr:     true,
			errContains: "error 10",
		},
		{
			name:        "empty token",
			response:    `<lfm status="ok"><token></token></lfm>`,
			wantErr:     true,
			errContains: "empty token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET request, got %s", r.Method)
				}
				q := r.URL.Query()
				if method := q.Get("method"); method != "auth.getToken" {
					t.Errorf("expected method auth.getToken, got %s", method)
				}
				if q.Get("api_key") != "test-api-key" {
					t.Errorf("unexpected api_key %q", q.Get("api_key"))
				}
				if q.Get("api_sig") == "" {
					t.Error("expected api_sig to be present")
				}
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			token, err := client.Auth().GetToken(context.Background())

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error to contain %q, got %v", tt.errContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Token != tt.wantToken {
				t.Errorf("expected token %q, got %q", tt.wantToken, token.Token)
			}
		})
	}
}

func TestAuthURL(t *testing.T) {
	client, err := NewClient(Config{APIKey: "my-api-key", APISecret: "my-secret"})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	got := client.Auth().AuthURL("test-token-123")
	want := "https://www.last.fm/api/auth/?api_key=my-api-key&token=test-token-123"
	if got != want {
		t.Errorf("AuthURL() = %q, want %q", got, want)
	}
}

func TestAuthGetSession(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		wantKey        string
		wantUsername   string
		wantSubscriber bool
		wantErr        bool
		errContains    string
	}{
		{
			name: "success",
			response: `<lfm status="ok"><session>
				<name>testuser</name>
				<key>session-key-abc123</key>
				<subscriber>1</subscriber>
			</session></lfm>`,
			wantKey:        "session-key-abc123",
			wantUsername:   "testuser",
			wantSubscriber: true,
		},
		{
			name: "non-subscriber",
			response: `<lfm status="ok"><session>
				<name>freeuser</name>
				<key>free-session-key</key>
				<subscriber>0</subscriber>
			</session></lfm>`,
			wantKey:      "free-session-key",
			wantUsername: "freeuser",
		},
		{
			name:        "unauthorized token",
			response:    `<lfm status="failed"><error code="14">Unauthorized Token</error></lfm>`,
			wantErr:     true,
			errContains: "error 14",
		},
		{
			name:        "expired token",
			response:    `<lfm status="failed"><error code="15">Token has expired</error></lfm>`,
			wantErr:     true,
			errContains: "error 15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET request, got %s", r.Method)
				}
				q := r.URL.Query()
				if method := q.Get("method"); method != "auth.getSession" {
					t.Errorf("expected method auth.getSession, got %s", method)
				}
				if token := q.Get("token"); token != "the-token" {
					t.Errorf("expected token the-token, got %s", token)
				}
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			session, err := client.Auth().GetSession(context.Background(), "the-token")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error to contain %q, got %v", tt.errContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if session.Key != tt.wantKey {
				t.Errorf("expected key %q, got %q", tt.wantKey, session.Key)
			}
			if session.Username != tt.wantUsername {
				t.Errorf("expected username %q, got %q", tt.wantUsername, session.Username)
			}
			if session.Subscriber != tt.wantSubscriber {
				t.Errorf("expected subscriber %v, got %v", tt.wantSubscriber, session.Subscriber)
			}
		})
	}
}
