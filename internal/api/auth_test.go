package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(testSecret, "operator", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "operator" || claims.Issuer != tokenIssuer {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("token id is empty")
	}
}

func TestIssueToken_Validation(t *testing.T) {
	if _, err := IssueToken("", "operator", time.Minute); err == nil {
		t.Error("IssueToken() with empty secret should fail")
	}
	if _, err := IssueToken(testSecret, "", time.Minute); err == nil {
		t.Error("IssueToken() with empty subject should fail")
	}
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := IssueToken(testSecret, "operator", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	other, err := IssueToken("another-secret-key-at-least-32-characters", "operator", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  tokenIssuer,
		Subject: "operator",
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "operator",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", other},
		{"no expiry", noExpiry},
		{"wrong issuer", wrongIssuer},
		{"garbage", "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, testSecret); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, _, ts := testServer(t, withSecret(testSecret))

	valid, err := IssueToken(testSecret, "operator", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"invalid", "bogus", http.StatusUnauthorized},
		{"valid", valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, ts.URL+"/api/v1/status", "", tt.token)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("WWW-Authenticate header missing on 401")
			}
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, _, ts := testServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/v1/status", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", resp.StatusCode)
	}
}

func TestAuthMiddleware_WebSocketQueryToken(t *testing.T) {
	_, _, ts := testServer(t, withSecret(testSecret))
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil {
		t.Fatal("Dial without token should fail")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Dial without token: resp = %v, want 401", resp)
	}

	token, err := IssueToken(testSecret, "panel", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	if err != nil {
		t.Fatalf("Dial with token: %v", err)
	}
	conn.Close()
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		ws     bool
		want   string
	}{
		{"bearer header", "Bearer abc", "", false, "abc"},
		{"lowercase scheme", "bearer abc", "", false, "abc"},
		{"basic scheme", "Basic abc", "", false, ""},
		{"query ignored without upgrade", "", "abc", false, ""},
		{"query on upgrade", "", "abc", true, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "http://example/api/v1/ws"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req, _ := http.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.ws {
				req.Header.Set("Upgrade", "websocket")
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("bearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
