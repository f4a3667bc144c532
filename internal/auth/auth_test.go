package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

const testSecret = "0123456789abcdef0123"

func newTestTokens(clock clockwork.Clock) *Tokens {
	return NewTokens(Config{Secret: testSecret, TokenTTL: DefaultTokenTTL, MaxDevices: 3}, clock)
}

func TestTokens_IssueAndParse(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	tokens := newTestTokens(clock)

	raw, expires, err := tokens.Issue("carol", "d1", "")
	if err != nil {
		t.Fatal(err)
	}
	if want := clock.Now().Add(50 * time.Hour); !expires.Equal(want) {
		t.Errorf("expires = %v, want %v", expires, want)
	}

	claims, err := tokens.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Username != "carol" || claims.DeviceID != "d1" || claims.Admin() {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestTokens_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
	tokens := newTestTokens(clock)
	raw, _, err := tokens.Issue("carol", "d1", "")
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(49 * time.Hour)
	if _, err := tokens.Parse(raw); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	clock.Advance(2 * time.Hour)
	if _, err := tokens.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokens_RejectsForeignTokens(t *testing.T) {
	tokens := newTestTokens(nil)

	other := NewTokens(Config{Secret: "another-secret-value"}, nil)
	foreign, _, err := other.Issue("carol", "d1", "")
	if err != nil {
		t.Fatal(err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Username: "carol"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"other secret", foreign, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.Parse(tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing secret")
	}
	cfg.Secret = testSecret
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.MaxDevices = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max devices")
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"abc":         "",
		"":            "",
	}
	for header, want := range tests {
		if got := BearerToken(header); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func newRouter(tokens *Tokens, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Middleware(tokens)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := FromContext(c)
		c.String(http.StatusOK, claims.Username)
	})
	r.GET("/p/:username", handlers...)
	return r
}

func request(t *testing.T, r http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	tokens := newTestTokens(nil)
	user, _, _ := tokens.Issue("bob", "d1", "")
	admin, _, _ := tokens.Issue("alice", "d9", RoleAdmin)

	t.Run("auth only", func(t *testing.T) {
		r := newRouter(tokens)
		if w := request(t, r, "/p/x", ""); w.Code != http.StatusUnauthorized {
			t.Errorf("missing token: status %d", w.Code)
		}
		if w := request(t, r, "/p/x", "bad"); w.Code != http.StatusUnauthorized {
			t.Errorf("bad token: status %d", w.Code)
		}
		w := request(t, r, "/p/x", user)
		if w.Code != http.StatusOK || w.Body.String() != "bob" {
			t.Errorf("valid token: %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("admin", func(t *testing.T) {
		r := newRouter(tokens, RequireAdmin())
		if w := request(t, r, "/p/x", user); w.Code != http.StatusForbidden {
			t.Errorf("user: status %d", w.Code)
		}
		if w := request(t, r, "/p/x", admin); w.Code != http.StatusOK {
			t.Errorf("admin: status %d", w.Code)
		}
	})

	t.Run("owner", func(t *testing.T) {
		r := newRouter(tokens, RequireOwner("username"))
		tests := []struct {
			path  string
			token string
			want  int
		}{
			{"/p/bob", user, http.StatusOK},
			{"/p/BOB", user, http.StatusOK},
			{"/p/carol", user, http.StatusForbidden},
			{"/p/carol", admin, http.StatusOK},
		}
		for _, tt := range tests {
			if w := request(t, r, tt.path, tt.token); w.Code != tt.want {
				t.Errorf("%s: status %d, want %d", tt.path, w.Code, tt.want)
			}
		}
	})
}
