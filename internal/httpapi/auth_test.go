package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/goliatone/go-sheet-catalog/internal/legacy"
	"github.com/goliatone/go-sheet-catalog/internal/sessions"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(req{method: http.MethodPost, path: "/auth/login", body: map[string]string{
		"username": "alice", "password": "p1", "deviceId": "a1",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["success"] != true || body["username"] != "alice" || body["role"] != "admin" {
		t.Errorf("body = %v", body)
	}
	claims, err := env.tokens.Parse(body["token"].(string))
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if claims.DeviceID != "a1" || !claims.Admin() {
		t.Errorf("claims = %+v", claims)
	}

	rows := env.backend.Table(sessions.Table)
	last := rows[len(rows)-1]
	if strings.Join(last, "|") != "alice|04/03/2026, 15:06:07|a1|active" {
		t.Errorf("session row = %v", last)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name      string
		body      any
		code      int
		showModal bool
	}{
		{"wrong password", map[string]string{"username": "bob", "password": "nope", "deviceId": "b1"}, http.StatusUnauthorized, false},
		{"missing device", map[string]string{"username": "bob", "password": "p2"}, http.StatusBadRequest, false},
		{"malformed", "{", http.StatusBadRequest, false},
		{"device limit", map[string]string{"username": "carol", "password": "p3", "deviceId": "c4"}, http.StatusForbidden, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(req{method: http.MethodPost, path: "/auth/login", body: tt.body})
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.code, w.Body.String())
			}
			body := decode(t, w)
			if body["success"] != false {
				t.Errorf("success = %v", body["success"])
			}
			if got := body["showModal"] == true; got != tt.showModal {
				t.Errorf("showModal = %v, want %v", body["showModal"], tt.showModal)
			}
			if env.backend.CallCount("Append") != 0 {
				t.Error("failed login wrote a session")
			}
		})
	}
}

func TestLogin_KnownDeviceDoesNotAppend(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(req{method: http.MethodPost, path: "/auth/login", body: map[string]string{
		"username": "carol", "password": "p3", "deviceId": "c2",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if n := env.backend.CallCount("Append"); n != 0 {
		t.Errorf("appends = %d, want 0", n)
	}
	if tipo := decode(t, w)["tipo_usuario"]; tipo != "full" {
		t.Errorf("tipo_usuario = %v, want full default", tipo)
	}
}

func TestValidateSession(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name  string
		token string
		dev   string
		want  bool
	}{
		{"active row", env.token("carol", "c1", ""), "c1", true},
		{"no row", env.token("bob", "new", ""), "new", true},
		{"inactive row", env.token("bob", "old", ""), "old", false},
		{"device from token", env.token("bob", "old", ""), "", false},
		{"bad token", "garbage", "c1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(req{method: http.MethodPost, path: "/auth/validate-session", body: map[string]string{
				"token": tt.token, "deviceId": tt.dev,
			}})
			if w.Code != http.StatusOK {
				t.Fatalf("status %d", w.Code)
			}
			if got := decode(t, w)["valid"]; got != tt.want {
				t.Errorf("valid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	in := map[string]string{"username": "dana", "password": "x", "rango": "oro", "codigo_emprendedora": "E9"}

	w := env.do(req{method: http.MethodPost, path: "/auth/register", body: in})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	rows := env.backend.Table(legacy.TableUsers)
	if last := rows[len(rows)-1]; last[0] != "dana" || last[4] != legacy.DefaultUserType {
		t.Errorf("appended row = %v", last)
	}

	if w := env.do(req{method: http.MethodPost, path: "/auth/register", body: in}); w.Code != http.StatusConflict {
		t.Errorf("duplicate: status %d, want 409", w.Code)
	}

	delete(in, "rango")
	in["username"] = "erin"
	if w := env.do(req{method: http.MethodPost, path: "/auth/register", body: in}); w.Code != http.StatusBadRequest {
		t.Errorf("missing rango: status %d, want 400", w.Code)
	}
}
