package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewManager("test-secret", time.Hour, "Admin@UNK.com.br", string(hash), false)
}

func TestManager_Login(t *testing.T) {
	m := newTestManager(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid", "admin@unk.com.br", "s3cret", false},
		{"email case insensitive", " ADMIN@unk.com.br ", "s3cret", false},
		{"wrong password", "admin@unk.com.br", "nope", true},
		{"wrong email", "other@unk.com.br", "s3cret", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := m.Login(tt.email, tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("err = %v, want ErrInvalidCredentials", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			claims, err := m.Validate(token)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if claims.Email != "admin@unk.com.br" {
				t.Errorf("Email = %q", claims.Email)
			}
		})
	}
}

func TestManager_ValidateRejects(t *testing.T) {
	m := newTestManager(t)
	token, _, err := m.Issue("admin@unk.com.br")
	if err != nil {
		t.Fatal(err)
	}

	other := NewManager("other-secret", time.Hour, "", "", false)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("foreign secret err = %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := m.Validate(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expired err = %v", err)
	}

	if _, err := m.Validate("garbage"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("garbage err = %v", err)
	}
}

func TestManager_NoAdminConfigured(t *testing.T) {
	m := NewManager("secret", time.Hour, "", "", false)
	if _, _, err := m.Login("", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v", err)
	}
}

func TestManager_Middleware(t *testing.T) {
	m := newTestManager(t)
	token, expires, _ := m.Issue("admin@unk.com.br")

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := FromContext(r.Context()); ok {
			seen = c.Email
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("no credentials", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("cookie", func(t *testing.T) {
		set := httptest.NewRecorder()
		m.SetCookie(set, token, expires)
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		for _, c := range set.Result().Cookies() {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent || seen != "admin@unk.com.br" {
			t.Errorf("status = %d, claims email = %q", rec.Code, seen)
		}
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("preflight passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/events", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
