// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"newsdesk/internal/models"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func staffData() *Data {
	return &Data{
		UserID: uuid.New(),
		Email:  "editor@example.com",
		Name:   "Editor",
		Role:   models.RoleEditor,
	}
}

// backends runs fn against the in-memory backend and, when reachable, Valkey.
func backends(t *testing.T, fn func(t *testing.T, b Backend)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("valkey", func(t *testing.T) { fn(t, NewStore(testValkeyClient(t), time.Minute)) })
}

func TestCreateAndGet(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		data := staffData()

		id, err := b.Create(ctx, data)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if len(id) != idLength*2 {
			t.Errorf("id length = %d, want %d", len(id), idLength*2)
		}

		got, err := b.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.UserID != data.UserID || got.Role != models.RoleEditor || got.Email != data.Email {
			t.Errorf("got %+v, want %+v", got, data)
		}
		if got.CreatedAt.IsZero() {
			t.Error("CreatedAt not set")
		}
		if !got.Authenticated() {
			t.Error("expected authenticated session")
		}
	})
}

func TestGet_Unknown(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		for _, id := range []string{"", "does-not-exist"} {
			if _, err := b.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(%q) error = %v, want ErrNotFound", id, err)
			}
		}
	})
}

func TestSave(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		id, err := b.Create(ctx, &Data{})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		if err := b.Save(ctx, id, &Data{CSRFToken: "tok"}); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, _ := b.Get(ctx, id)
		if got.CSRFToken != "tok" {
			t.Errorf("CSRFToken = %q, want tok", got.CSRFToken)
		}

		if err := b.Save(ctx, "missing", &Data{}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Save(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func TestRegenerate(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		oldID, err := b.Create(ctx, &Data{CSRFToken: "anon"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		newID, err := b.Regenerate(ctx, oldID, staffData())
		if err != nil {
			t.Fatalf("Regenerate: %v", err)
		}
		if newID == oldID {
			t.Fatal("Regenerate must issue a new id")
		}
		if _, err := b.Get(ctx, oldID); !errors.Is(err, ErrNotFound) {
			t.Errorf("old id still valid: %v", err)
		}
		got, err := b.Get(ctx, newID)
		if err != nil {
			t.Fatalf("Get(new): %v", err)
		}
		if !got.Authenticated() || got.CSRFToken != "" {
			t.Errorf("new session = %+v", got)
		}
	})
}

func TestDestroy(t *testing.T) {
	backends(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		id, _ := b.Create(ctx, staffData())

		if err := b.Destroy(ctx, id); err != nil {
			t.Fatalf("Destroy: %v", err)
		}
		if _, err := b.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get after Destroy: %v", err)
		}
		if err := b.Destroy(ctx, id); err != nil {
			t.Errorf("second Destroy: %v", err)
		}
	})
}

func TestStore_TTL(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, time.Minute)
	ctx := context.Background()

	id, err := store.Create(ctx, staffData())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ttl := client.TTL(ctx, keyPrefix+id).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}

	if err := store.Save(ctx, id, staffData()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := client.TTL(ctx, keyPrefix+id).Val(); ttl <= 0 {
		t.Errorf("Save dropped the TTL: %v", ttl)
	}
}

func TestNewStore_DefaultTTL(t *testing.T) {
	if s := NewStore(nil, 0); s.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", s.ttl, DefaultTTL)
	}
}

func TestAuthenticated_Anonymous(t *testing.T) {
	var nilData *Data
	if nilData.Authenticated() {
		t.Error("nil data must not be authenticated")
	}
	if (&Data{CSRFToken: "x"}).Authenticated() {
		t.Error("anonymous data must not be authenticated")
	}
}

func TestCookies(t *testing.T) {
	c := Cookies{Secure: true, TTL: time.Hour}

	w := httptest.NewRecorder()
	c.Set(w, "abc")
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != CookieName || ck.Value != "abc" || !ck.HttpOnly || !ck.Secure || ck.MaxAge != 3600 {
		t.Errorf("cookie = %+v", ck)
	}
	if ck.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", ck.SameSite)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := c.ID(r); got != "" {
		t.Errorf("ID without cookie = %q", got)
	}
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "abc"})
	if got := c.ID(r); got != "abc" {
		t.Errorf("ID = %q, want abc", got)
	}

	w = httptest.NewRecorder()
	c.Clear(w)
	if ck := w.Result().Cookies()[0]; ck.MaxAge >= 0 || ck.Value != "" {
		t.Errorf("cleared cookie = %+v", ck)
	}
}
