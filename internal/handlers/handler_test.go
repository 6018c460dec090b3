// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL is unavailable; sessions use the
// in-memory backend so Valkey is not required.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"newsdesk/internal/assets"
	"newsdesk/internal/auth"
	"newsdesk/internal/content"
	"newsdesk/internal/csrf"
	"newsdesk/internal/database"
	"newsdesk/internal/metrics"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/preview"
	"newsdesk/internal/query"
	"newsdesk/internal/session"
	"newsdesk/internal/storage"
	"newsdesk/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "newsdesk")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "newsdesk")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}
	if err := database.Migrate(db, query.Postgres); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB       *sql.DB
	Sessions *session.Memory
	Guard    *csrf.Guard
	Manager  *auth.Manager
	Users    *store.UserStore
	Content  *store.ContentStore
	Metrics  *metrics.Metrics
	Previews *preview.Signer
	Dir      string

	Auth      *Auth
	Admin     *Admin
	Taxonomy  *Taxonomy
	Community *Community
	Media     *Media
	UsersAPI  *Users
	Public    *Public
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	d := query.Postgres

	dir := t.TempDir()
	local, err := storage.NewLocal(dir, "/uploads")
	if err != nil {
		t.Fatalf("storage.NewLocal: %v", err)
	}
	media := assets.NewManager(local, 1<<20, []string{"/static/img/placeholder.jpg"})

	sessions := session.NewMemory()
	guard := csrf.New(sessions)
	users := store.NewUserStore(db, d)
	contents := store.NewContentStore(db, d)
	categories := store.NewCategoryStore(db, d)
	subcategories := store.NewSubcategoryStore(db, d)
	tags := store.NewTagStore(db, d)
	comments := store.NewCommentStore(db, d)
	subscribers := store.NewSubscriberStore(db, d)

	manager := auth.NewManager(users, sessions, media)
	m := metrics.New()
	previews := preview.NewSigner("test-secret", time.Hour)

	contentSvc := content.NewService(contents, categories, tags, media)
	taxonomySvc := content.NewTaxonomyService(categories, subcategories, tags)
	commentSvc := content.NewCommentService(comments, contents)
	subscriberSvc := content.NewSubscriberService(subscribers)

	return &testEnv{
		DB:       db,
		Sessions: sessions,
		Guard:    guard,
		Manager:  manager,
		Users:    users,
		Content:  contents,
		Metrics:  m,
		Previews: previews,
		Dir:      dir,

		Auth:      NewAuth(manager, guard, session.Cookies{}, m),
		Admin:     NewAdmin(contentSvc, previews, 1<<20),
		Taxonomy:  NewTaxonomy(taxonomySvc),
		Community: NewCommunity(commentSvc, subscriberSvc),
		Media:     NewMedia(media, m, contents, users),
		UsersAPI:  NewUsers(manager, 1<<20),
		Public:    NewPublic(contentSvc, taxonomySvc, commentSvc, previews, m),
	}
}

// testUser inserts an identity with the given role and password and
// removes it, and anything it authored, when the test ends.
func (e *testEnv) testUser(t *testing.T, role models.Role, password string) *models.User {
	t.Helper()
	u := &models.User{
		Name:  "Test " + string(role),
		Email: string(role) + "-" + uuid.NewString()[:8] + "@test.local",
		Role:  role,
	}
	id, err := e.Users.Create(context.Background(), u, password)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	u.ID = id
	t.Cleanup(func() {
		e.DB.Exec("DELETE FROM content WHERE author_id = $1", id)
		e.DB.Exec("DELETE FROM users WHERE id = $1", id)
	})
	return u
}

// staff returns session data for a fresh identity of the given role.
func (e *testEnv) staff(t *testing.T, role models.Role) *session.Data {
	t.Helper()
	u := e.testUser(t, role, "correct-horse-battery")
	return &session.Data{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// serve routes a single request through a one-route chi mux so URL
// parameters resolve as they do in production. sess may be nil.
func serve(h http.HandlerFunc, method, pattern string, req *http.Request, sess *session.Data) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), "test-session", sess))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeData unmarshals the success envelope's data into v and returns
// the meta, if any.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) *Meta {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
		Meta *Meta           `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\n%s", err, rec.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("decode data: %v\n%s", err, env.Data)
		}
	}
	return env.Meta
}

// decodeErr returns the error envelope of rec.
func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) ErrorInfo {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v\n%s", err, rec.Body.String())
	}
	return env.Error
}

// pngBytes encodes a tiny valid PNG.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a multipart/form-data request with text fields
// and an optional file part.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, fileField, contentType string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="upload.png"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(file)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// uniqueTitle keeps concurrent test runs from colliding on slugs.
func uniqueTitle(prefix string) string {
	return prefix + " " + uuid.NewString()[:8]
}
