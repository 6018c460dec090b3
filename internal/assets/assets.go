// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package assets validates, stores, replaces and deletes uploaded images.
// A stored asset is addressed by the reference (URL) its backend returns;
// records keep that reference and nothing else.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// DefaultMaxBytes is the upload ceiling when none is configured (5 MB).
	DefaultMaxBytes = 5 << 20

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxImagePixels = 100_000_000
)

// allowedTypes maps accepted MIME types to their file extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var namespacePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ErrRejected is matched by every *RejectedError.
var ErrRejected = errors.New("asset rejected")

// ErrInUse refuses to delete an asset a record still points at.
var ErrInUse = errors.New("asset still referenced")

// RejectedError explains why an upload was refused. The reason is safe to
// show to the uploader.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "asset rejected: " + e.Reason }

// Is makes errors.Is(err, ErrRejected) hold for any RejectedError.
func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

func reject(format string, args ...any) error {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}

// Backend persists blobs by key.
type Backend interface {
	// Put stores data durably under key and returns its public reference.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Key maps a reference back to a key, reporting false for references
	// this backend did not produce.
	Key(ref string) (string, bool)
}

// Upload is one incoming file.
type Upload struct {
	Filename    string
	ContentType string // as declared by the client
	Size        int64  // as declared by the client; -1 when unknown
	Body        io.Reader
}

// Manager owns the lifecycle of uploaded assets.
type Manager struct {
	backend   Backend
	maxBytes  int64
	maxPixels int64
	defaults  map[string]bool
	now       func() time.Time
}

// NewManager creates a manager. References listed in defaults are shared
// placeholders and are never deleted.
func NewManager(backend Backend, maxBytes int64, defaults []string) *Manager {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	m := &Manager{
		backend:   backend,
		maxBytes:  maxBytes,
		maxPixels: maxImagePixels,
		defaults:  make(map[string]bool, len(defaults)),
		now:       time.Now,
	}
	for _, d := range defaults {
		m.defaults[d] = true
	}
	return m
}

// MaxBytes returns the upload ceiling.
func (m *Manager) MaxBytes() int64 { return m.maxBytes }

// Store validates up and persists it under namespace, returning the new
// reference. Rejected uploads never reach the backend.
func (m *Manager) Store(ctx context.Context, up Upload, namespace string) (string, error) {
	if !namespacePattern.MatchString(namespace) {
		return "", fmt.Errorf("invalid asset namespace %q", namespace)
	}
	data, contentType, err := m.validate(up)
	if err != nil {
		return "", err
	}

	now := m.now().UTC()
	key := fmt.Sprintf("%s/%d/%02d/%s%s", namespace, now.Year(), now.Month(), uuid.New(), allowedTypes[contentType])

	ref, err := m.backend.Put(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("store asset: %w", err)
	}
	return ref, nil
}

// Replace stores up, then calls commit with the new reference so the
// caller can point its record at it. If commit fails the new asset is
// removed and oldRef is left untouched. Only after commit succeeds is
// oldRef deleted; a failure there is logged, not returned, because the
// record is already consistent.
func (m *Manager) Replace(ctx context.Context, oldRef string, up Upload, namespace string, commit func(ref string) error) (string, error) {
	ref, err := m.Store(ctx, up, namespace)
	if err != nil {
		return "", err
	}

	if err := commit(ref); err != nil {
		if _, delErr := m.DeleteIfOwned(ctx, ref); delErr != nil {
			slog.Warn("remove uncommitted asset failed", "ref", ref, "error", delErr)
		}
		return "", err
	}

	if oldRef != "" && oldRef != ref {
		if _, err := m.DeleteIfOwned(ctx, oldRef); err != nil {
			slog.Warn("remove replaced asset failed", "ref", oldRef, "error", err)
		}
	}
	return ref, nil
}

// DeleteIfOwned removes the asset behind ref and reports whether it did.
// Empty references, shared defaults and references the backend did not
// produce are skipped.
func (m *Manager) DeleteIfOwned(ctx context.Context, ref string) (bool, error) {
	if ref == "" || m.defaults[ref] {
		return false, nil
	}
	key, ok := m.backend.Key(ref)
	if !ok {
		return false, nil
	}
	if err := m.backend.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	return true, nil
}

// Owns reports whether ref points at a deletable asset of this manager.
func (m *Manager) Owns(ref string) bool {
	if ref == "" || m.defaults[ref] {
		return false
	}
	_, ok := m.backend.Key(ref)
	return ok
}

// validate reads the body within the size ceiling and checks that the
// declared type, the sniffed type and the image header agree.
func (m *Manager) validate(up Upload) ([]byte, string, error) {
	if up.Body == nil {
		return nil, "", reject("no file provided")
	}
	if up.Size > m.maxBytes {
		return nil, "", reject("file is larger than %s", humanSize(m.maxBytes))
	}

	declared, _, err := mime.ParseMediaType(up.ContentType)
	if err != nil {
		return nil, "", reject("missing or malformed content type")
	}
	if _, ok := allowedTypes[declared]; !ok {
		return nil, "", reject("file type %q is not allowed", declared)
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, m.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", reject("file is empty")
	}
	if int64(len(data)) > m.maxBytes {
		return nil, "", reject("file is larger than %s", humanSize(m.maxBytes))
	}

	if sniffed := http.DetectContentType(data); sniffed != declared {
		return nil, "", reject("file content does not match declared type %q", declared)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", reject("file is not a valid image")
	}
	if int64(cfg.Width)*int64(cfg.Height) > m.maxPixels {
		return nil, "", reject("image is too large (%dx%d)", cfg.Width, cfg.Height)
	}
	return data, declared, nil
}

// humanSize formats a byte count for rejection messages.
func humanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
