// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"newsdesk/internal/assets"
	"newsdesk/internal/metrics"
	"newsdesk/internal/models"
)

// mediaNamespace holds uploads not tied to a content kind, such as
// images embedded in article bodies.
const mediaNamespace = "media"

// AssetReferrer is a store whose records may point at uploaded assets.
type AssetReferrer interface {
	ReferencesAsset(ctx context.Context, ref string) (bool, error)
}

// Media handles direct asset uploads from the editor.
type Media struct {
	assets    *assets.Manager
	metrics   *metrics.Metrics
	referrers []AssetReferrer
}

// NewMedia creates the media handler group. m may be nil. Delete refuses
// any asset one of referrers still points at.
func NewMedia(manager *assets.Manager, m *metrics.Metrics, referrers ...AssetReferrer) *Media {
	return &Media{assets: manager, metrics: m, referrers: referrers}
}

type uploaded struct {
	URL string `json:"url"`
}

// Upload stores the multipart "file" part under the optional "namespace"
// field (media by default, or a content kind) and returns its reference.
func (m *Media) Upload(w http.ResponseWriter, r *http.Request) {
	fh, namespace, err := m.readUpload(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	up, closeFile, err := openUpload(fh)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer closeFile()

	ref, err := m.assets.Store(r.Context(), *up, namespace)
	if err != nil {
		if errors.Is(err, assets.ErrRejected) {
			m.metrics.Upload("rejected")
		} else {
			m.metrics.Upload("failed")
		}
		fail(w, r, err)
		return
	}
	m.metrics.Upload("stored")
	ok(w, http.StatusCreated, uploaded{URL: ref})
}

// Delete removes an uploaded asset by reference. Shared placeholders and
// foreign URLs are left alone and reported as not deleted. An asset still
// used as a content image or avatar answers 409; its lifecycle belongs to
// that record.
func (m *Media) Delete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	if err := m.checkUnreferenced(r.Context(), body.URL); err != nil {
		fail(w, r, err)
		return
	}
	deleted, err := m.assets.DeleteIfOwned(r.Context(), body.URL)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (m *Media) checkUnreferenced(ctx context.Context, ref string) error {
	for _, rf := range m.referrers {
		used, err := rf.ReferencesAsset(ctx, ref)
		if err != nil {
			return err
		}
		if used {
			return assets.ErrInUse
		}
	}
	return nil
}

func (m *Media) readUpload(r *http.Request) (fh *multipart.FileHeader, namespace string, err error) {
	if !isMultipart(r) {
		return nil, "", badRequest{"Expected a multipart/form-data upload."}
	}
	if err := r.ParseMultipartForm(m.assets.MaxBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", err
		}
		return nil, "", badRequest{"Malformed multipart form."}
	}

	namespace = r.FormValue("namespace")
	switch kind, ok := models.ParseKind(namespace); {
	case namespace == "":
		namespace = mediaNamespace
	case ok:
		namespace = kind.Namespace()
	case namespace != mediaNamespace:
		return nil, "", models.Invalid("namespace", "Namespace must be media or a content kind.")
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return nil, "", models.Invalid("file", "No file provided.")
	}
	return files[0], namespace, nil
}
