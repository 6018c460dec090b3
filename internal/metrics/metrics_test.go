// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"newsdesk/internal/models"
)

func TestCounters(t *testing.T) {
	m := New()
	m.View(models.KindPost)
	m.View(models.KindPost)
	m.View(models.KindVideo)
	m.Login("success")
	m.Upload("rejected")

	if got := testutil.ToFloat64(m.ContentViews.WithLabelValues("post")); got != 2 {
		t.Errorf("post views = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ContentViews.WithLabelValues("video")); got != 1 {
		t.Errorf("video views = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Logins.WithLabelValues("success")); got != 1 {
		t.Errorf("logins = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.View(models.KindAd)
	m.Login("invalid")
	m.Upload("stored")
}

func TestHandler(t *testing.T) {
	m := New()
	m.View(models.KindOpinion)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, `newsdesk_content_views_total{kind="opinion"} 1`) {
		t.Errorf("metrics output missing view counter:\n%s", body)
	}
}
