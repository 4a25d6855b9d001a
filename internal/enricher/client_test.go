package enricher_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonesrussell/intent-engine/internal/config"
	"github.com/jonesrussell/intent-engine/internal/domain"
	"github.com/jonesrussell/intent-engine/internal/enricher"
)

func clientFor(serverURL string) *enricher.Client {
	return enricher.NewClient(config.EnrichmentConfig{
		ServiceURL:        serverURL,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 100,
	})
}

func TestClientLookup_Success(t *testing.T) {
	want := domain.EnrichmentBundle{
		SentimentLabel:      domain.SentimentPositive,
		SentimentConfidence: 0.91,
		IntentLabel:         "buying",
		IntentConfidence:    0.77,
		Entities:            []string{"Acme"},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/enrichment/sig-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer server.Close()

	bundle, err := clientFor(server.URL).Lookup(context.Background(), "sig-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle == nil {
		t.Fatal("expected a bundle")
	}
	if bundle.SentimentLabel != want.SentimentLabel || bundle.IntentConfidence != want.IntentConfidence {
		t.Errorf("bundle mismatch: %+v", bundle)
	}
}

func TestClientLookup_NotFoundMeansNoEnrichment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	bundle, err := clientFor(server.URL).Lookup(context.Background(), "sig-1")
	if err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
	if bundle != nil {
		t.Error("404 must yield a nil bundle")
	}
}

func TestClientLookup_ServerErrorWrapsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := clientFor(server.URL).Lookup(context.Background(), "sig-1")
	if !errors.Is(err, domain.ErrEnrichmentUnavailable) {
		t.Errorf("expected ErrEnrichmentUnavailable, got %v", err)
	}
}

func TestClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := clientFor(server.URL).Health(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClientHealth_DownWrapsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := clientFor(server.URL).Health(context.Background())
	if !errors.Is(err, domain.ErrEnrichmentUnavailable) {
		t.Errorf("expected ErrEnrichmentUnavailable, got %v", err)
	}
}

func TestClientLookup_ConnectionRefusedWrapsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := clientFor(server.URL).Lookup(context.Background(), "sig-1")
	if !errors.Is(err, domain.ErrEnrichmentUnavailable) {
		t.Errorf("expected ErrEnrichmentUnavailable, got %v", err)
	}
}
