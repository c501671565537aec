package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

func TestSnapshot_ParsesQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "TCS.NS" {
			t.Errorf("symbol = %s", got)
		}
		if r.URL.Query().Get("modules") != "" {
			t.Error("shallow snapshot should not request extra modules")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"symbol":     "TCS.NS",
			"name":       "Tata Consultancy Services",
			"price":      3501.25,
			"change_pct": -0.8,
			"currency":   "INR",
		})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL}, zap.NewNop())
	snap, err := c.Snapshot(context.Background(), "TCS.NS", false)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Symbol != "TCS.NS" || snap.Price != 3501.25 || snap.ChangePct != -0.8 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.AsOf.IsZero() {
		t.Error("missing as_of should default to now")
	}
}

func TestSnapshot_DeepRequestsModules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("modules"); got != "fundamentals,technicals" {
			t.Errorf("modules = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"symbol":       "TCS.NS",
			"price":        3500.0,
			"currency":     "INR",
			"fundamentals": map[string]float64{"pe": 28.4},
			"technicals":   map[string]float64{"rsi": 61.2},
		})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL}, zap.NewNop())
	snap, err := c.Snapshot(context.Background(), "TCS.NS", true)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Fundamentals["pe"] != 28.4 || snap.Technicals["rsi"] != 61.2 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSnapshot_UpstreamErrorWrapsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL}, zap.NewNop())
	_, err := c.Snapshot(context.Background(), "TCS.NS", false)
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestSnapshot_EmptySymbolRejected(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"}, zap.NewNop())
	if _, err := c.Snapshot(context.Background(), "", false); err == nil {
		t.Fatal("expected validation error")
	}
}
