package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhanyyudi/bmkg-alert/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, RateLimit: 6000}, testutil.NewTestLogger())
}

func TestListNowcast(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nowcast" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"code": "W-001", "province": "Jawa Tengah", "detail_url": "/v1/nowcast/W-001"},
				{"code": "W-002", "province": "Jawa Barat", "detail_url": "/v1/nowcast/W-002"}
			],
			"attribution": "BMKG"
		}`))
	})

	items, err := client.ListNowcast(context.Background())
	if err != nil {
		t.Fatalf("ListNowcast: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Code != "W-001" || items[1].Province != "Jawa Barat" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestListNowcastEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	})

	items, err := client.ListNowcast(context.Background())
	if err != nil {
		t.Fatalf("ListNowcast: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}

func TestGetNowcastDetailUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nowcast/W-001" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"data": {
				"province": "Jawa Tengah",
				"warnings": [
					{"event": "Hujan Lebat", "severity": "Moderate", "description": "Hujan di Alian"}
				]
			}
		}`))
	})

	detail, err := client.GetNowcastDetail(context.Background(), "W-001")
	if err != nil {
		t.Fatalf("GetNowcastDetail: %v", err)
	}
	if detail.Province != "Jawa Tengah" {
		t.Errorf("province: got %s", detail.Province)
	}
	if len(detail.Warnings) != 1 || detail.Warnings[0].Event != "Hujan Lebat" {
		t.Errorf("unexpected warnings: %+v", detail.Warnings)
	}
}

func TestGetNowcastDetailEmptyCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	})

	if _, err := client.GetNowcastDetail(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty code")
	}
}

func TestServerErrorSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	if _, err := client.ListNowcast(context.Background()); err == nil {
		t.Fatal("expected error on HTTP 502")
	}
}

func TestSearchWilayahPassthrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wilayah/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Alian" {
			t.Errorf("q = %q, want Alian", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"code": "33.05.01", "name": "Alian", "type": "kecamatan"}]}`))
	})

	result, err := client.SearchWilayah(context.Background(), "Alian")
	if err != nil {
		t.Fatalf("SearchWilayah: %v", err)
	}
	// The body passes through untouched.
	if string(result) != `{"data": [{"code": "33.05.01", "name": "Alian", "type": "kecamatan"}]}` {
		t.Errorf("unexpected passthrough body: %s", result)
	}
}

func TestSearchWilayahEmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	})

	if _, err := client.SearchWilayah(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestListProvincesPassthrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wilayah/provinces" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"data": [{"code": "33", "name": "Jawa Tengah"}]}`))
	})

	result, err := client.ListProvinces(context.Background())
	if err != nil {
		t.Fatalf("ListProvinces: %v", err)
	}
	if string(result) != `{"data": [{"code": "33", "name": "Jawa Tengah"}]}` {
		t.Errorf("unexpected passthrough body: %s", result)
	}
}
