package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMapsURL(t *testing.T) {
	got := MapsURL("Eiffel Tower", "ChIJLU7jZClu5kcR4PcOOO6p3I0")
	want := "https://www.google.com/maps/search/?api=1&query=Eiffel+Tower&query_place_id=ChIJLU7jZClu5kcR4PcOOO6p3I0"
	if got != want {
		t.Fatalf("MapsURL = %q, want %q", got, want)
	}

	got = MapsURL("", "abc123")
	if got != "https://www.google.com/maps/search/?api=1&query_place_id=abc123" {
		t.Fatalf("fallback MapsURL = %q", got)
	}
}

func TestTextSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/textsearch/"):
			if r.URL.Query().Get("query") != "hotels in Lisbon" {
				t.Errorf("unexpected query: %q", r.URL.Query().Get("query"))
			}
			w.Write([]byte(`{"status":"OK","results":[{"place_id":"p1"},{"place_id":"p2"}]}`))
		case strings.HasPrefix(r.URL.Path, "/details/"):
			id := r.URL.Query().Get("place_id")
			w.Write([]byte(`{"status":"OK","result":{"name":"Hotel ` + id + `","formatted_address":"Rua A 1, Lisbon","rating":4.5,"user_ratings_total":120}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := New("test-key", time.Second)
	client.baseURL = server.URL

	got, err := client.TextSearch(context.Background(), "hotels in Lisbon", 1)
	if err != nil {
		t.Fatalf("TextSearch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected maxResults to cap at 1, got %d", len(got))
	}
	if got[0].Name != "Hotel p1" || got[0].FormattedAddress != "Rua A 1, Lisbon" {
		t.Fatalf("unexpected place: %+v", got[0])
	}
	if !strings.Contains(got[0].MapsURL, "query_place_id=p1") {
		t.Fatalf("maps url missing place id: %q", got[0].MapsURL)
	}
}

func TestTextSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED"}`))
	}))
	defer server.Close()

	client := New("bad-key", time.Second)
	client.baseURL = server.URL
	if _, err := client.TextSearch(context.Background(), "anything", 3); err == nil {
		t.Fatalf("expected error for REQUEST_DENIED")
	}
}

func TestTextSearchZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	client := New("test-key", time.Second)
	client.baseURL = server.URL
	got, err := client.TextSearch(context.Background(), "nowhere", 3)
	if err != nil {
		t.Fatalf("zero results should not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no places, got %d", len(got))
	}
}
