package riot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("RGAPI-test-key-0000", WithHostOverride(server.URL))
}

func TestListMatchIDs_QueryParameters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lol/match/v5/matches/by-puuid/puuid-1/ids" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("start") != "20" || q.Get("count") != "100" {
			t.Errorf("Expected start=20 count=100, got start=%s count=%s", q.Get("start"), q.Get("count"))
		}
		if q.Get("startTime") != "1700000000" {
			t.Errorf("Expected startTime=1700000000, got %q", q.Get("startTime"))
		}
		if q.Has("endTime") {
			t.Errorf("endTime should be omitted when zero")
		}
		w.Write([]byte(`["NA1_3","NA1_2","NA1_1"]`))
	})

	ids, err := client.ListMatchIDs(context.Background(), RoutingAmericas, "puuid-1",
		MatchIDQuery{Start: 20, Count: 500, StartTime: 1700000000})
	if err != nil {
		t.Fatalf("ListMatchIDs failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != "NA1_3" {
		t.Errorf("Unexpected ids: %v", ids)
	}
}

func TestGetMatch_ReturnsRawBody(t *testing.T) {
	body := `{"metadata":{"matchId":"NA1_1","dataVersion":"2","participants":["a"]},` +
		`"info":{"gameCreation":1700000000000,"gameDuration":1800,"gameMode":"CLASSIC","queueId":420,` +
		`"participants":[{"puuid":"a","kills":3,"deaths":0,"assists":5,"perks":{"styles":[{"description":"primaryStyle","style":8100},{"description":"subStyle","style":8300}]}}]}}`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	match, raw, err := client.GetMatch(context.Background(), RoutingAmericas, "NA1_1")
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if string(raw) != body {
		t.Error("Raw body should be returned verbatim")
	}
	if match.Info.QueueID != 420 || match.Metadata.DataVersion != "2" {
		t.Errorf("Unexpected decode: %+v", match.Info)
	}
	p := match.Info.Participants[0]
	if p.Perks.PrimaryStyle() != 8100 || p.Perks.SubStyle() != 8300 {
		t.Errorf("Unexpected perk styles: %d/%d", p.Perks.PrimaryStyle(), p.Perks.SubStyle())
	}
}

func TestDoRequest_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, _, err := client.GetMatch(context.Background(), RoutingAmericas, "NA1_1")
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDoRequest_RetriesAfter429(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	})

	ids, err := client.ListMatchIDs(context.Background(), RoutingEurope, "p", MatchIDQuery{Count: 5})
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected empty list, got %v", ids)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", calls.Load())
	}
}

func TestDoRequest_GivesUpAfterRepeated429(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ListMatchIDs(context.Background(), RoutingAsia, "p", MatchIDQuery{Count: 5})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}

func TestGetSoloQueueRank(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lol/league/v4/entries/by-puuid/p1" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`[{"queueType":"RANKED_FLEX_SR","tier":"GOLD","rank":"I"},` +
			`{"queueType":"RANKED_SOLO_5x5","tier":"EMERALD","rank":"IV","leaguePoints":42,"wins":10,"losses":8}]`))
	})

	entry, err := client.GetSoloQueueRank(context.Background(), "na1", "p1")
	if err != nil {
		t.Fatalf("GetSoloQueueRank failed: %v", err)
	}
	if entry == nil || entry.Tier != "EMERALD" || entry.LeaguePoints != 42 {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestWithAPIKey(t *testing.T) {
	var gotKey atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("X-Riot-Token"))
		w.Write([]byte(`[]`))
	})

	other := client.WithAPIKey("RGAPI-other-key-1111")
	if _, err := other.ListMatchIDs(context.Background(), RoutingAmericas, "p", MatchIDQuery{Count: 1}); err != nil {
		t.Fatalf("ListMatchIDs failed: %v", err)
	}
	if gotKey.Load() != "RGAPI-other-key-1111" {
		t.Errorf("Expected override key to be sent, got %v", gotKey.Load())
	}
	if client.WithAPIKey("") != client {
		t.Error("Empty key should return the same client")
	}
	if client.APIKey() != "RGAPI-test-key-0000" {
		t.Error("Original client key must be unchanged")
	}
}

func TestMissingKey(t *testing.T) {
	client := NewClient("")
	_, err := client.ListMatchIDs(context.Background(), RoutingAmericas, "p", MatchIDQuery{Count: 1})
	if !errors.Is(err, ErrMissingKey) {
		t.Errorf("Expected ErrMissingKey, got %v", err)
	}
}

func TestClampCount(t *testing.T) {
	for in, want := range map[int]int{-1: 1, 0: 1, 1: 1, 50: 50, 100: 100, 101: 100} {
		if got := ClampCount(in); got != want {
			t.Errorf("ClampCount(%d) = %d, want %d", in, got, want)
		}
	}
}
