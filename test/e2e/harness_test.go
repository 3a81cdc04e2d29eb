//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"matchsync/internal/api"
	"matchsync/internal/collector"
	"matchsync/internal/db"
	"matchsync/internal/history"
	"matchsync/internal/notify"
	"matchsync/internal/ranks"
	"matchsync/internal/riot"

	json "github.com/goccy/go-json"
)

const playerPUUID = "e2e-player"

// fakeRiot serves the match-v5, league-v4, account-v1 and status endpoints
// from an in-memory history
type fakeRiot struct {
	mu        sync.Mutex
	validKeys map[string]bool
	matches   []*riot.MatchResponse // newest first
	byID      map[string]*riot.MatchResponse

	fetchDelay time.Duration
	onFetch    func(n int64) // called after each served match fetch

	listCalls  atomic.Int64
	fetchCalls atomic.Int64
	rankCalls  atomic.Int64
}

func newFakeRiot(t *testing.T, keys ...string) (*fakeRiot, *httptest.Server) {
	t.Helper()
	f := &fakeRiot{validKeys: map[string]bool{}, byID: map[string]*riot.MatchResponse{}}
	for _, k := range keys {
		f.validKeys[k] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/lol/match/v5/matches/", f.handleMatches)
	mux.HandleFunc("/lol/league/v4/entries/by-puuid/", f.handleLeague)
	mux.HandleFunc("/lol/status/v4/platform-data", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "NA1"})
	})
	mux.HandleFunc("/riot/account/v1/accounts/by-riot-id/", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(riot.AccountResponse{PUUID: playerPUUID, GameName: "E2E", TagLine: "NA1"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeRiot) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validKeys[r.Header.Get("X-Riot-Token")]
}

func (f *fakeRiot) revoke(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.validKeys, key)
}

// addHistory appends n matches, each spacing older than the last
func (f *fakeRiot) addHistory(n int, newest time.Time, spacing time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("NA1_%d", 1000+len(f.matches))
		m := newMatch(id, newest.Add(-time.Duration(i)*spacing), len(f.matches)%2 == 0)
		f.matches = append(f.matches, m)
		f.byID[id] = m
	}
}

// addNewest prepends a match created at created
func (f *fakeRiot) addNewest(id string, created time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := newMatch(id, created, true)
	f.matches = append([]*riot.MatchResponse{m}, f.matches...)
	f.byID[id] = m
}

func (f *fakeRiot) handleMatches(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/lol/match/v5/matches/")
	if strings.HasPrefix(rest, "by-puuid/") {
		f.listCalls.Add(1)
		json.NewEncoder(w).Encode(f.list(r))
		return
	}

	if f.fetchDelay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(f.fetchDelay):
		}
	}

	f.mu.Lock()
	m, ok := f.byID[rest]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(m)

	n := f.fetchCalls.Add(1)
	if f.onFetch != nil {
		f.onFetch(n)
	}
}

func (f *fakeRiot) list(r *http.Request) []string {
	q := r.URL.Query()
	start, _ := strconv.Atoi(q.Get("start"))
	count, _ := strconv.Atoi(q.Get("count"))
	startTime, _ := strconv.ParseInt(q.Get("startTime"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()

	var window []string
	for _, m := range f.matches {
		if startTime > 0 && m.Info.GameCreation/1000 < startTime {
			continue
		}
		window = append(window, m.Metadata.MatchID)
	}

	ids := []string{}
	for i := start; i < len(window) && len(ids) < count; i++ {
		ids = append(ids, window[i])
	}
	return ids
}

func (f *fakeRiot) handleLeague(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.rankCalls.Add(1)
	puuid := strings.TrimPrefix(r.URL.Path, "/lol/league/v4/entries/by-puuid/")
	json.NewEncoder(w).Encode([]riot.LeagueEntryResponse{
		{PUUID: puuid, QueueType: "RANKED_FLEX_SR", Tier: "SILVER", Rank: "I", LeaguePoints: 10},
		{PUUID: puuid, QueueType: "RANKED_SOLO_5x5", Tier: "GOLD", Rank: "II", LeaguePoints: 55, Wins: 30, Losses: 28},
	})
}

// newMatch builds a ranked solo match with the same ten players every time
func newMatch(id string, created time.Time, playerWins bool) *riot.MatchResponse {
	m := &riot.MatchResponse{
		Metadata: riot.MatchMetadata{MatchID: id, DataVersion: "2"},
		Info: riot.MatchInfo{
			GameCreation: created.UnixMilli(),
			GameDuration: 1800,
			GameMode:     "CLASSIC",
			QueueID:      420,
		},
	}
	for i := 0; i < 10; i++ {
		puuid := fmt.Sprintf("e2e-other-%d", i)
		if i == 0 {
			puuid = playerPUUID
		}
		win := playerWins
		if i >= 5 {
			win = !playerWins
		}
		m.Info.Participants = append(m.Info.Participants, riot.MatchParticipant{
			PUUID:                       puuid,
			ChampionID:                  i + 1,
			TeamID:                      100 + 100*(i/5),
			Win:                         win,
			Kills:                       4,
			Deaths:                      2,
			Assists:                     6,
			TotalDamageDealtToChampions: 18000,
			GoldEarned:                  12000,
		})
	}
	return m
}

// webhookRecorder counts Discord webhook posts
type webhookRecorder struct {
	mu       sync.Mutex
	payloads []notify.WebhookPayload
}

func newWebhookRecorder(t *testing.T) (*webhookRecorder, *httptest.Server) {
	t.Helper()
	rec := &webhookRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p notify.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.payloads = append(rec.payloads, p)
		rec.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	return rec, server
}

func (w *webhookRecorder) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.payloads)
}

// stack is the server wiring of cmd/server against fakes
type stack struct {
	handler http.Handler
	store   *db.SQLStore
	locks   *collector.PlayerLocks
}

type stackOptions struct {
	riotURL    string
	apiKey     string
	webhookURL string
	sync       collector.Config
}

func newStack(t *testing.T, opts stackOptions) *stack {
	t.Helper()
	ctx := context.Background()

	store, err := db.OpenSQL(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "e2e.db"), "")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	client := riot.NewClient(opts.apiKey, riot.WithHostOverride(opts.riotURL))

	known := collector.NewKnownMatches(store, 1000)
	if _, err := known.Warm(ctx); err != nil {
		t.Fatalf("Failed to warm filter: %v", err)
	}

	syncOpts := []collector.Option{
		collector.WithKnownMatches(known),
		collector.WithResolver(ranks.NewResolver(client, ranks.NewMemoryCache(), time.Minute)),
	}
	if opts.webhookURL != "" {
		syncOpts = append(syncOpts, collector.WithNotifier(notify.NewWebhookClient(opts.webhookURL).Notify))
	}

	locks := collector.NewPlayerLocks()
	srv := api.New(api.Options{
		Syncer:   collector.NewSyncer(collector.ClientRemote(client), store, opts.sync, syncOpts...),
		Reader:   history.NewReader(store),
		Accounts: client,
		Counts:   store,
		Locks:    locks,
	})
	return &stack{handler: srv.Handler(), store: store, locks: locks}
}

// postSync calls the sync endpoint over real HTTP
func postSync(t *testing.T, baseURL, query, key string) (int, collector.SyncResult) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/players/"+playerPUUID+"/sync?"+query, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if key != "" {
		req.Header.Set("X-Riot-Token", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Sync request failed: %v", err)
	}
	defer resp.Body.Close()

	var res collector.SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("Invalid sync response: %v", err)
	}
	return resp.StatusCode, res
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("GET %s: invalid JSON: %v", url, err)
		}
	}
	return resp.StatusCode
}

// assertCompleteMatches checks that every stored match has all ten participants
func assertCompleteMatches(t *testing.T, store *db.SQLStore) int {
	t.Helper()
	ctx := context.Background()

	var ids []string
	if err := store.EachMatchID(ctx, func(id string) { ids = append(ids, id) }); err != nil {
		t.Fatalf("EachMatchID failed: %v", err)
	}
	for _, id := range ids {
		detail, err := store.GetMatchDetail(ctx, id)
		if err != nil {
			t.Fatalf("GetMatchDetail(%s) failed: %v", id, err)
		}
		if len(detail.Participants) != 10 {
			t.Errorf("Match %s stored with %d participants", id, len(detail.Participants))
		}
	}
	return len(ids)
}
