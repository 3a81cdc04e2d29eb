package riot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// Max attempts for a request answered with 429
	maxRateLimitRetries = 3

	// Default Retry-After when the header is missing
	defaultRetryAfter = 10 * time.Second

	// Riot caps match id pages at 100
	MaxMatchIDCount = 100

	// Primary ranked queue tracked in rank snapshots
	SoloQueueType = "RANKED_SOLO_5x5"
)

var (
	ErrNotFound     = errors.New("riot: not found (404)")
	ErrUnauthorized = errors.New("riot: unauthorized (401)")
	ErrForbidden    = errors.New("riot: forbidden (403)")
	ErrRateLimited  = errors.New("riot: rate limited (429)")
	ErrMissingKey   = errors.New("riot: API key not set")
)

// Client is a rate-limited Riot API client. Copies made with WithAPIKey share
// the per-key limiters, so the rate budget follows the credential.
type Client struct {
	apiKey       string
	httpClient   *http.Client
	hostOverride string
	limiters     *limiterSet
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithHostOverride sends every request to the given base URL instead of the
// regional riotgames.com hosts (useful for testing)
func WithHostOverride(baseURL string) ClientOption {
	return func(c *Client) {
		c.hostOverride = baseURL
	}
}

// NewClient creates a new Riot API client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiters: newLimiterSet(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromEnv creates a client using RIOT_API_KEY (or RIOT-DEV-KEY)
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	apiKey := os.Getenv("RIOT_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("RIOT-DEV-KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY or RIOT-DEV-KEY environment variable not set: %w", ErrMissingKey)
	}
	return NewClient(apiKey, opts...), nil
}

// WithAPIKey returns a client that authenticates with key. An empty key
// returns the receiver unchanged.
func (c *Client) WithAPIKey(key string) *Client {
	if key == "" || key == c.apiKey {
		return c
	}
	cp := *c
	cp.apiKey = key
	return &cp
}

// APIKey returns the credential this client sends
func (c *Client) APIKey() string {
	return c.apiKey
}

// MaskedKey returns the key with its middle hidden, for logs
func (c *Client) MaskedKey() string {
	return MaskAPIKey(c.apiKey)
}

// MaskAPIKey masks an API key for display (e.g., "RGAPI-xxxx-xxxx" -> "RGAPI-...xxxx")
func MaskAPIKey(key string) string {
	if len(key) <= 10 {
		return "****"
	}
	return key[:5] + "..." + key[len(key)-4:]
}

func (c *Client) host(region string) string {
	if c.hostOverride != "" {
		return c.hostOverride
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", region)
}

// doRequest makes a rate-limited GET, decodes the body into result and
// returns the raw body
func (c *Client) doRequest(ctx context.Context, reqURL string, result interface{}) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}
	limiter := c.limiters.get(c.apiKey)

	for attempt := 0; ; attempt++ {
		if err := limiter.wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Riot-Token", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			if result != nil {
				if err := json.Unmarshal(body, result); err != nil {
					return nil, fmt.Errorf("failed to decode response: %w", err)
				}
			}
			return body, nil

		case http.StatusTooManyRequests:
			if attempt+1 >= maxRateLimitRetries {
				return nil, ErrRateLimited
			}
			waitTime := defaultRetryAfter
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					waitTime = time.Duration(seconds) * time.Second
				}
			}
			log.Printf("[Riot] 429 Rate Limited, waiting %.0fs...", waitTime.Seconds())
			if err := sleepCtx(ctx, waitTime); err != nil {
				return nil, err
			}

		case http.StatusUnauthorized:
			return nil, fmt.Errorf("API returned 401 - check if your API key is valid: %w", ErrUnauthorized)
		case http.StatusForbidden:
			return nil, fmt.Errorf("API returned 403 Forbidden - check if your API key is valid: %w", ErrForbidden)
		case http.StatusNotFound:
			return nil, fmt.Errorf("API returned 404 Not Found - player/match may not exist: %w", ErrNotFound)
		default:
			return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
		}
	}
}

// GetAccountByRiotID fetches account info by Riot ID (gameName#tagLine)
func (c *Client) GetAccountByRiotID(ctx context.Context, routing, gameName, tagLine string) (*AccountResponse, error) {
	reqURL := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.host(routing), url.PathEscape(gameName), url.PathEscape(tagLine))

	var account AccountResponse
	if _, err := c.doRequest(ctx, reqURL, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// MatchIDQuery selects a page of a player's match ids. Zero StartTime/EndTime
// leave the window open on that side.
type MatchIDQuery struct {
	Start     int
	Count     int
	StartTime int64 // epoch seconds, inclusive
	EndTime   int64 // epoch seconds, inclusive
}

// ListMatchIDs fetches match ids for a player, newest first
func (c *Client) ListMatchIDs(ctx context.Context, routing, puuid string, q MatchIDQuery) ([]string, error) {
	params := url.Values{}
	params.Set("start", strconv.Itoa(max(q.Start, 0)))
	params.Set("count", strconv.Itoa(ClampCount(q.Count)))
	if q.StartTime > 0 {
		params.Set("startTime", strconv.FormatInt(q.StartTime, 10))
	}
	if q.EndTime > 0 {
		params.Set("endTime", strconv.FormatInt(q.EndTime, 10))
	}

	reqURL := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?%s",
		c.host(routing), url.PathEscape(puuid), params.Encode())

	var matchIDs []string
	if _, err := c.doRequest(ctx, reqURL, &matchIDs); err != nil {
		return nil, err
	}
	return matchIDs, nil
}

// ClampCount keeps a page size inside [1, 100]
func ClampCount(count int) int {
	if count < 1 {
		return 1
	}
	if count > MaxMatchIDCount {
		return MaxMatchIDCount
	}
	return count
}

// GetMatch fetches match details. The raw body is returned alongside the
// decoded record so it can be stored verbatim.
func (c *Client) GetMatch(ctx context.Context, routing, matchID string) (*MatchResponse, []byte, error) {
	reqURL := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.host(routing), url.PathEscape(matchID))

	var match MatchResponse
	raw, err := c.doRequest(ctx, reqURL, &match)
	if err != nil {
		return nil, nil, err
	}
	return &match, raw, nil
}

// GetLeagueEntries fetches all ranked entries of a player on a platform
func (c *Client) GetLeagueEntries(ctx context.Context, platform, puuid string) ([]LeagueEntryResponse, error) {
	reqURL := fmt.Sprintf("%s/lol/league/v4/entries/by-puuid/%s", c.host(platform), url.PathEscape(puuid))

	var entries []LeagueEntryResponse
	if _, err := c.doRequest(ctx, reqURL, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetSoloQueueRank returns the player's solo queue entry, or nil when unranked
func (c *Client) GetSoloQueueRank(ctx context.Context, platform, puuid string) (*LeagueEntryResponse, error) {
	entries, err := c.GetLeagueEntries(ctx, platform, puuid)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].QueueType == SoloQueueType {
			return &entries[i], nil
		}
	}
	return nil, nil
}
