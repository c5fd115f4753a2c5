package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/tickerboard/internal/market"
	"github.com/five82/tickerboard/internal/settings"
)

// Fetcher defines the REST operations the session depends on.
// It is implemented by *Client and can be faked in tests.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, inst market.Instrument) (market.Snapshot, error)
	FetchUpdate(ctx context.Context) (market.Update, error)
	FetchSettings(ctx context.Context) (settings.Settings, error)
	SaveSettings(ctx context.Context, s settings.Settings) error
}

var (
	_ Fetcher          = (*Client)(nil)
	_ settings.Backend = (*Client)(nil)
)

// Slugs maps instruments to their REST path segment, e.g. "btc" in
// /api/btc-data.
type Slugs struct {
	Primary   string
	Secondary string
}

// DefaultSlugs are the service's stock instrument names.
var DefaultSlugs = Slugs{Primary: "btc", Secondary: "doge"}

func (s Slugs) slug(inst market.Instrument) string {
	switch inst {
	case market.Primary:
		return s.Primary
	case market.Secondary:
		return s.Secondary
	default:
		return ""
	}
}

// Client talks to the monitoring service's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	slugs     Slugs
	keys      settings.WireKeys
}

const (
	defaultAPIBind   = "127.0.0.1:5000"
	defaultUserAgent = "tickerboard/0.1"
	requestTimeout   = 5 * time.Second
	maxBodyBytes     = 4 << 20
)

// NewClient builds a Client using the provided apiBind host:port value.
// Empty slugs fall back to DefaultSlugs.
func NewClient(apiBind string, slugs Slugs) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(slugs.Primary) == "" {
		slugs.Primary = DefaultSlugs.Primary
	}
	if strings.TrimSpace(slugs.Secondary) == "" {
		slugs.Secondary = DefaultSlugs.Secondary
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		slugs:     slugs,
		keys:      settings.KeysFor(slugs.Primary, slugs.Secondary),
	}, nil
}

// BaseURL returns the normalized service address.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// FetchSnapshot retrieves one instrument's snapshot. A reply carrying an
// "error" field is returned as a FetchError.
func (c *Client) FetchSnapshot(ctx context.Context, inst market.Instrument) (market.Snapshot, error) {
	if c == nil {
		return market.Snapshot{}, fmt.Errorf("client is nil")
	}
	slug := c.slugs.slug(inst)
	if slug == "" {
		return market.Snapshot{}, &FetchError{Source: inst.String(), Err: fmt.Errorf("unknown instrument")}
	}
	body, err := c.get(ctx, "/api/"+slug+"-data")
	if err != nil {
		return market.Snapshot{}, &FetchError{Source: inst.String(), Err: err}
	}
	snap, err := market.DecodeSnapshot(inst, body)
	if err != nil {
		return market.Snapshot{}, &FetchError{Source: inst.String(), Err: err}
	}
	if snap.Error != "" {
		return market.Snapshot{}, &FetchError{Source: inst.String(), Err: errors.New(snap.Error)}
	}
	return snap, nil
}

// FetchUpdate retrieves the combined market update used by manual refresh.
func (c *Client) FetchUpdate(ctx context.Context) (market.Update, error) {
	if c == nil {
		return market.Update{}, fmt.Errorf("client is nil")
	}
	body, err := c.get(ctx, "/api/data")
	if err != nil {
		return market.Update{}, &FetchError{Source: "market update", Err: err}
	}
	update, err := market.DecodeUpdate(body)
	if err != nil {
		return market.Update{}, &FetchError{Source: "market update", Err: err}
	}
	if update.Error != "" {
		return market.Update{}, &FetchError{Source: "market update", Err: errors.New(update.Error)}
	}
	return update, nil
}

// FetchSettings retrieves the server-held strategy thresholds.
func (c *Client) FetchSettings(ctx context.Context) (settings.Settings, error) {
	if c == nil {
		return settings.Settings{}, fmt.Errorf("client is nil")
	}
	body, err := c.get(ctx, "/api/settings")
	if err != nil {
		return settings.Settings{}, &FetchError{Source: "settings", Err: err}
	}
	var reply struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &reply); err == nil && reply.Error != "" {
		return settings.Settings{}, &FetchError{Source: "settings", Err: errors.New(reply.Error)}
	}
	payload, err := settings.Decode(body, c.keys)
	if err != nil {
		return settings.Settings{}, &FetchError{Source: "settings", Err: fmt.Errorf("decode response: %w", err)}
	}
	return payload, nil
}

type saveReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SaveSettings submits s. A {"success": false} reply, or an error status
// whose body carries {"error": ...}, becomes a settings.SaveError with the
// server's reason.
func (c *Client) SaveSettings(ctx context.Context, s settings.Settings) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	payload, err := settings.Encode(s, c.keys)
	if err != nil {
		return &settings.SaveError{Err: fmt.Errorf("encode request: %w", err)}
	}
	var reply saveReply
	if err := c.do(ctx, http.MethodPost, "/api/settings", json.RawMessage(payload), &reply); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Message != "" {
			return &settings.SaveError{Reason: statusErr.Message, Err: err}
		}
		return &settings.SaveError{Err: err}
	}
	if !reply.Success {
		reason := strings.TrimSpace(reply.Error)
		if reason == "" {
			reason = "rejected by server"
		}
		return &settings.SaveError{Reason: reason}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &StatusError{Path: rel.String(), Code: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the "error" field from a failed reply, if any.
func errorMessage(body io.Reader) string {
	var reply struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&reply); err != nil {
		return ""
	}
	return strings.TrimSpace(reply.Error)
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
