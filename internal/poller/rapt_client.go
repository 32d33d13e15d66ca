package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"fermmon/internal/structures"
)

const raptClientID = "rapt-user"

// Telemetry is one RAPT Pill sample.
type Telemetry struct {
	CreatedOn   time.Time `json:"createdOn"`
	Gravity     float64   `json:"gravity"`
	Temperature float64   `json:"temperature"`
	Battery     float64   `json:"battery"`
}

type Hydrometer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Mac      string `json:"mac"`
	IsOnline bool   `json:"isOnline"`
}

type RaptClient struct {
	authURL  string
	apiURL   string
	username string
	secret   string
	client   *http.Client
}

func NewRaptClient(conf structures.PollerConfig) *RaptClient {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RaptClient{
		authURL:  strings.TrimRight(conf.AuthURL, "/"),
		apiURL:   strings.TrimRight(conf.ApiURL, "/"),
		username: conf.Username,
		secret:   conf.Secret,
		client:   &http.Client{Timeout: timeout},
	}
}

// Token performs the OAuth password grant and returns the bearer token.
func (c *RaptClient) Token(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":  {raptClientID},
		"grant_type": {"password"},
		"username":   {c.username},
		"password":   {c.secret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+"/connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("rapt token: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("rapt token: empty access_token")
	}
	return out.AccessToken, nil
}

func (c *RaptClient) Telemetry(ctx context.Context, token, hydrometerID string, start, end time.Time) ([]Telemetry, error) {
	q := url.Values{
		"hydrometerId": {hydrometerID},
		"startDate":    {start.UTC().Format(time.RFC3339)},
		"endDate":      {end.UTC().Format(time.RFC3339)},
	}
	req, err := c.apiRequest(ctx, token, "/api/Hydrometers/GetTelemetry?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var out []Telemetry
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("rapt telemetry: %w", err)
	}
	return out, nil
}

func (c *RaptClient) Hydrometers(ctx context.Context, token string) ([]Hydrometer, error) {
	req, err := c.apiRequest(ctx, token, "/api/Hydrometers/GetHydrometers")
	if err != nil {
		return nil, err
	}

	out := make([]Hydrometer, 0)
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("rapt hydrometers: %w", err)
	}
	return out, nil
}

func (c *RaptClient) apiRequest(ctx context.Context, token, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *RaptClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}
