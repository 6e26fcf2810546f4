package randomuser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// ErrUnexpectedStatus is returned for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Config holds the client settings.
type Config struct {
	BaseURL  string
	PageSize int
	Seed     string
	MaxPage  int
	Timeout  time.Duration
	// RPS and Burst pace outbound requests; RPS <= 0 disables pacing.
	RPS   float64
	Burst int
}

// Client fetches pages of users from the randomuser.me API.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.PageFetcher = (*Client)(nil)

// NewClient creates a client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(cfg.Burst, 1))
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: limiter,
		logger:  logger.With("component", "randomuser_client"),
	}
}

type apiResponse struct {
	Results []apiUser `json:"results"`
	Info    struct {
		Seed    string `json:"seed"`
		Results int    `json:"results"`
		Page    int    `json:"page"`
	} `json:"info"`
	Error string `json:"error"`
}

type apiUser struct {
	Login struct {
		UUID string `json:"uuid"`
	} `json:"login"`
	Name struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Location struct {
		Country string `json:"country"`
	} `json:"location"`
	Picture struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"picture"`
}

// FetchPage requests one page and maps the response to domain users.
func (c *Client) FetchPage(ctx context.Context, page int) (*domain.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(page), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding page %d: %w", page, err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("api error: %s", body.Error)
	}

	current := body.Info.Page
	if current == 0 {
		current = page
	}

	users := make([]domain.User, 0, len(body.Results))
	for _, raw := range body.Results {
		if raw.Login.UUID == "" {
			c.logger.Warn("skipping user without login.uuid", "page", current)
			continue
		}
		users = append(users, domain.User{
			ID:        raw.Login.UUID,
			FirstName: raw.Name.First,
			LastName:  raw.Name.Last,
			Country:   raw.Location.Country,
			Thumbnail: raw.Picture.Thumbnail,
		})
	}

	c.logger.Debug("page fetched",
		"page", current,
		"users", len(users),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &domain.Page{
		Users:  users,
		Number: current,
		Next:   domain.NextCursor(current, c.cfg.MaxPage),
	}, nil
}

func (c *Client) pageURL(page int) string {
	q := url.Values{}
	q.Set("results", strconv.Itoa(c.cfg.PageSize))
	q.Set("seed", c.cfg.Seed)
	q.Set("page", strconv.Itoa(page))
	return c.cfg.BaseURL + "?" + q.Encode()
}
