package gemini

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Config for the Gemini client.
type Config struct {
	APIKey         string        // if empty, falls back to env GEMINI_API_KEY
	BaseURL        string        // default https://generativelanguage.googleapis.com/v1beta
	Timeout        time.Duration // http client timeout
	RequestsPerMin int           // rate limit across all calls, 0 disables
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMin)/60.0), cfg.RequestsPerMin)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

// SetAPIKey swaps the key in place; used by the try-commit-or-rollback
// configuration helper together with Probe.
func (c *Client) SetAPIKey(key string) {
	c.cfg.APIKey = key
}

// APIKey returns the key currently in use, so a failed swap can revert it.
func (c *Client) APIKey() string {
	return c.cfg.APIKey
}
