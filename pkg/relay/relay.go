// Package relay announces consolidated master skills to an external endpoint
// so downstream consumers learn about newly published workflows.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/skills"
)

const (
	defaultAgent    = "clawstr-orchestrator"
	defaultTimeout  = 30 * time.Second
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second
)

// Announcement is the payload published for each consolidated master skill.
type Announcement struct {
	Identifier  string   `json:"identifier"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
	MergedFrom  []string `json:"merged_from,omitempty"`
	Agent       string   `json:"agent"`
}

// Client publishes skill announcements over HTTP with retries.
type Client struct {
	endpoint   string
	agent      string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetry sets the retry attempts and base delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithAgent sets the agent name carried in announcements.
func WithAgent(agent string) Option {
	return func(c *Client) {
		c.agent = agent
	}
}

// New creates a relay client for the given endpoint URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("relay endpoint is required")
	}

	client := &Client{
		endpoint:   endpoint,
		agent:      defaultAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
		attempts:   defaultAttempts,
		delay:      defaultDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Announce publishes a consolidated master skill to the relay endpoint.
func (c *Client) Announce(ctx context.Context, master *skills.MasterRecord, category string) error {
	if category == "" {
		category = master.Category
	}

	announcement := Announcement{
		Identifier:  master.Name,
		Title:       master.Name,
		Description: master.Description,
		Version:     master.Version,
		Category:    category,
		Tags:        master.Tags,
		MergedFrom:  master.MergedFrom,
		Agent:       c.agent,
	}

	body, err := json.Marshal(announcement)
	if err != nil {
		return errors.Wrap(err, "failed to marshal announcement")
	}

	log := logger.G(ctx).WithField("skill", master.Name)

	err = retry.Do(
		func() error {
			return c.post(ctx, body)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.WithField("attempt", n+1).WithError(err).Warn("retrying skill announcement")
		}),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to announce skill %s", master.Name)
	}

	log.Info("announced consolidated skill")
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("relay returned status %d: %s", resp.StatusCode, string(payload))
	}
	return nil
}
