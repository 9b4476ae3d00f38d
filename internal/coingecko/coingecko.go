package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/newthinker/coinview/internal/core"
	"go.uber.org/zap"
)

const (
	baseURL = "https://api.coingecko.com/api/v3"

	// maxBodySize bounds the payload we are willing to decode.
	maxBodySize = 8 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Lean asks upstream to omit tickers, localization, community and
	// developer data from the payload.
	Lean bool
}

// Client fetches coin payloads from the CoinGecko REST API.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	lean    bool
	logger  *zap.Logger
}

// New creates a new CoinGecko client
func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = baseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		lean:    opts.Lean,
		logger:  logger,
	}
}

func (c *Client) Name() string {
	return "coingecko"
}

// coinURL builds the /coins/{id} URL for the given id.
func (c *Client) coinURL(id string) string {
	u := fmt.Sprintf("%s/coins/%s", c.baseURL, url.PathEscape(id))
	if c.lean {
		q := url.Values{}
		q.Set("localization", "false")
		q.Set("tickers", "false")
		q.Set("community_data", "false")
		q.Set("developer_data", "false")
		u += "?" + q.Encode()
	}
	return u
}

// FetchCoin fetches one coin payload. It returns the decoded payload and the
// raw response body.
func (c *Client) FetchCoin(ctx context.Context, id string) (*core.Coin, []byte, error) {
	if err := core.ValidateCoinID(id); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.coinURL(id), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, nil, core.WrapError(core.ErrFetchTimeout, err)
		}
		return nil, nil, core.WrapError(core.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("coingecko response",
		zap.String("coin", id),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil, core.WrapError(core.ErrCoinNotFound, fmt.Errorf("coin %s", id))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, nil, core.WrapError(core.ErrFetchFailed,
			fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, nil, core.WrapError(core.ErrFetchTimeout, err)
		}
		return nil, nil, core.WrapError(core.ErrFetchFailed, fmt.Errorf("reading body: %w", err))
	}

	coin, err := Decode(body)
	if err != nil {
		return nil, nil, err
	}
	return coin, body, nil
}

// Decode parses a raw /coins/{id} payload. A JSON null body yields a nil coin.
func Decode(body []byte) (*core.Coin, error) {
	var coin *core.Coin
	if err := json.Unmarshal(body, &coin); err != nil {
		return nil, core.WrapError(core.ErrBadPayload, err)
	}
	return coin, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
