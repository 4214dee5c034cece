package statsapi

import (
	"botdash/config"
	"botdash/internal/dashboard"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const statsPath = "/api/stats"

type StatsApiClient struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
}

func NewStatsApiClient(logger *zap.Logger, cfg *config.Config) *StatsApiClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Stats.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &StatsApiClient{
		logger: logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(cfg.Stats.BaseURL, "/"),
	}
}

// GetStats fetches the bot's summary statistics. Any non-2xx status or a
// body that is not a JSON object is an error.
func (c *StatsApiClient) GetStats(ctx context.Context) (*dashboard.StatsSnapshot, error) {
	var snapshot dashboard.StatsSnapshot
	if err := c.doGet(ctx, c.baseURL+statsPath, &snapshot); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &snapshot, nil
}

func (c *StatsApiClient) doGet(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	c.logger.Debug("stats api response", zap.String("url", url), zap.Int("bytes", len(body)))
	return nil
}
