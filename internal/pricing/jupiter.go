package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

// JupiterClient fetches spot prices from the Jupiter lite price API.
type JupiterClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewJupiterClient(baseURL string) *JupiterClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://lite-api.jup.ag/price/v2"
	}
	return &JupiterClient{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("jupiter http %d", e.StatusCode)
	}
	return fmt.Sprintf("jupiter http %d: %s", e.StatusCode, b)
}

type priceResponse struct {
	Data map[string]struct {
		Price string `json:"price"`
	} `json:"data"`
}

func (c *JupiterClient) Price(ctx context.Context, mint string) (decimal.Decimal, error) {
	if strings.TrimSpace(mint) == "" {
		return decimal.Zero, fmt.Errorf("mint is required")
	}

	q := url.Values{}
	q.Set("ids", mint)
	u := c.BaseURL + "?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, err
	}
	httpReq.Header.Set("accept", "application/json")

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return decimal.Zero, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return decimal.Zero, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	var out priceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode jupiter price response: %w", err)
	}

	entry, ok := out.Data[mint]
	if !ok || entry.Price == "" {
		return decimal.Zero, fmt.Errorf("%w: %s", models.ErrPriceUnavailable, mint)
	}
	price, err := decimal.NewFromString(entry.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price %q for %s: %w", entry.Price, mint, err)
	}
	return price, nil
}
