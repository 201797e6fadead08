package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/pnl"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/server"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/storage"
)

const (
	testBaseURL = "http://localhost:8091"
	testAPIKey  = "test-api-key-integration"

	// Wallet used across tests. Any valid base58 public key works here.
	testWallet = "So11111111111111111111111111111111111111112"

	rayMint = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"
)

// setupIntegrationTest starts a full server instance backed by a local
// Redis (DB 2). Tests are skipped when Redis is not reachable.
func setupIntegrationTest(t *testing.T) func() {
	t.Helper()

	rclient := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 2})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rclient.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}
	require.NoError(t, rclient.FlushDB(ctx).Err())

	reports, err := storage.NewRedisReportCache(rclient, time.Hour)
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	cfg := config.Load()
	h := &server.Handlers{
		Analyzer: pnl.NewAnalyzer(cfg),
		Reports:  reports,
		DevMode:  true,
		Logger:   log,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:      ":8091",
			DevMode:   true,
			APIKey:    testAPIKey,
			RateLimit: 100,
		},
	})
	require.NoError(t, err)

	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			t.Errorf("server error: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	return func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = rclient.Close()
	}
}

// makeRequest performs an authenticated HTTP request against the test server
func makeRequest(t *testing.T, method, path string, body any, wantStatus int) []byte {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, testBaseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "unexpected status for %s %s: %s", method, path, raw)
	return raw
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// sampleRecords builds a USDC->RAY buy followed by a partial RAY->USDC sell:
// buy 50 RAY for $100 ($2 each), later sell 25 RAY for $100 ($4 each).
func sampleRecords() []models.ProviderTransferRecord {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return []models.ProviderTransferRecord{
		{
			TokenAddress:    constants.USDCMint,
			TokenSymbol:     "USDC",
			Decimals:        6,
			Quantity:        decimal.RequireFromString("100"),
			USDPricePerUnit: price("1"),
			Direction:       models.DirectionOut,
			TransactionID:   "sig-buy",
			TradeActID:      "trade-1",
			Timestamp:       base,
		},
		{
			TokenAddress:  rayMint,
			TokenSymbol:   "RAY",
			Decimals:      6,
			Quantity:      decimal.RequireFromString("50"),
			Direction:     models.DirectionIn,
			TransactionID: "sig-buy",
			TradeActID:    "trade-1",
			Timestamp:     base,
		},
		{
			TokenAddress:  rayMint,
			TokenSymbol:   "RAY",
			Decimals:      6,
			Quantity:      decimal.RequireFromString("25"),
			Direction:     models.DirectionOut,
			TransactionID: "sig-sell",
			TradeActID:    "trade-2",
			Timestamp:     base.Add(2 * time.Hour),
		},
		{
			TokenAddress:    constants.USDCMint,
			TokenSymbol:     "USDC",
			Decimals:        6,
			Quantity:        decimal.RequireFromString("100"),
			USDPricePerUnit: price("1"),
			Direction:       models.DirectionIn,
			TransactionID:   "sig-sell",
			TradeActID:      "trade-2",
			Timestamp:       base.Add(2 * time.Hour),
		},
	}
}

func TestIntegration_Health(t *testing.T) {
	cleanup := setupIntegrationTest(t)
	defer cleanup()

	raw := makeRequest(t, http.MethodGet, "/v1/health", nil, http.StatusOK)

	var health server.HealthResponse
	require.NoError(t, json.Unmarshal(raw, &health))
	assert.True(t, health.OK)
}

func TestIntegration_AnalyzePnL(t *testing.T) {
	cleanup := setupIntegrationTest(t)
	defer cleanup()

	raw := makeRequest(t, http.MethodPost, "/v1/pnl", server.AnalyzeRequest{
		WalletAddress: testWallet,
		Records:       sampleRecords(),
	}, http.StatusOK)

	var resp server.AnalyzeResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotNil(t, resp.Report)
	assert.False(t, resp.Persisted)

	report := resp.Report
	assert.Equal(t, testWallet, report.WalletAddress)
	// 25 RAY sold at $4 against a $2 cost basis: $50 realized.
	// 25 RAY held, valued at the last observed $4: $50 unrealized.
	assert.True(t, decimal.RequireFromString("50").Equal(report.RealizedPnLUSD), "realized: %s", report.RealizedPnLUSD)
	assert.True(t, decimal.RequireFromString("50").Equal(report.UnrealizedPnLUSD), "unrealized: %s", report.UnrealizedPnLUSD)
	assert.True(t, decimal.RequireFromString("100").Equal(report.TotalPnLUSD), "total: %s", report.TotalPnLUSD)
	assert.Equal(t, uint32(1), report.TotalTrades)
	assert.Empty(t, report.FailedTokens)

	// The report must now be retrievable from the cache.
	raw = makeRequest(t, http.MethodGet, "/v1/reports/"+testWallet, nil, http.StatusOK)
	var cached models.PortfolioPnLResult
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, testWallet, cached.WalletAddress)
	assert.True(t, report.TotalPnLUSD.Equal(cached.TotalPnLUSD))
}

func TestIntegration_RecentReports(t *testing.T) {
	cleanup := setupIntegrationTest(t)
	defer cleanup()

	makeRequest(t, http.MethodPost, "/v1/pnl", server.AnalyzeRequest{
		WalletAddress: testWallet,
		Records:       sampleRecords(),
	}, http.StatusOK)

	raw := makeRequest(t, http.MethodGet, "/v1/reports/recent", nil, http.StatusOK)
	var recent server.RecentReportsResponse
	require.NoError(t, json.Unmarshal(raw, &recent))
	assert.Contains(t, recent.Wallets, testWallet)

	// Re-analyzing the same wallet must not duplicate it in the list.
	makeRequest(t, http.MethodPost, "/v1/pnl", server.AnalyzeRequest{
		WalletAddress: testWallet,
		Records:       sampleRecords(),
	}, http.StatusOK)

	raw = makeRequest(t, http.MethodGet, "/v1/reports/recent", nil, http.StatusOK)
	require.NoError(t, json.Unmarshal(raw, &recent))
	count := 0
	for _, w := range recent.Wallets {
		if w == testWallet {
			count++
		}
	}
	assert.Equal(t, 1, count)

	makeRequest(t, http.MethodGet, "/v1/reports/recent?limit=0", nil, http.StatusBadRequest)
	makeRequest(t, http.MethodGet, "/v1/reports/recent?limit=abc", nil, http.StatusBadRequest)
}

func TestIntegration_ReportNotFound(t *testing.T) {
	cleanup := setupIntegrationTest(t)
	defer cleanup()

	raw := makeRequest(t, http.MethodGet, "/v1/reports/"+testWallet, nil, http.StatusNotFound)

	var errResp server.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errResp))
	assert.Equal(t, "report not found", errResp.Error)
	assert.Equal(t, http.StatusNotFound, errResp.Code)
}

func TestIntegration_AnalyzeValidation(t *testing.T) {
	cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Missing wallet address
	makeRequest(t, http.MethodPost, "/v1/pnl", server.AnalyzeRequest{
		Records: sampleRecords(),
	}, http.StatusBadRequest)

	// Missing records
	makeRequest(t, http.MethodPost, "/v1/pnl", server.AnalyzeRequest{
		WalletAddress: testWallet,
	}, http.StatusBadRequest)

	// Malformed wallet address
	makeRequest(t, http.MethodPost, "/v1/pnl", server.AnalyzeRequest{
		WalletAddress: "not-a-wallet",
		Records:       sampleRecords(),
	}, http.StatusBadRequest)

	// Invalid wallet lookup path parameter
	makeRequest(t, http.MethodGet, "/v1/reports/not-a-wallet", nil, http.StatusBadRequest)
}

func TestIntegration_Authentication(t *testing.T) {
	cleanup := setupIntegrationTest(t)
	defer cleanup()

	// No API key
	req, err := http.NewRequest(http.MethodGet, testBaseURL+"/v1/health", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong API key
	req, err = http.NewRequest(http.MethodGet, testBaseURL+"/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "wrong-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_ErrorHandling(t *testing.T) {
	cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Unknown route returns a JSON 404
	raw := makeRequest(t, http.MethodGet, "/v1/nonexistent", nil, http.StatusNotFound)
	var errResp server.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &errResp))
	assert.Equal(t, http.StatusNotFound, errResp.Code)

	// Malformed JSON body
	req, err := http.NewRequest(http.MethodPost, testBaseURL+"/v1/pnl", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// AI endpoints report unavailability when no agent is configured
	makeRequest(t, http.MethodPost, "/v1/ai/explain", server.AIExplainRequest{
		WalletAddress: testWallet,
	}, http.StatusBadRequest)
}

func TestIntegration_ConcurrentRequests(t *testing.T) {
	cleanup := setupIntegrationTest(t)
	defer cleanup()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodGet, testBaseURL+"/v1/health", nil)
			if err != nil {
				errs <- err
				return
			}
			req.Header.Set("X-API-Key", testAPIKey)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				errs <- err
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent request failed: %v", err)
	}
}
