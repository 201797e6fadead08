package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/ai"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/pnl"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/storage"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Analyzer     *pnl.Analyzer       // P&L analysis pipeline
	Reports      storage.ReportCache // Redis-backed report cache
	Store        storage.ReportStore // ClickHouse report persistence (optional)
	AI           *ai.Agent           // AI agent for explanations and queries (optional)
	AIBaseConfig ai.AgentConfig      // Base configuration for AI agents
	DevMode      bool                // Enable detailed error responses in development
	Logger       *logrus.Logger      // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// AnalyzePnL runs the full analysis pipeline over a wallet's transfer
// history and returns the portfolio report. The report is cached; with
// persist=true it is also written to ClickHouse.
func (h *Handlers) AnalyzePnL(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if req.WalletAddress == "" {
		return h.err(c, http.StatusBadRequest, "wallet_address is required", map[string]any{"wallet_address": "required"})
	}
	if len(req.Records) == 0 {
		return h.err(c, http.StatusBadRequest, "records are required", map[string]any{"records": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	start := time.Now()
	report, err := h.Analyzer.Analyze(ctx, req.WalletAddress, req.Records)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidAddress):
			return h.err(c, http.StatusBadRequest, "invalid wallet address", map[string]any{"err": err.Error()})
		case errors.Is(err, models.ErrNoEvents):
			return h.err(c, http.StatusUnprocessableEntity, "no analyzable events in records", nil)
		default:
			h.Logger.WithError(err).Error("analysis failed")
			return h.err(c, http.StatusInternalServerError, "analysis failed", map[string]any{"err": err.Error()})
		}
	}

	if err := h.Reports.SaveReport(ctx, report); err != nil {
		h.Logger.WithError(err).Warn("failed to cache report")
	}

	persisted := false
	if req.Persist && h.Store != nil {
		if err := h.Store.InsertReport(ctx, report); err != nil {
			h.Logger.WithError(err).Warn("failed to persist report")
		} else {
			persisted = true
		}
	}

	return c.JSON(http.StatusOK, AnalyzeResponse{
		Report:    report,
		Persisted: persisted,
		TookMs:    time.Since(start).Milliseconds(),
	})
}

// GetReport returns the cached report for a wallet
// Returns 404 if the wallet has not been analyzed recently
func (h *Handlers) GetReport(c echo.Context) error {
	wallet := strings.TrimSpace(c.Param("wallet"))
	if err := models.ValidateWalletAddress(wallet); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid wallet address", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	report, err := h.Reports.GetReport(ctx, wallet)
	if err != nil {
		if errors.Is(err, storage.ErrReportNotFound) {
			return h.err(c, http.StatusNotFound, "report not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get report", nil)
	}
	return c.JSON(http.StatusOK, report)
}

// RecentReports lists recently analyzed wallets with optional limit parameter
// Accepts limit query parameter (default: 100, range: 1-100)
func (h *Handlers) RecentReports(c echo.Context) error {
	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 100 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	wallets, err := h.Reports.RecentWallets(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list recent reports", nil)
	}
	return c.JSON(http.StatusOK, RecentReportsResponse{Wallets: wallets})
}

// AIExplain generates a plain-language summary of a wallet's cached report
func (h *Handlers) AIExplain(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIExplainRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if err := models.ValidateWalletAddress(req.WalletAddress); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid wallet address", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	report, err := h.Reports.GetReport(ctx, req.WalletAddress)
	if err != nil {
		if errors.Is(err, storage.ErrReportNotFound) {
			return h.err(c, http.StatusNotFound, "report not found, analyze the wallet first", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get report", nil)
	}

	start := time.Now()
	explanation, err := h.AI.Explain(ctx, report)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai explain failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIExplainResponse{
		WalletAddress: req.WalletAddress,
		Explanation:   explanation,
		TookMs:        time.Since(start).Milliseconds(),
	})
}

// AIAsk processes natural language questions about stored reports using AI
// Supports optional model override for one-off requests
// Returns SQL query and answer with execution time
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	// Use default AI agent or create temporary one with custom model
	agent := h.AI
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		tmp, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		defer func() {
			_ = tmp.Close()
		}()
		agent = tmp
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
