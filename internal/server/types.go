package server

import "github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// AnalyzeRequest represents a P&L analysis request for one wallet
type AnalyzeRequest struct {
	WalletAddress string                          `json:"wallet_address"` // Wallet to analyze (base58)
	Records       []models.ProviderTransferRecord `json:"records"`        // Raw transfer history
	Persist       bool                            `json:"persist"`        // Also write the report to ClickHouse
}

// AnalyzeResponse wraps the finished report with processing metadata
type AnalyzeResponse struct {
	Report    *models.PortfolioPnLResult `json:"report"`
	Persisted bool                       `json:"persisted"` // Whether the ClickHouse write succeeded
	TookMs    int64                      `json:"took_ms"`   // Analysis time in milliseconds
}

// RecentReportsResponse lists recently analyzed wallets
type RecentReportsResponse struct {
	Wallets []string `json:"wallets"`
}

// AIExplainRequest asks for a plain-language summary of a cached report
type AIExplainRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// AIExplainResponse carries the generated summary
type AIExplainResponse struct {
	WalletAddress string `json:"wallet_address"`
	Explanation   string `json:"explanation"`
	TookMs        int64  `json:"took_ms"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about stored reports
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
