package constants

// Redis keys
const (
	RedisKeyRecentReports = "pnl:reports:recent"
	RedisKeyReportPrefix  = "pnl:report:"
	RedisKeyPricePrefix   = "price:"
)

// Limits
const (
	MaxRecentReports = 100
)

// Well-known mint addresses
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	// The system program address stands in for native SOL in provider data.
	NativeSOLMint = "11111111111111111111111111111111"
	USDCMint      = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint      = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	// Pyth-bridged USDC occasionally shows up in provider data.
	USDCetMint     = "A9mUU4qviSctJVPJdBJWkb28deg915LYJKrzQ19ji3FM"
	USDCNativeMint = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
	MSOLMint       = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
	StSOLMint      = "7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj"
	JitoSOLMint    = "J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn"
)

// USDStableAssets are the USD-pegged tokens. Only these may fall back to a
// 1:1 quantity-as-dollars valuation when the provider ships no price.
var USDStableAssets = map[string]string{
	USDCMint:       "USDC",
	USDTMint:       "USDT",
	USDCetMint:     "USDCet",
	USDCNativeMint: "USDC",
	"9vMJfxuKxXBoEa7rM12mYLMwTacLMLDJqHozw96WQL8i": "UST",
	"DvTdB7nVZqHmLDyzsvmvUUribQo6RJtFtDTwVEVQnHGR": "PAI",
}

// ReferenceAssets are the quote currencies trades are routed through: the
// USD stables plus native/wrapped SOL and the liquid staking tokens that
// trade interchangeably with it. A trade against any of these is priced
// from the reference leg.
var ReferenceAssets = map[string]string{
	WrappedSOLMint: "SOL",
	NativeSOLMint:  "SOL",
	MSOLMint:       "mSOL",
	StSOLMint:      "stSOL",
	JitoSOLMint:    "jitoSOL",
	USDCMint:       "USDC",
	USDTMint:       "USDT",
	USDCetMint:     "USDCet",
	USDCNativeMint: "USDC",
	"9vMJfxuKxXBoEa7rM12mYLMwTacLMLDJqHozw96WQL8i": "UST",
	"DvTdB7nVZqHmLDyzsvmvUUribQo6RJtFtDTwVEVQnHGR": "PAI",
}

// ExchangeCurrencies are base/quote assets excluded from the per-token
// portfolio rollup. A wallet "trading" SOL against USDC is not taking a
// position in USDC.
var ExchangeCurrencies = map[string]string{
	WrappedSOLMint: "SOL",
	NativeSOLMint:  "SOL",
	MSOLMint:       "mSOL",
	StSOLMint:      "stSOL",
	JitoSOLMint:    "jitoSOL",
	USDCMint:       "USDC",
	USDTMint:       "USDT",
	USDCetMint:     "USDCet",
	USDCNativeMint: "USDC",
}

// TokenSymbols maps common mint addresses to display symbols for tokens the
// provider sometimes ships without metadata.
var TokenSymbols = map[string]string{
	WrappedSOLMint: "SOL",
	NativeSOLMint:  "SOL",
	MSOLMint:       "mSOL",
	StSOLMint:      "stSOL",
	JitoSOLMint:    "jitoSOL",
	USDCMint:       "USDC",
	USDTMint:       "USDT",
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": "ETH",
	"3NZ9JMVBmGAqocybic2c7LQCJScmgsAZ6vQqTDzcqmJh": "BTC",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr": "POPCAT",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
}

// IsUSDStable reports whether the mint is a USD-pegged token per the
// default set. Runtime classification goes through config.
func IsUSDStable(mint string) bool {
	_, ok := USDStableAssets[mint]
	return ok
}

// IsReferenceAsset reports whether the mint is a quote currency per the
// default set.
func IsReferenceAsset(mint string) bool {
	_, ok := ReferenceAssets[mint]
	return ok
}

// IsExchangeCurrency reports whether the mint is a base/quote currency
// excluded from portfolio position rollups, per the default set.
func IsExchangeCurrency(mint string) bool {
	_, ok := ExchangeCurrencies[mint]
	return ok
}

// SymbolFor returns the known display symbol for a mint, or the fallback
// when the mint is unmapped.
func SymbolFor(mint, fallback string) string {
	if sym, ok := TokenSymbols[mint]; ok {
		return sym
	}
	return fallback
}
