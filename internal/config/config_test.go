package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/constants"
)

func TestLoadDefaultsClassifySOLAsReference(t *testing.T) {
	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.IsReferenceAsset(constants.WrappedSOLMint))
	assert.True(t, cfg.IsReferenceAsset(constants.NativeSOLMint))
	assert.True(t, cfg.IsReferenceAsset(constants.MSOLMint))
	assert.True(t, cfg.IsReferenceAsset(constants.USDCMint))

	// SOL quotes trades but never pegs 1:1 to the dollar.
	assert.True(t, cfg.IsUSDStable(constants.USDCMint))
	assert.False(t, cfg.IsUSDStable(constants.WrappedSOLMint))

	assert.True(t, cfg.IsExchangeCurrency(constants.WrappedSOLMint))
	assert.False(t, cfg.IsExchangeCurrency("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"))
}

func TestReferenceAssetsOverrideFromEnv(t *testing.T) {
	t.Setenv("REFERENCE_ASSETS", "mintA, mintB")
	cfg := Load()
	assert.True(t, cfg.IsReferenceAsset("mintA"))
	assert.True(t, cfg.IsReferenceAsset("mintB"))
	assert.False(t, cfg.IsReferenceAsset(constants.USDCMint))
}

func TestValidateRejectsEmptyReferenceSet(t *testing.T) {
	cfg := Load()
	cfg.ReferenceAssets = map[string]bool{}
	assert.Error(t, cfg.Validate())
}
