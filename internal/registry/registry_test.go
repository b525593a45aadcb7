package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyglot-labs/award-watcher/internal/domain"
	"github.com/polyglot-labs/award-watcher/internal/registry"
)

const (
	badgeAddress       = "0x1111111111111111111111111111111111111111"
	certAddress        = "0x2222222222222222222222222222222222222222"
	marketplaceAddress = "0x3333333333333333333333333333333333333333"
)

func TestNew(t *testing.T) {
	reg, err := registry.New([]registry.MonitoredContract{
		{Address: badgeAddress, Kind: domain.ContractKindBadgeIssuer, Level: "A1"},
		{Address: certAddress, Kind: domain.ContractKindCertificateIssuer, Level: "B1"},
		{Address: marketplaceAddress, Kind: domain.ContractKindMarketplace},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())
}

func TestNew_EmptySetIsValid(t *testing.T) {
	reg, err := registry.New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.Contracts())
}

func TestNew_NormalizesAddresses(t *testing.T) {
	reg, err := registry.New([]registry.MonitoredContract{
		{Address: "0xABCDEF1234567890abcdef1234567890ABCDEF12", Kind: domain.ContractKindBadgeIssuer, Level: "A1"},
	})
	require.NoError(t, err)

	contracts := reg.Contracts()
	require.Len(t, contracts, 1)
	assert.Equal(t, "0xabcdef1234567890abcdef1234567890abcdef12", contracts[0].Address)
}

func TestNew_InvalidAddress(t *testing.T) {
	_, err := registry.New([]registry.MonitoredContract{
		{Address: "not-an-address", Kind: domain.ContractKindBadgeIssuer, Level: "A1"},
	})
	assert.ErrorContains(t, err, "invalid contract address")
}

func TestNew_InvalidKind(t *testing.T) {
	_, err := registry.New([]registry.MonitoredContract{
		{Address: badgeAddress, Kind: domain.ContractKind("lesson"), Level: "A1"},
	})
	assert.ErrorContains(t, err, "invalid contract kind")
}

func TestNew_IssuerRequiresLevel(t *testing.T) {
	_, err := registry.New([]registry.MonitoredContract{
		{Address: badgeAddress, Kind: domain.ContractKindBadgeIssuer},
	})
	assert.ErrorContains(t, err, "requires a level")
}

func TestNew_MarketplaceRejectsLevel(t *testing.T) {
	_, err := registry.New([]registry.MonitoredContract{
		{Address: marketplaceAddress, Kind: domain.ContractKindMarketplace, Level: "A1"},
	})
	assert.ErrorContains(t, err, "must not carry a level")
}

func TestNew_DuplicateAddress(t *testing.T) {
	_, err := registry.New([]registry.MonitoredContract{
		{Address: badgeAddress, Kind: domain.ContractKindBadgeIssuer, Level: "A1"},
		// Same address with different casing is still a duplicate
		{Address: "0x1111111111111111111111111111111111111111", Kind: domain.ContractKindMarketplace},
	})
	assert.ErrorContains(t, err, "duplicate contract address")
}

func TestContracts_ReturnsCopy(t *testing.T) {
	reg, err := registry.New([]registry.MonitoredContract{
		{Address: badgeAddress, Kind: domain.ContractKindBadgeIssuer, Level: "A1"},
	})
	require.NoError(t, err)

	contracts := reg.Contracts()
	contracts[0].Level = "Z9"

	assert.Equal(t, "A1", reg.Contracts()[0].Level)
}
