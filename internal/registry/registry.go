package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/polyglot-labs/award-watcher/internal/domain"
)

// MonitoredContract describes one contract the watcher observes.
// Issuer contracts carry the achievement level their mints award;
// marketplace contracts have no level.
type MonitoredContract struct {
	Address string
	Kind    domain.ContractKind
	Level   string
}

// Registry is the immutable set of monitored contracts, loaded once at startup
type Registry struct {
	contracts []MonitoredContract
}

// New validates the contract entries and builds a registry.
// Addresses are normalized to lower case. An empty entry list is valid:
// it means no watchers will run.
func New(entries []MonitoredContract) (*Registry, error) {
	seen := make(map[string]bool, len(entries))
	contracts := make([]MonitoredContract, 0, len(entries))

	for _, entry := range entries {
		if !common.IsHexAddress(entry.Address) {
			return nil, fmt.Errorf("invalid contract address: %q", entry.Address)
		}
		if !domain.IsValidContractKind(entry.Kind) {
			return nil, fmt.Errorf("invalid contract kind %q for %s", entry.Kind, entry.Address)
		}

		address := domain.NormalizeAddress(entry.Address)
		if seen[address] {
			return nil, fmt.Errorf("duplicate contract address: %s", address)
		}
		seen[address] = true

		switch entry.Kind {
		case domain.ContractKindBadgeIssuer, domain.ContractKindCertificateIssuer:
			if entry.Level == "" {
				return nil, fmt.Errorf("issuer contract %s requires a level", address)
			}
		case domain.ContractKindMarketplace:
			if entry.Level != "" {
				return nil, fmt.Errorf("marketplace contract %s must not carry a level", address)
			}
		}

		contracts = append(contracts, MonitoredContract{
			Address: address,
			Kind:    entry.Kind,
			Level:   entry.Level,
		})
	}

	return &Registry{contracts: contracts}, nil
}

// Contracts returns a copy of the monitored contract set
func (r *Registry) Contracts() []MonitoredContract {
	out := make([]MonitoredContract, len(r.contracts))
	copy(out, r.contracts)
	return out
}

// Len returns the number of monitored contracts
func (r *Registry) Len() int {
	return len(r.contracts)
}
