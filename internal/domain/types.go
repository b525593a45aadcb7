package domain

import (
	"fmt"
	"strings"
)

// ETHEREUM_ZERO_ADDRESS is the zero address used as the sender of mint transfers
const ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

// ContractKind identifies what a monitored contract issues
type ContractKind string

const (
	// ContractKindBadgeIssuer issues soulbound badge tokens for completed levels
	ContractKindBadgeIssuer ContractKind = "badge_issuer"
	// ContractKindCertificateIssuer issues soulbound certificate tokens for passed exams
	ContractKindCertificateIssuer ContractKind = "certificate_issuer"
	// ContractKindMarketplace sells avatar items
	ContractKindMarketplace ContractKind = "marketplace"
)

// IsValidContractKind checks if a contract kind is valid
func IsValidContractKind(kind ContractKind) bool {
	return kind == ContractKindBadgeIssuer ||
		kind == ContractKindCertificateIssuer ||
		kind == ContractKindMarketplace
}

// AchievementKind identifies the kind of achievement record an issuer contract maps to
type AchievementKind string

const (
	AchievementKindBadge       AchievementKind = "badge"
	AchievementKindCertificate AchievementKind = "certificate"
)

// AchievementKindForContract maps an issuer contract kind to the achievement it records.
// Marketplace contracts do not issue achievements and return false.
func AchievementKindForContract(kind ContractKind) (AchievementKind, bool) {
	switch kind {
	case ContractKindBadgeIssuer:
		return AchievementKindBadge, true
	case ContractKindCertificateIssuer:
		return AchievementKindCertificate, true
	default:
		return "", false
	}
}

// EventType represents the type of decoded contract event
type EventType string

const (
	// EventTypeMint is a token transfer from the zero address (an award)
	EventTypeMint EventType = "mint"
	// EventTypePurchase is a marketplace item purchase
	EventTypePurchase EventType = "purchase"
)

// Event represents a normalized contract event produced by the decoder.
// Mint events carry FromAddress/ToAddress/TokenNumber; purchase events
// carry BuyerAddress/ItemIndex/Price.
type Event struct {
	Type            EventType `json:"type"`
	ContractAddress string    `json:"contract_address"`
	TxHash          string    `json:"tx_hash"`
	BlockNumber     uint64    `json:"block_number"`

	// Mint fields
	FromAddress string `json:"from_address,omitempty"`
	ToAddress   string `json:"to_address,omitempty"`
	TokenNumber string `json:"token_number,omitempty"`

	// Purchase fields
	BuyerAddress string `json:"buyer_address,omitempty"`
	ItemIndex    uint64 `json:"item_index,omitempty"`
	Price        string `json:"price,omitempty"`
}

// Recipient returns the address the event is attributed to
func (e *Event) Recipient() string {
	if e.Type == EventTypePurchase {
		return e.BuyerAddress
	}
	return e.ToAddress
}

// MetadataPath derives the canonical metadata location for an achievement.
// The path is deterministic so any consumer can reconstruct it without a
// lookup: /{kind}s/{level}/{tokenNumber}, kind and level lower-cased.
func MetadataPath(kind AchievementKind, level string, tokenNumber string) string {
	return fmt.Sprintf("/%ss/%s/%s", strings.ToLower(string(kind)), strings.ToLower(level), tokenNumber)
}

// NormalizeAddress lower-cases a blockchain address for case-insensitive comparison
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}
