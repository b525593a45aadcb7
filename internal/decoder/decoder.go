package decoder

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/polyglot-labs/award-watcher/internal/domain"
	"github.com/polyglot-labs/award-watcher/internal/registry"
)

// Event signatures
var (
	// ERC721 Transfer(address indexed from, address indexed to, uint256 indexed tokenId) - 4 topics.
	// The same signature with 3 topics is an ERC20 transfer, which issuer contracts never emit.
	TransferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	// Marketplace ItemPurchased(address indexed buyer, uint256 itemIndex, uint256 price) - 2 topics,
	// itemIndex and price in data
	ItemPurchasedEventSignature = crypto.Keccak256Hash([]byte("ItemPurchased(address,uint256,uint256)"))
)

// SignatureForKind returns the event signature a contract kind is watched for
func SignatureForKind(kind domain.ContractKind) common.Hash {
	if kind == domain.ContractKindMarketplace {
		return ItemPurchasedEventSignature
	}
	return TransferEventSignature
}

// Decode turns a raw log from a monitored contract into a normalized event.
//
// It is a pure function: no side effects, no knowledge of storage. A nil
// event with a nil error means the log was recognized but intentionally
// filtered (a secondary transfer between two non-zero addresses is not an
// award). A non-nil error means the log was malformed; the caller logs it
// and moves on.
func Decode(contract registry.MonitoredContract, vLog types.Log) (*domain.Event, error) {
	if len(vLog.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics (tx %s)", vLog.TxHash.Hex())
	}

	switch contract.Kind {
	case domain.ContractKindBadgeIssuer, domain.ContractKindCertificateIssuer:
		return decodeTransfer(vLog)
	case domain.ContractKindMarketplace:
		return decodePurchase(vLog)
	default:
		return nil, fmt.Errorf("unsupported contract kind: %s", contract.Kind)
	}
}

// decodeTransfer decodes an ERC721 Transfer log into a mint event.
// Transfers whose sender is not the zero address are secondary transfers
// and decode to nothing.
func decodeTransfer(vLog types.Log) (*domain.Event, error) {
	if vLog.Topics[0] != TransferEventSignature {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEventSignature, vLog.Topics[0].Hex())
	}
	if len(vLog.Topics) != 4 {
		return nil, fmt.Errorf("invalid Transfer event: expected 4 topics, got %d", len(vLog.Topics))
	}

	from := common.BytesToAddress(vLog.Topics[1].Bytes())
	to := common.BytesToAddress(vLog.Topics[2].Bytes())

	if from != (common.Address{}) {
		// Secondary transfer, irrelevant to award tracking
		return nil, nil
	}

	return &domain.Event{
		Type:            domain.EventTypeMint,
		ContractAddress: domain.NormalizeAddress(vLog.Address.Hex()),
		TxHash:          vLog.TxHash.Hex(),
		BlockNumber:     vLog.BlockNumber,
		FromAddress:     domain.ETHEREUM_ZERO_ADDRESS,
		ToAddress:       domain.NormalizeAddress(to.Hex()),
		TokenNumber:     new(big.Int).SetBytes(vLog.Topics[3].Bytes()).String(),
	}, nil
}

// decodePurchase decodes a marketplace ItemPurchased log
func decodePurchase(vLog types.Log) (*domain.Event, error) {
	if vLog.Topics[0] != ItemPurchasedEventSignature {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEventSignature, vLog.Topics[0].Hex())
	}
	if len(vLog.Topics) != 2 {
		return nil, fmt.Errorf("invalid ItemPurchased event: expected 2 topics, got %d", len(vLog.Topics))
	}
	if len(vLog.Data) < 64 {
		return nil, fmt.Errorf("invalid ItemPurchased event: insufficient data (%d bytes)", len(vLog.Data))
	}

	buyer := common.BytesToAddress(vLog.Topics[1].Bytes())

	// Data layout: first 32 bytes = item index, next 32 bytes = price
	itemIndex := new(big.Int).SetBytes(vLog.Data[0:32])
	if !itemIndex.IsUint64() {
		return nil, fmt.Errorf("invalid ItemPurchased event: item index out of range: %s", itemIndex.String())
	}

	return &domain.Event{
		Type:            domain.EventTypePurchase,
		ContractAddress: domain.NormalizeAddress(vLog.Address.Hex()),
		TxHash:          vLog.TxHash.Hex(),
		BlockNumber:     vLog.BlockNumber,
		BuyerAddress:    domain.NormalizeAddress(buyer.Hex()),
		ItemIndex:       itemIndex.Uint64(),
		Price:           new(big.Int).SetBytes(vLog.Data[32:64]).String(),
	}, nil
}
