package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/polyglot-labs/award-watcher/internal/adapter"
	"github.com/polyglot-labs/award-watcher/internal/logger"
)

// Client defines the chain operations the watcher needs
//
//go:generate mockgen -source=client.go -destination=../mocks/chainclient.go -package=mocks -mock_names=Client=MockChainClient
type Client interface {
	// SubscribeLogs subscribes to filter logs
	SubscribeLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// FilterLogs retrieves historical logs matching the query, chunking the
	// block range to stay under node provider result limits
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// LatestBlock returns the latest block number
	LatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection
	Close()
}

type chainClient struct {
	client adapter.EthClient
}

// NewClient creates a chain client on top of a dialed Ethereum connection
func NewClient(client adapter.EthClient) Client {
	return &chainClient{client: client}
}

// SubscribeLogs subscribes to filter logs
func (c *chainClient) SubscribeLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.client.SubscribeFilterLogs(ctx, query, ch)
}

// defaultFilterStep is the initial block range per FilterLogs request.
// Halved whenever the node rejects a range for returning too many results.
const defaultFilterStep = uint64(100000)

// FilterLogs retrieves historical logs matching the query. The range is
// processed in chunks; a chunk that trips the provider's result limit is
// retried with half the step size.
func (c *chainClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if query.FromBlock == nil || query.ToBlock == nil {
		return c.client.FilterLogs(ctx, query)
	}

	stepSize := defaultFilterStep

	var allLogs []types.Log
	currentFrom := new(big.Int).Set(query.FromBlock)

	for currentFrom.Cmp(query.ToBlock) <= 0 {
		currentTo := new(big.Int).Add(currentFrom, new(big.Int).SetUint64(stepSize-1))
		if currentTo.Cmp(query.ToBlock) > 0 {
			currentTo.Set(query.ToBlock)
		}

		chunkQuery := query
		chunkQuery.FromBlock = new(big.Int).Set(currentFrom)
		chunkQuery.ToBlock = new(big.Int).Set(currentTo)

		logs, err := c.client.FilterLogs(ctx, chunkQuery)
		if err == nil {
			allLogs = append(allLogs, logs...)
			currentFrom.SetUint64(currentTo.Uint64() + 1)
			continue
		}

		if !isTooManyResultsError(err) {
			return nil, fmt.Errorf("failed to filter logs for range %d-%d: %w",
				currentFrom.Uint64(), currentTo.Uint64(), err)
		}

		if stepSize == 1 {
			return nil, fmt.Errorf("failed to filter logs at block %d: %w", currentFrom.Uint64(), err)
		}
		stepSize = stepSize / 2

		logger.Warn("Too many results, reducing step size",
			zap.Uint64("newStepSize", stepSize),
			zap.Uint64("fromBlock", currentFrom.Uint64()),
			zap.Uint64("toBlock", currentTo.Uint64()))
	}

	return allLogs, nil
}

// isTooManyResultsError checks if the error is a provider result-limit rejection
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum")
}

// LatestBlock returns the latest block number
func (c *chainClient) LatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// Close closes the connection
func (c *chainClient) Close() {
	if c.client == nil {
		return
	}

	c.client.Close()
	logger.Info("Chain connection closed")
}
