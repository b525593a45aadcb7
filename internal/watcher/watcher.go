package watcher

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/polyglot-labs/award-watcher/internal/adapter"
	"github.com/polyglot-labs/award-watcher/internal/chain"
	"github.com/polyglot-labs/award-watcher/internal/decoder"
	"github.com/polyglot-labs/award-watcher/internal/logger"
	"github.com/polyglot-labs/award-watcher/internal/registry"
	"github.com/polyglot-labs/award-watcher/internal/store"
)

// Config holds watcher loop tuning
type Config struct {
	StartBlock      uint64        // First block to backfill from when no cursor exists (0 = live head only)
	CursorSaveFreq  uint64        // Save cursor every N blocks
	CursorSaveDelay time.Duration // Or save cursor every N seconds
}

// State labels the phases of a single contract's watch loop
type State string

const (
	StateConnecting State = "connecting"
	StateStreaming  State = "streaming"
	StateBackoff    State = "backoff"
)

// Supervisor owns one watch loop per monitored contract, restarting each
// on transport errors for the lifetime of the process
type Supervisor interface {
	// Run starts all watch loops and blocks until the context is canceled.
	// An empty registry is not an error: it logs a warning and returns.
	Run(ctx context.Context) error
}

type supervisor struct {
	registry *registry.Registry
	chain    chain.Client
	handler  Handler
	store    store.Store
	config   Config
	clock    adapter.Clock
}

// NewSupervisor creates a watcher supervisor for the given contract registry
func NewSupervisor(
	reg *registry.Registry,
	chainClient chain.Client,
	handler Handler,
	st store.Store,
	cfg Config,
	clock adapter.Clock,
) Supervisor {
	return &supervisor{
		registry: reg,
		chain:    chainClient,
		handler:  handler,
		store:    st,
		config:   cfg,
		clock:    clock,
	}
}

// Run starts one watch loop per monitored contract and blocks until all stop
func (s *supervisor) Run(ctx context.Context) error {
	contracts := s.registry.Contracts()
	if len(contracts) == 0 {
		logger.WarnCtx(ctx, "No monitored contracts configured, no watchers started")
		return nil
	}

	logger.InfoCtx(ctx, "Starting contract watchers", zap.Int("contracts", len(contracts)))

	var wg sync.WaitGroup
	for _, contract := range contracts {
		wg.Add(1)
		go func(c registry.MonitoredContract) {
			defer wg.Done()
			s.watch(ctx, c)
		}(contract)
	}
	wg.Wait()

	return ctx.Err()
}

// watch drives a single contract's state machine forever:
// Connecting -> Streaming -> Backoff -> Connecting. Failures in one
// contract's loop never touch another's.
func (s *supervisor) watch(ctx context.Context, contract registry.MonitoredContract) {
	fields := []zap.Field{
		zap.String("contract", contract.Address),
		zap.String("kind", string(contract.Kind)),
		zap.String("level", contract.Level),
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0 // retry forever
	b.RandomizationFactor = 0.5

	state := StateConnecting
	for {
		switch state {
		case StateConnecting:
			err := s.stream(ctx, contract, b)
			if ctx.Err() != nil {
				logger.InfoCtx(ctx, "Watcher stopped", fields...)
				return
			}
			logger.ErrorCtx(ctx, err, append(fields, zap.String("state", string(StateBackoff)))...)
			state = StateBackoff

		case StateBackoff:
			select {
			case <-ctx.Done():
				logger.InfoCtx(ctx, "Watcher stopped", fields...)
				return
			case <-s.clock.After(b.NextBackOff()):
				state = StateConnecting
			}
		}
	}
}

// stream covers the Connecting and Streaming states for one contract: it
// backfills any gap between the saved cursor and the chain head, opens a
// live log subscription, and processes logs until a transport error or
// cancellation. The returned error is never fatal to the process; the
// caller backs off and reconnects.
func (s *supervisor) stream(ctx context.Context, contract registry.MonitoredContract, b *backoff.ExponentialBackOff) error {
	address := common.HexToAddress(contract.Address)
	signature := decoder.SignatureForKind(contract.Kind)

	cursor, err := s.store.GetBlockCursor(ctx, contract.Address)
	if err != nil {
		return fmt.Errorf("failed to get block cursor: %w", err)
	}

	fromBlock := s.config.StartBlock
	if cursor > 0 {
		fromBlock = cursor + 1
	}

	head, err := s.chain.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest block: %w", err)
	}

	tracker := &cursorTracker{lastSaveTime: s.clock.Now()}

	// Replay the gap between the cursor and the head before going live.
	// Upserts make redelivered logs harmless, so overlap is fine.
	if fromBlock > 0 && fromBlock <= head {
		query := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(fromBlock),
			ToBlock:   new(big.Int).SetUint64(head),
			Addresses: []common.Address{address},
			Topics:    [][]common.Hash{{signature}},
		}

		logs, err := s.chain.FilterLogs(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to backfill logs: %w", err)
		}

		logger.InfoCtx(ctx, "Backfilling contract logs",
			zap.String("contract", contract.Address),
			zap.Uint64("fromBlock", fromBlock),
			zap.Uint64("toBlock", head),
			zap.Int("logs", len(logs)))

		for _, vLog := range logs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.process(ctx, contract, vLog)
			s.saveCursor(ctx, contract, vLog.BlockNumber, tracker)
		}
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(head + 1),
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{{signature}},
	}

	logs := make(chan types.Log)
	sub, err := s.chain.SubscribeLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to logs: %w", err)
	}
	defer sub.Unsubscribe()

	// Connected; a later failure starts backoff from the initial interval again
	b.Reset()

	logger.InfoCtx(ctx, "Watching contract logs",
		zap.String("contract", contract.Address),
		zap.String("kind", string(contract.Kind)),
		zap.Uint64("fromBlock", head+1))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("subscription error: %w", err)
		case vLog := <-logs:
			s.process(ctx, contract, vLog)
			s.saveCursor(ctx, contract, vLog.BlockNumber, tracker)
		}
	}
}

// process decodes one raw log and hands it to the reconciliation handler.
// Decode failures skip the log; storage failures drop the event. Both are
// logged with enough context for an out-of-band replay.
func (s *supervisor) process(ctx context.Context, contract registry.MonitoredContract, vLog types.Log) {
	event, err := decoder.Decode(contract, vLog)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to decode log, skipping",
			zap.Error(err),
			zap.String("contract", contract.Address),
			zap.String("txHash", vLog.TxHash.Hex()),
			zap.Uint64("blockNumber", vLog.BlockNumber),
			zap.Any("topics", vLog.Topics),
			zap.Binary("data", vLog.Data))
		return
	}
	if event == nil {
		// Recognized but filtered (secondary transfer)
		return
	}

	if err := s.handler.Handle(ctx, contract, event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("contract", contract.Address),
			zap.String("kind", string(contract.Kind)),
			zap.String("level", contract.Level),
			zap.String("eventType", string(event.Type)),
			zap.String("recipient", event.Recipient()),
			zap.String("txHash", event.TxHash),
			zap.Uint64("blockNumber", event.BlockNumber))
	}
}

// cursorTracker tracks when the block cursor was last persisted
type cursorTracker struct {
	lastSavedBlock uint64
	lastSaveTime   time.Time
}

// saveCursor persists the cursor every CursorSaveFreq blocks or
// CursorSaveDelay seconds, whichever comes first. A failed save is not
// fatal: the cursor lags and the gap is replayed on the next connect.
func (s *supervisor) saveCursor(ctx context.Context, contract registry.MonitoredContract, blockNumber uint64, tracker *cursorTracker) {
	shouldSave := blockNumber-tracker.lastSavedBlock >= s.config.CursorSaveFreq ||
		s.clock.Since(tracker.lastSaveTime) >= s.config.CursorSaveDelay
	if !shouldSave {
		return
	}

	if err := s.store.SetBlockCursor(ctx, contract.Address, blockNumber); err != nil {
		logger.WarnCtx(ctx, "Failed to save block cursor",
			zap.Error(err),
			zap.String("contract", contract.Address),
			zap.Uint64("blockNumber", blockNumber))
		return
	}

	tracker.lastSavedBlock = blockNumber
	tracker.lastSaveTime = s.clock.Now()
}
