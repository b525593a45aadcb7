package watcher

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/polyglot-labs/award-watcher/internal/adapter"
	"github.com/polyglot-labs/award-watcher/internal/domain"
	"github.com/polyglot-labs/award-watcher/internal/logger"
	"github.com/polyglot-labs/award-watcher/internal/registry"
	"github.com/polyglot-labs/award-watcher/internal/resolver"
	"github.com/polyglot-labs/award-watcher/internal/store"
)

// Handler applies a decoded event to the ledger
//
//go:generate mockgen -source=handler.go -destination=../mocks/handler.go -package=mocks -mock_names=Handler=MockHandler
type Handler interface {
	// Handle resolves the event's recipient and performs the idempotent
	// write. A returned error means the event was dropped for a storage
	// failure; the caller logs it and moves on, there is no retry.
	Handle(ctx context.Context, contract registry.MonitoredContract, event *domain.Event) error
}

type handler struct {
	resolver     resolver.Resolver
	store        store.Store
	clock        adapter.Clock
	writeTimeout time.Duration
}

// NewHandler creates the reconciliation handler
func NewHandler(res resolver.Resolver, st store.Store, clock adapter.Clock, writeTimeout time.Duration) Handler {
	return &handler{
		resolver:     res,
		store:        st,
		clock:        clock,
		writeTimeout: writeTimeout,
	}
}

// Handle resolves the event's recipient and performs the idempotent write
func (h *handler) Handle(ctx context.Context, contract registry.MonitoredContract, event *domain.Event) error {
	// Shutdown stops the loops from pulling new logs; a write already in
	// flight runs to completion bounded only by the write timeout.
	timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.writeTimeout)
	defer cancel()

	user, err := h.resolver.ByAddress(timeoutCtx, event.Recipient())
	if err != nil {
		return fmt.Errorf("failed to resolve user for %s: %w", event.Recipient(), err)
	}
	if user == nil {
		// Expected for addresses without a platform account; the sign-up
		// flow owns user creation, not this pipeline
		logger.InfoCtx(ctx, "No user for address, dropping event",
			zap.String("address", event.Recipient()),
			zap.String("contract", contract.Address),
			zap.String("eventType", string(event.Type)),
			zap.String("txHash", event.TxHash))
		return nil
	}

	switch event.Type {
	case domain.EventTypeMint:
		kind, ok := domain.AchievementKindForContract(contract.Kind)
		if !ok {
			return fmt.Errorf("mint event from non-issuer contract %s", contract.Address)
		}

		return h.store.RecordAchievement(timeoutCtx, store.RecordAchievementParams{
			UserID:      user.ID,
			Kind:        kind,
			Level:       contract.Level,
			TokenNumber: event.TokenNumber,
			MetadataURL: domain.MetadataPath(kind, contract.Level, event.TokenNumber),
			IssueDate:   h.clock.Now(),
		})

	case domain.EventTypePurchase:
		return h.store.RecordOwnership(timeoutCtx, store.RecordOwnershipParams{
			UserID:       user.ID,
			ItemIndex:    event.ItemIndex,
			Price:        event.Price,
			PurchaseDate: h.clock.Now(),
		})

	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}
