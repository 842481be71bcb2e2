package chat

import (
	"context"

	"github.com/brunodmn/threadchat/internal/bus"
	"go.uber.org/zap"
)

// SnapshotFetcher pulls the full trusted conversation list from the server.
type SnapshotFetcher interface {
	Conversations(ctx context.Context) ([]Conversation, error)
}

// Engine wires the store, the enricher, and the push channel together.
// It subscribes to push.* and store.* events on the bus and routes them:
// seen notifications mutate the store, membership changes trigger a full
// enrichment pass, and content-only changes re-project without lookups.
type Engine struct {
	store     *Store
	enricher  *Enricher
	snapshots SnapshotFetcher
	bus       *bus.Bus
	logger    *zap.Logger
	cancel    context.CancelFunc
}

// NewEngine creates the sync engine.
func NewEngine(store *Store, enricher *Enricher, snapshots SnapshotFetcher, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{
		store:     store,
		enricher:  enricher,
		snapshots: snapshots,
		bus:       b,
		logger:    logger,
	}
}

// Start subscribes to bus events and kicks off the initial snapshot
// fetch. Push events that arrive before the snapshot lands and reference
// unknown conversations are dropped by the store; they are not buffered
// or replayed once the snapshot catches up.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	pushCh, unsubPush := e.bus.Subscribe("push.", 256)
	storeCh, unsubStore := e.bus.Subscribe("store.", 256)

	go func() {
		defer unsubPush()
		defer unsubStore()
		for {
			select {
			case evt := <-pushCh:
				e.handlePush(evt)
			case evt := <-storeCh:
				e.handleStore(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}()

	go e.loadSnapshot(ctx)
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Resync re-fetches the snapshot on demand.
func (e *Engine) Resync(ctx context.Context) {
	go e.loadSnapshot(ctx)
}

func (e *Engine) loadSnapshot(ctx context.Context) {
	convs, err := e.snapshots.Conversations(ctx)
	if err != nil {
		e.logger.Error("conversation snapshot fetch failed", zap.Error(err))
		// Non-fatal: prior state stays intact, the error is surfaced.
		e.bus.Emit(bus.SnapshotFailed, err.Error())
		return
	}
	e.logger.Info("conversation snapshot loaded", zap.Int("count", len(convs)))
	e.store.ReplaceAll(convs)
}

func (e *Engine) handlePush(evt bus.Event) {
	switch evt.Kind {
	case bus.PushSeen:
		seen, ok := evt.Payload.(SeenEvent)
		if !ok {
			return
		}
		e.store.ApplySeen(seen.ConversationID)
	}
}

func (e *Engine) handleStore(ctx context.Context, evt bus.Event) {
	switch evt.Kind {
	case bus.StoreReplaced, bus.StoreAppended:
		// Membership changed: full fan-out pass. Run off the event loop
		// so a slow lookup cannot stall push handling; the enricher's
		// version counter arbitrates racing passes.
		go e.enricher.Refresh(ctx, e.store.Snapshot())
	case bus.StoreSeen:
		e.enricher.Reproject(e.store.Snapshot())
	}
}
