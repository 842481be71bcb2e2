package chat

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/brunodmn/threadchat/internal/bus"
	"go.uber.org/zap"
)

// ProfileResolver looks up a user profile by id or username.
type ProfileResolver interface {
	Profile(ctx context.Context, idOrUsername string) (*Profile, error)
}

// Enricher produces the UI-visible projection: every conversation
// annotated with its counterpart's frozen status. A pass resolves all
// counterparts concurrently and publishes the new projection only after
// every lookup has finished, so readers see either the previous complete
// projection or the next one, never a half-enriched mix.
type Enricher struct {
	resolver ProfileResolver
	bus      *bus.Bus
	logger   *zap.Logger

	version atomic.Uint64

	mu         sync.RWMutex
	latest     []Conversation // newest list handed to Refresh or Reproject
	projection []Enriched
	frozen     map[string]bool // counterpart user id -> last known frozen flag
}

// NewEnricher creates an enricher backed by the given resolver.
func NewEnricher(resolver ProfileResolver, b *bus.Bus, logger *zap.Logger) *Enricher {
	return &Enricher{
		resolver: resolver,
		bus:      b,
		logger:   logger,
		frozen:   make(map[string]bool),
	}
}

// Refresh runs a full enrichment pass over convs. Passes are not
// cancelled: a pass started from a list that has since changed simply
// loses to the newer pass via the version counter, so only the pass
// triggered by the newest list ever publishes. Only Refresh bumps the
// counter: a content-only reprojection racing a pass must not discard
// its lookups, it just updates the list the pass publishes from.
func (e *Enricher) Refresh(ctx context.Context, convs []Conversation) {
	v := e.version.Add(1)

	e.mu.Lock()
	if v == e.version.Load() {
		e.latest = convs
	}
	e.mu.Unlock()

	flags := make([]bool, len(convs))
	var wg sync.WaitGroup
	for i, c := range convs {
		wg.Add(1)
		go func(i int, c Conversation) {
			defer wg.Done()
			flags[i] = e.lookupFrozen(ctx, c)
		}(i, c)
	}
	wg.Wait()

	e.mu.Lock()
	if v != e.version.Load() {
		// A newer pass has started; discard this one.
		e.mu.Unlock()
		return
	}
	for i, c := range convs {
		e.frozen[c.Counterpart().ID] = flags[i]
	}
	// Publish from the latest list, not the captured one: a seen flip
	// that landed while the lookups ran carries the same membership and
	// must not be reverted.
	results := e.project()
	e.mu.Unlock()

	e.bus.Emit(bus.Projection, results)
}

// project rebuilds the projection from the latest list and the known
// frozen flags. Caller holds e.mu.
func (e *Enricher) project() []Enriched {
	out := make([]Enriched, len(e.latest))
	for i, c := range e.latest {
		out[i] = Enriched{Conversation: c, IsFrozen: e.frozen[c.Counterpart().ID]}
	}
	e.projection = out
	return out
}

// lookupFrozen resolves the counterpart's frozen flag. A failed lookup
// keeps the conversation visible with IsFrozen=false rather than
// dropping the entry from the projection.
func (e *Enricher) lookupFrozen(ctx context.Context, c Conversation) bool {
	id := c.Counterpart().ID
	if id == "" {
		return false
	}
	p, err := e.resolver.Profile(ctx, id)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("profile lookup failed during enrichment",
				zap.String("conversation_id", c.ID),
				zap.String("user_id", id),
				zap.Error(err))
		}
		return false
	}
	return p.IsFrozen
}

// Reproject rebuilds the projection from convs using the frozen flags
// learned by previous passes, without issuing any lookups. Used for
// mutations that change entry contents but not list membership (e.g. a
// seen-state push), keeping the lookup fan-out bounded. It does not
// touch the version counter: an in-flight Refresh stays valid and will
// itself republish from this newer list when its lookups land.
func (e *Enricher) Reproject(convs []Conversation) {
	e.mu.Lock()
	e.latest = convs
	results := e.project()
	e.mu.Unlock()

	e.bus.Emit(bus.Projection, results)
}

// Projection returns the current complete projection.
func (e *Enricher) Projection() []Enriched {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Enriched, len(e.projection))
	copy(out, e.projection)
	return out
}

// Visible returns the projection with frozen counterparts filtered out.
// Filtering happens at display time; the store itself is never mutated
// in response to a frozen flag.
func (e *Enricher) Visible() []Enriched {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Enriched, 0, len(e.projection))
	for _, en := range e.projection {
		if !en.IsFrozen {
			out = append(out, en)
		}
	}
	return out
}
