package chat

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SearchOutcome reports which branch a resolution took.
type SearchOutcome int

const (
	// SearchSelected means an existing conversation was selected.
	SearchSelected SearchOutcome = iota
	// SearchCreated means a provisional conversation was appended.
	// The new entry is deliberately NOT selected; only the found branch
	// moves the selection. The asymmetry is a kept contract, not a bug.
	SearchCreated
)

// SearchResolver turns a free-text query into either selection of an
// existing conversation or creation of a provisional one.
type SearchResolver struct {
	store     *Store
	selection *Coordinator
	resolver  ProfileResolver
	selfID    string
	logger    *zap.Logger
	pending   atomic.Bool
}

// NewSearchResolver creates a resolver. selfID is the current user's id,
// used to reject self-messaging.
func NewSearchResolver(store *Store, selection *Coordinator, resolver ProfileResolver, selfID string, logger *zap.Logger) *SearchResolver {
	return &SearchResolver{
		store:     store,
		selection: selection,
		resolver:  resolver,
		selfID:    selfID,
		logger:    logger,
	}
}

// Pending reports whether a resolution is currently in flight. The
// resolver does not dedupe overlapping calls itself; callers use this
// flag to disable re-submission while one is pending.
func (r *SearchResolver) Pending() bool {
	return r.pending.Load()
}

// Resolve looks up searchText as a username or id and either selects the
// existing conversation with that counterpart or appends a provisional
// one. Returns ErrNotFound or ErrSelfMessage for the caller to surface.
func (r *SearchResolver) Resolve(ctx context.Context, searchText string) (SearchOutcome, error) {
	r.pending.Store(true)
	defer r.pending.Store(false)

	profile, err := r.resolver.Profile(ctx, searchText)
	if err != nil {
		return 0, err
	}
	if profile.ID == r.selfID {
		return 0, ErrSelfMessage
	}

	// First match by store order wins.
	if existing, ok := r.store.FindByCounterpart(profile.ID); ok {
		r.selection.Select(Selected{
			ConversationID: existing.ID,
			UserID:         profile.ID,
			Username:       profile.Username,
			ProfilePic:     profile.ProfilePic,
		})
		return SearchSelected, nil
	}

	mock := Conversation{
		ID:   provisionalID(),
		Mock: true,
		Participants: []Participant{{
			ID:         profile.ID,
			Username:   profile.Username,
			ProfilePic: profile.ProfilePic,
		}},
	}
	r.store.Append(mock)
	if r.logger != nil {
		r.logger.Info("provisional conversation created",
			zap.String("conversation_id", mock.ID),
			zap.String("counterpart", profile.Username))
	}
	return SearchCreated, nil
}

// provisionalID generates a local conversation id. The "local-" prefix
// keeps it in a namespace disjoint from server-assigned ids so upgrades
// can never collide.
func provisionalID() string {
	return fmt.Sprintf("local-%s", uuid.NewString())
}
