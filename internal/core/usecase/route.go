package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
)

// RouteRetrier runs one routing round under a retry policy. The round is
// retried while it fails with domain.ErrTemporary; other errors end it.
type RouteRetrier func(ctx context.Context, fn func(context.Context) error) error

type RouterConfig struct {
	// Retry owns the transient-failure policy around each routing round.
	// Production wires a linear-backoff executor; nil runs a single round.
	Retry RouteRetrier
}

func (c RouterConfig) normalize() RouterConfig {
	out := c
	if out.Retry == nil {
		out.Retry = func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}
	}
	return out
}

// Router writes a document into its category partition. The write is
// idempotent: a prior object with identical content is a no-op, a prior
// object with different content is a fatal key conflict.
type Router struct {
	store ports.ObjectStore
	cfg   RouterConfig
}

func NewRouter(store ports.ObjectStore, cfg RouterConfig) *Router {
	return &Router{store: store, cfg: cfg.normalize()}
}

// StorageKey is the deterministic partition key for a decision.
func StorageKey(category domain.Category, documentID string) string {
	return category.String() + "/" + documentID
}

func (r *Router) Route(ctx context.Context, doc *domain.Document, decision domain.RoutingDecision) (domain.StorageRecord, error) {
	key := StorageKey(decision.FinalCategory, doc.ID)

	var record domain.StorageRecord
	err := r.cfg.Retry(ctx, func(ctx context.Context) error {
		rec, err := r.tryRoute(ctx, doc, decision.FinalCategory, key)
		if err != nil {
			return err
		}
		record = rec
		return nil
	})
	switch {
	case err == nil:
		return record, nil
	case domain.IsKind(err, domain.ErrStorageKeyConflict):
		// Integrity violation, never resolved by retrying.
		return domain.StorageRecord{}, err
	case ctx.Err() != nil:
		return domain.StorageRecord{}, domain.WrapError(domain.ErrStorageUnavailable, "route document", ctx.Err())
	default:
		return domain.StorageRecord{}, domain.WrapError(domain.ErrStorageUnavailable, "route document", err)
	}
}

// tryRoute runs one existence-check-then-write round. A concurrent writer
// winning the conditional put surfaces as a conflict from PutIfAbsent; the
// next round observes the winner's object and resolves it as the idempotent
// case or a genuine key conflict.
func (r *Router) tryRoute(ctx context.Context, doc *domain.Document, category domain.Category, key string) (domain.StorageRecord, error) {
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return domain.StorageRecord{}, fmt.Errorf("check object: %w", err)
	}

	if exists {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			return domain.StorageRecord{}, fmt.Errorf("read existing object: %w", err)
		}
		if domain.ContentID(data) != doc.ID {
			return domain.StorageRecord{}, domain.WrapError(
				domain.ErrStorageKeyConflict,
				"route document",
				fmt.Errorf("key %s holds different content", key),
			)
		}
		// Duplicate upload: same content already at the key.
		return domain.StorageRecord{
			DocumentID: doc.ID,
			Category:   category,
			StorageKey: key,
			WrittenAt:  time.Now().UTC(),
		}, nil
	}

	if err := r.store.PutIfAbsent(ctx, key, doc.RawBytes); err != nil {
		if domain.IsKind(err, domain.ErrStorageKeyConflict) {
			// Lost the create-if-absent race; re-examine the winner.
			return domain.StorageRecord{}, fmt.Errorf("conditional write lost race: %w", domain.ErrTemporary)
		}
		return domain.StorageRecord{}, fmt.Errorf("write object: %w", err)
	}

	return domain.StorageRecord{
		DocumentID: doc.ID,
		Category:   category,
		StorageKey: key,
		WrittenAt:  time.Now().UTC(),
	}, nil
}
