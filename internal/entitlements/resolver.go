package entitlements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/antonpme/CV-Optimizer/internal/shared/config"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

// Resolver resolves a user's effective entitlement.
type Resolver struct {
	Repo     Repo
	Defaults config.LimitDefaults
	Now      func() time.Time
}

// NewResolver constructs a Resolver over repo using the startup defaults.
func NewResolver(repo Repo, defaults config.LimitDefaults) *Resolver {
	return &Resolver{Repo: repo, Defaults: defaults}
}

// Resolve never fails: a missing row, an expired paid row or a store error yields defaults.
func (r *Resolver) Resolve(ctx context.Context, userID string) Entitlement {
	defaults := Defaults(userID, r.Defaults)
	if r.Repo == nil {
		return defaults
	}
	rec, err := r.Repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			telemetry.Error("entitlements.resolve_failed", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return defaults
	}
	if r.expired(rec) {
		return defaults
	}
	return Merge(rec, defaults)
}

// Reconcile provisions the free preset when no row exists and re-syncs free rows
// whose values drifted from the current preset. Paid and custom rows are untouched.
func (r *Resolver) Reconcile(ctx context.Context, userID string) (Entitlement, bool, error) {
	if r.Repo == nil {
		return r.Resolve(ctx, userID), false, nil
	}
	free := Presets[PlanFree]
	rec, err := r.Repo.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		if err := r.Repo.Upsert(ctx, free.Record(userID, PlanFree, r.now())); err != nil {
			return Entitlement{}, false, fmt.Errorf("provision free entitlement: %w", err)
		}
		return r.Resolve(ctx, userID), true, nil
	case err != nil:
		return Entitlement{}, false, err
	}

	if Plan(rec.Plan) != PlanFree || free.matches(rec) {
		return r.Resolve(ctx, userID), false, nil
	}
	if err := r.Repo.Upsert(ctx, free.Record(userID, PlanFree, r.now())); err != nil {
		return Entitlement{}, false, fmt.Errorf("resync free entitlement: %w", err)
	}
	telemetry.Info("entitlements.resynced", map[string]any{"user_id": userID})
	return r.Resolve(ctx, userID), true, nil
}

// SetPlan overwrites the user's row with the plan preset and clears any expiry.
func (r *Resolver) SetPlan(ctx context.Context, userID string, plan Plan) (Entitlement, error) {
	plan = Plan(strings.ToLower(strings.TrimSpace(string(plan))))
	preset, ok := Presets[plan]
	if !ok {
		return Entitlement{}, fmt.Errorf("%w: unknown plan %q", ErrInvalidInput, plan)
	}
	if r.Repo == nil {
		return Entitlement{}, errors.New("entitlement store not configured")
	}
	if err := r.Repo.Upsert(ctx, preset.Record(userID, plan, r.now())); err != nil {
		return Entitlement{}, err
	}
	return r.Resolve(ctx, userID), nil
}

func (r *Resolver) expired(rec Record) bool {
	if rec.ExpiresAt == nil || Plan(rec.Plan) == PlanFree {
		return false
	}
	return !rec.ExpiresAt.After(r.now())
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
