package grounding

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"revenai/pkg/domain"
	"revenai/pkg/store"
)

// RecentPostLimit bounds the "Latest Insights" section of the snapshot.
const RecentPostLimit = 5

// Assembler produces a GroundingSnapshot from current business data.
// Each source is read in isolation: a failing source is logged and
// replaced with an empty collection so the assistant can still answer
// from partial knowledge.
type Assembler struct {
	catalog store.CatalogStore
}

// NewAssembler builds an assembler over the given catalog.
func NewAssembler(catalog store.CatalogStore) *Assembler {
	return &Assembler{catalog: catalog}
}

// Snapshot reads all five sources concurrently and returns the
// aggregated snapshot. It never returns an error; failed sources
// degrade to empty collections.
func (a *Assembler) Snapshot(ctx context.Context) domain.GroundingSnapshot {
	var snap domain.GroundingSnapshot
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Products = readSource(ctx, "products", a.catalog.ListActiveProducts)
		return nil
	})
	g.Go(func() error {
		snap.Services = readSource(ctx, "services", a.catalog.ListServices)
		return nil
	})
	g.Go(func() error {
		snap.Branches = readSource(ctx, "branches", a.catalog.ListBranches)
		return nil
	})
	g.Go(func() error {
		snap.Team = readSource(ctx, "team", a.catalog.ListTeamMembers)
		return nil
	})
	g.Go(func() error {
		snap.Posts = readSource(ctx, "blog_posts", func() ([]domain.BlogPost, error) {
			return a.catalog.ListRecentPublishedPosts(RecentPostLimit)
		})
		return nil
	})
	_ = g.Wait()
	return snap
}

func readSource[T any](ctx context.Context, name string, read func() ([]T, error)) []T {
	items, err := read()
	if err != nil {
		slog.WarnContext(ctx, "grounding source unavailable, proceeding without it",
			"source", name, "err", err)
		return nil
	}
	return items
}
