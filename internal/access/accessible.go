package access

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
	"golang.org/x/sync/errgroup"
)

// SetBuilder is the bulk counterpart of the single-item resolvers. For every
// resource r, r ∈ the returned set iff the corresponding resolver grants
// (userID, r). It stays equivalent by construction: each resolver pathway has
// exactly one candidate query here, and space-role precedence is reproduced
// through SpaceResolver.EffectiveRoles rather than re-derived.
//
// Listing, search, and count endpoints must go through this builder; checking
// the resolver per row does not scale, and filtering by a subset of pathways
// silently diverges from single-item reads.
type SetBuilder struct {
	spaces    repository.SpaceRepository
	areas     repository.AreaRepository
	documents repository.DocumentRepository
	pages     repository.PageRepository
	resolver  *SpaceResolver
}

func NewSetBuilder(
	spaces repository.SpaceRepository,
	areas repository.AreaRepository,
	documents repository.DocumentRepository,
	pages repository.PageRepository,
	resolver *SpaceResolver,
) *SetBuilder {
	return &SetBuilder{
		spaces:    spaces,
		areas:     areas,
		documents: documents,
		pages:     pages,
		resolver:  resolver,
	}
}

// SpaceIDs returns every space the principal can access, at any role.
func (b *SetBuilder) SpaceIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	decisions, err := b.resolver.EffectiveRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(decisions))
	for id := range decisions {
		ids = append(ids, id)
	}
	return sorted(ids), nil
}

// AreaIDs returns every area the principal can access, optionally scoped to
// one space. Five candidate queries, one per resolver step.
func (b *SetBuilder) AreaIDs(ctx context.Context, userID uuid.UUID, scope repository.AreaScope) ([]uuid.UUID, error) {
	anySpaces, openSpaces, err := b.spaceSets(ctx, userID, scope.SpaceID)
	if err != nil {
		return nil, err
	}
	groupIDs, err := b.resolver.identity.GroupsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := make([][]uuid.UUID, 5)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		candidates[0], err = b.areas.GeneralIDsBySpaces(gctx, anySpaces)
		return err
	})
	g.Go(func() (err error) {
		candidates[1], err = b.areas.CreatedIDs(gctx, userID, scope)
		return err
	})
	g.Go(func() (err error) {
		candidates[2], err = b.areas.UserMembershipIDs(gctx, userID, scope)
		return err
	})
	g.Go(func() (err error) {
		candidates[3], err = b.areas.GroupMembershipIDs(gctx, groupIDs, scope)
		return err
	})
	g.Go(func() (err error) {
		candidates[4], err = b.areas.OpenIDsBySpaces(gctx, openSpaces)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return union(candidates...), nil
}

// DocumentIDs returns every document the principal can access: owned, or
// space-visible in an accessible space, or area-visible via a share into an
// accessible area.
func (b *SetBuilder) DocumentIDs(ctx context.Context, userID uuid.UUID, scope repository.DocumentScope) ([]uuid.UUID, error) {
	anySpaces, _, err := b.spaceSets(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	areaIDs, err := b.AreaIDs(ctx, userID, repository.AreaScope{})
	if err != nil {
		return nil, err
	}

	candidates := make([][]uuid.UUID, 3)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		candidates[0], err = b.documents.OwnedIDs(gctx, userID, scope)
		return err
	})
	g.Go(func() (err error) {
		candidates[1], err = b.documents.SpaceVisibleIDs(gctx, anySpaces, scope)
		return err
	})
	g.Go(func() (err error) {
		candidates[2], err = b.documents.AreaSharedIDs(gctx, areaIDs, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return union(candidates...), nil
}

// PageIDs returns every page the principal can access: owned, explicitly
// shared (private pages only), area-visible, or space-visible.
func (b *SetBuilder) PageIDs(ctx context.Context, userID uuid.UUID, scope repository.PageScope) ([]uuid.UUID, error) {
	anySpaces, _, err := b.spaceSets(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	areaIDs, err := b.AreaIDs(ctx, userID, repository.AreaScope{})
	if err != nil {
		return nil, err
	}
	groupIDs, err := b.resolver.identity.GroupsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := make([][]uuid.UUID, 5)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		candidates[0], err = b.pages.OwnedIDs(gctx, userID, scope)
		return err
	})
	g.Go(func() (err error) {
		candidates[1], err = b.pages.UserSharedIDs(gctx, userID, scope)
		return err
	})
	g.Go(func() (err error) {
		candidates[2], err = b.pages.GroupSharedIDs(gctx, groupIDs, scope)
		return err
	})
	g.Go(func() (err error) {
		candidates[3], err = b.pages.AreaVisibleIDs(gctx, areaIDs, scope)
		return err
	})
	g.Go(func() (err error) {
		candidates[4], err = b.pages.SpaceVisibleIDs(gctx, anySpaces, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return union(candidates...), nil
}

// spaceSets computes the accessible spaces at any role and the subset usable
// for open-area fallback (guests excluded). Both honor the direct-shadows-
// group precedence: a direct guest membership keeps a space out of the open
// set even when a group grant would rank higher.
func (b *SetBuilder) spaceSets(ctx context.Context, userID uuid.UUID, spaceFilter *uuid.UUID) (anyRole, nonGuest []uuid.UUID, err error) {
	decisions, err := b.resolver.EffectiveRoles(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	for spaceID, d := range decisions {
		if spaceFilter != nil && spaceID != *spaceFilter {
			continue
		}
		anyRole = append(anyRole, spaceID)
		if d.Role != domain.RoleGuest {
			nonGuest = append(nonGuest, spaceID)
		}
	}
	return anyRole, nonGuest, nil
}

func union(lists ...[]uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return sorted(out)
}

func sorted(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
