package social

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"socialgraph/models"
)

// Blacklist returns the owner's blocks, newest first.
func (s *Service) Blacklist(ctx context.Context, ownerID uuid.UUID) ([]models.BlacklistEntry, error) {
	entries, err := s.blockCache.GetOrLoad(ctx, ownerID, func(ctx context.Context) ([]models.BlacklistEntry, error) {
		entries, err := s.blacklist.Query(ctx, models.ByOwner(ownerID.String()))
		if err != nil {
			return nil, fmt.Errorf("failed to load blacklist: %w", err)
		}
		slices.SortStableFunc(entries, func(a, b models.BlacklistEntry) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.TargetID.String(), b.TargetID.String())
		})
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(entries), nil
}

func (s *Service) BlacklistCount(ctx context.Context, ownerID uuid.UUID) (int, error) {
	entries, err := s.Blacklist(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// IsBlockedBy reports whether a has blocked b.
func (s *Service) IsBlockedBy(ctx context.Context, a, b uuid.UUID) (bool, error) {
	entries, err := s.Blacklist(ctx, a)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(entries, func(e models.BlacklistEntry) bool {
		return e.TargetID == b
	}), nil
}

// IsBlocked reports whether either user has blocked the other.
func (s *Service) IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error) {
	blocked, err := s.IsBlockedBy(ctx, a, b)
	if err != nil || blocked {
		return blocked, err
	}
	return s.IsBlockedBy(ctx, b, a)
}

// AddToBlacklist blocks target for blocker and ends any friendship or pending request
// between them.
func (s *Service) AddToBlacklist(ctx context.Context, blocker, target models.Identity, reason string) (bool, error) {
	ok, err := s.addToBlacklist(ctx, blocker, target, reason)
	s.metrics.observe("add_to_blacklist", ok, err)
	return ok, err
}

func (s *Service) addToBlacklist(ctx context.Context, blocker, target models.Identity, reason string) (bool, error) {
	if blocker.ID == target.ID {
		s.tell(blocker.ID, MsgCannotTargetSelf)
		return false, nil
	}

	exists, err := s.blacklist.Exists(ctx, models.ByPair(blocker.ID.String(), target.ID.String()))
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if exists {
		s.tell(blocker.ID, MsgAlreadyBlocked, target.Name)
		return false, nil
	}

	s.ledger.RemovePair(blocker.ID, target.ID)

	if err := s.unlink(ctx, blocker.ID, target.ID); err != nil {
		return false, err
	}

	_, err = s.blacklist.Insert(ctx, models.NewBlacklistEntry(blocker.ID, target, strings.TrimSpace(reason), s.clock.Now()))
	s.blockCache.Invalidate(blocker.ID)
	if err != nil {
		return false, fmt.Errorf("failed to insert blacklist entry: %w", err)
	}

	s.tell(blocker.ID, MsgPlayerBlocked, target.Name)
	return true, nil
}

// unlink deletes both friendship edges between a and b, if present.
func (s *Service) unlink(ctx context.Context, a, b uuid.UUID) error {
	removed, err := s.friendships.Delete(ctx, models.ByPair(a.String(), b.String()))
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	reverse, err := s.friendships.Delete(ctx, models.ByPair(b.String(), a.String()))
	removed += reverse
	if removed > 0 {
		s.friendCache.Invalidate(a, b)
	}
	if err != nil {
		return fmt.Errorf("failed to delete reverse friendship: %w", err)
	}
	return nil
}

// RemoveFromBlacklist unblocks the entry whose target name matches, case-insensitively.
func (s *Service) RemoveFromBlacklist(ctx context.Context, blocker models.Identity, targetName string) (bool, error) {
	ok, err := s.removeFromBlacklist(ctx, blocker, targetName)
	s.metrics.observe("remove_from_blacklist", ok, err)
	return ok, err
}

func (s *Service) removeFromBlacklist(ctx context.Context, blocker models.Identity, targetName string) (bool, error) {
	entries, err := s.Blacklist(ctx, blocker.ID)
	if err != nil {
		return false, err
	}

	i := slices.IndexFunc(entries, func(e models.BlacklistEntry) bool {
		return strings.EqualFold(e.TargetName, targetName)
	})
	if i < 0 {
		s.tell(blocker.ID, MsgNotBlocked, targetName)
		return false, nil
	}

	err = s.blacklist.DeleteByID(ctx, entries[i].ID)
	s.blockCache.Invalidate(blocker.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete blacklist entry: %w", err)
	}

	s.tell(blocker.ID, MsgPlayerUnblocked, entries[i].TargetName)
	return true, nil
}

// RemoveFromBlacklistByID unblocks by identity. It sends no notice.
func (s *Service) RemoveFromBlacklistByID(ctx context.Context, blockerID, targetID uuid.UUID) (bool, error) {
	filter := models.ByPair(blockerID.String(), targetID.String())

	exists, err := s.blacklist.Exists(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if !exists {
		return false, nil
	}

	n, err := s.blacklist.Delete(ctx, filter)
	s.blockCache.Invalidate(blockerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete blacklist entry: %w", err)
	}
	return n > 0, nil
}
