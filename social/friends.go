package social

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"socialgraph/models"
)

// Friends returns the owner's friendships, favorites first and then by name.
func (s *Service) Friends(ctx context.Context, ownerID uuid.UUID) ([]models.Friendship, error) {
	friends, err := s.friendCache.GetOrLoad(ctx, ownerID, func(ctx context.Context) ([]models.Friendship, error) {
		edges, err := s.friendships.Query(ctx, models.ByOwner(ownerID.String()))
		if err != nil {
			return nil, fmt.Errorf("failed to load friends: %w", err)
		}
		sortFriends(edges)
		return edges, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(friends), nil
}

func sortFriends(edges []models.Friendship) {
	slices.SortStableFunc(edges, func(a, b models.Friendship) int {
		if a.Favorite != b.Favorite {
			if a.Favorite {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(strings.ToLower(a.TargetName), strings.ToLower(b.TargetName)); c != 0 {
			return c
		}
		return cmp.Compare(a.TargetID.String(), b.TargetID.String())
	})
}

func (s *Service) FriendCount(ctx context.Context, ownerID uuid.UUID) (int, error) {
	friends, err := s.Friends(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return len(friends), nil
}

// AreFriends only looks at a's side; both edges always exist together.
func (s *Service) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	friends, err := s.Friends(ctx, a)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(friends, func(f models.Friendship) bool {
		return f.TargetID == b
	}), nil
}

func (s *Service) findFriend(ctx context.Context, ownerID uuid.UUID, name string) (models.Friendship, bool, error) {
	friends, err := s.Friends(ctx, ownerID)
	if err != nil {
		return models.Friendship{}, false, err
	}
	for _, f := range friends {
		if strings.EqualFold(f.TargetName, name) {
			return f, true, nil
		}
	}
	return models.Friendship{}, false, nil
}

func (s *Service) RemoveFriend(ctx context.Context, owner models.Identity, targetName string) (bool, error) {
	ok, err := s.removeFriend(ctx, owner, targetName)
	s.metrics.observe("remove_friend", ok, err)
	return ok, err
}

func (s *Service) removeFriend(ctx context.Context, owner models.Identity, targetName string) (bool, error) {
	edge, found, err := s.findFriend(ctx, owner.ID, targetName)
	if err != nil {
		return false, err
	}
	if !found {
		s.tell(owner.ID, MsgNotFriend, targetName)
		return false, nil
	}

	defer s.friendCache.Invalidate(owner.ID, edge.TargetID)

	if err := s.friendships.DeleteByID(ctx, edge.ID); err != nil {
		return false, fmt.Errorf("failed to delete friendship: %w", err)
	}
	if _, err := s.friendships.Delete(ctx, models.ByPair(edge.TargetID.String(), owner.ID.String())); err != nil {
		return false, fmt.Errorf("failed to delete reverse friendship: %w", err)
	}

	s.tell(owner.ID, MsgFriendRemoved, edge.TargetName)
	return true, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, ownerID uuid.UUID, targetName string) (bool, error) {
	ok, err := s.updateFriend(ctx, ownerID, targetName, func(f *models.Friendship) {
		f.Favorite = !f.Favorite
	})
	s.metrics.observe("toggle_favorite", ok, err)
	return ok, err
}

// SetNickname sets the owner-local name for a friend. An empty nickname clears it.
func (s *Service) SetNickname(ctx context.Context, ownerID uuid.UUID, targetName, nickname string) (bool, error) {
	ok, err := s.updateFriend(ctx, ownerID, targetName, func(f *models.Friendship) {
		f.Nickname = strings.TrimSpace(nickname)
	})
	s.metrics.observe("set_nickname", ok, err)
	return ok, err
}

func (s *Service) updateFriend(ctx context.Context, ownerID uuid.UUID, targetName string, mutate func(*models.Friendship)) (bool, error) {
	edge, found, err := s.findFriend(ctx, ownerID, targetName)
	if err != nil {
		return false, err
	}
	if !found {
		s.tell(ownerID, MsgNotFriend, targetName)
		return false, nil
	}

	mutate(&edge)
	err = s.friendships.Update(ctx, &edge)
	s.friendCache.Invalidate(ownerID)

	switch {
	case errors.Is(err, models.ErrConflict):
		s.logger.Warn("Friendship update conflict, keeping in-memory change",
			zap.String("owner", ownerID.String()),
			zap.String("friendship", edge.ID),
			zap.Error(err))
	case err != nil:
		return false, fmt.Errorf("failed to update friendship: %w", err)
	}
	return true, nil
}
