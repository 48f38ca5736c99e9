package social

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"socialgraph/models"
)

func (s *Service) CanTeleport(ownerID uuid.UUID) bool {
	return s.cooldowns.CanAct(ownerID)
}

func (s *Service) RecordTeleport(ownerID uuid.UUID) {
	s.cooldowns.Record(ownerID)
}

// RemainingCooldown returns the whole seconds until the owner may teleport again.
func (s *Service) RemainingCooldown(ownerID uuid.UUID) int {
	return s.cooldowns.Remaining(ownerID)
}

func (s *Service) TeleportToFriend(ctx context.Context, owner models.Identity, friendName string) (bool, error) {
	ok, err := s.teleportToFriend(ctx, owner, friendName)
	s.metrics.observe("teleport", ok, err)
	return ok, err
}

func (s *Service) teleportToFriend(ctx context.Context, owner models.Identity, friendName string) (bool, error) {
	if !s.cfg.TeleportEnabled || s.teleporter == nil {
		s.tell(owner.ID, MsgTeleportDisabled)
		return false, nil
	}

	friend, found, err := s.findFriend(ctx, owner.ID, friendName)
	if err != nil {
		return false, err
	}
	if !found {
		s.tell(owner.ID, MsgNotFriend, friendName)
		return false, nil
	}
	if !s.presence.IsOnline(friend.TargetID) {
		s.tell(owner.ID, MsgPlayerOffline, friend.TargetName)
		return false, nil
	}
	if !s.CanTeleport(owner.ID) {
		s.messenger.Send(owner.ID, s.messages.Render(MsgTeleportCooldown,
			"{SECONDS}", strconv.Itoa(s.RemainingCooldown(owner.ID))))
		return false, nil
	}

	if err := s.teleporter.Teleport(ctx, owner.ID, friend.TargetID); err != nil {
		return false, fmt.Errorf("failed to teleport: %w", err)
	}
	s.RecordTeleport(owner.ID)
	s.tell(owner.ID, MsgTeleported, friend.DisplayName())
	return true, nil
}

// SendPrivateMessage delivers content from sender to an online friend.
func (s *Service) SendPrivateMessage(ctx context.Context, sender models.Identity, friendName, content string) (bool, error) {
	ok, err := s.sendPrivateMessage(ctx, sender, friendName, content)
	s.metrics.observe("private_message", ok, err)
	return ok, err
}

func (s *Service) sendPrivateMessage(ctx context.Context, sender models.Identity, friendName, content string) (bool, error) {
	friend, found, err := s.findFriend(ctx, sender.ID, friendName)
	if err != nil {
		return false, err
	}
	if !found {
		s.tell(sender.ID, MsgNotFriend, friendName)
		return false, nil
	}
	if !s.presence.IsOnline(friend.TargetID) {
		s.tell(sender.ID, MsgPlayerOffline, friend.TargetName)
		return false, nil
	}

	s.messenger.Send(friend.TargetID, s.messages.Render(MsgPrivateMessageIn,
		"{PLAYER}", sender.Name, "{MESSAGE}", content))
	s.messenger.Send(sender.ID, s.messages.Render(MsgPrivateMessageOut,
		"{PLAYER}", friend.DisplayName(), "{MESSAGE}", content))
	return true, nil
}

// UserConnected tells the user's online friends that they came online.
func (s *Service) UserConnected(ctx context.Context, user models.Identity) {
	if !s.cfg.NotifyFriendOnline {
		return
	}
	friends, err := s.Friends(ctx, user.ID)
	if err != nil {
		s.logger.Error("Failed to load friends on connect", zap.String("user", user.ID.String()), zap.Error(err))
		return
	}
	s.broadcast(ctx, friends, s.messages.Render(MsgFriendOnline, "{PLAYER}", user.Name))
}

// UserDisconnected drops the user's cached data and tells their online friends.
func (s *Service) UserDisconnected(ctx context.Context, user models.Identity) {
	var friends []models.Friendship
	if s.cfg.NotifyFriendOffline {
		var err error
		friends, err = s.Friends(ctx, user.ID)
		if err != nil {
			s.logger.Error("Failed to load friends on disconnect", zap.String("user", user.ID.String()), zap.Error(err))
		}
	}
	s.ClearCache(user.ID)
	s.broadcast(ctx, friends, s.messages.Render(MsgFriendOffline, "{PLAYER}", user.Name))
}

func (s *Service) broadcast(ctx context.Context, friends []models.Friendship, message string) {
	if len(friends) == 0 {
		return
	}

	p := pool.New().WithMaxGoroutines(maxNotifyWorkers)
	for _, f := range friends {
		if !s.presence.IsOnline(f.TargetID) {
			continue
		}
		p.Go(func() {
			s.deliver(ctx, f.TargetID, message)
		})
	}
	p.Wait()
}

// deliver prefers the notifier and falls back to the messenger when there is none or it fails.
func (s *Service) deliver(ctx context.Context, userID uuid.UUID, message string) {
	if s.notifier != nil {
		err := s.notifier.Notify(ctx, userID, message)
		if err == nil {
			return
		}
		s.logger.Warn("Notifier failed, falling back to direct message",
			zap.String("user", userID.String()), zap.Error(err))
	}
	s.messenger.Send(userID, message)
}
