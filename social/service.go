// Package social implements the friend graph: friend requests, friendships, the blacklist and
// the teleport cooldown. Service is the only writer of the request ledger and the caches.
package social

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"socialgraph/config"
	"socialgraph/models"
)

const maxNotifyWorkers = 8

type Service struct {
	cfg         config.SocialConfig
	friendships FriendshipStore
	blacklist   BlacklistStore
	messenger   Messenger
	presence    Presence
	notifier    Notifier
	teleporter  Teleporter
	messages    *Messages
	clock       Clock
	metrics     *Metrics
	retryPolicy func() backoff.BackOff
	ledger      *Ledger
	friendCache *Cache[[]models.Friendship]
	blockCache  *Cache[[]models.BlacklistEntry]
	cooldowns   *Cooldowns
	logger      *zap.Logger
}

type Option func(*Service)

// WithNotifier routes presence notifications through n instead of the messenger.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithTeleporter(t Teleporter) Option {
	return func(s *Service) { s.teleporter = t }
}

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRetryPolicy sets the backoff used for the second half of a friendship insert.
func WithRetryPolicy(policy func() backoff.BackOff) Option {
	return func(s *Service) { s.retryPolicy = policy }
}

func NewService(
	cfg config.SocialConfig,
	messages config.MessagesConfig,
	friendships FriendshipStore,
	blacklist BlacklistStore,
	messenger Messenger,
	presence Presence,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:         cfg,
		friendships: friendships,
		blacklist:   blacklist,
		messenger:   messenger,
		presence:    presence,
		messages:    NewMessages(messages),
		clock:       systemClock{},
		retryPolicy: defaultRetryPolicy,
		ledger:      NewLedger(),
		friendCache: NewCache[[]models.Friendship](),
		blockCache:  NewCache[[]models.BlacklistEntry](),
		logger:      logger.Named("social_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cooldowns = NewCooldowns(cfg.TeleportWindow(), s.clock)
	return s
}

func defaultRetryPolicy() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(100*time.Millisecond),
		backoff.WithMaxInterval(time.Second),
		backoff.WithMaxElapsedTime(5*time.Second),
	), 3)
}

func (s *Service) Messages() *Messages {
	return s.messages
}

// SendRequest asks receiver to become sender's friend. If receiver already has a live
// request out to sender, the two are made friends straight away.
func (s *Service) SendRequest(ctx context.Context, sender, receiver models.Identity) (bool, error) {
	ok, err := s.sendRequest(ctx, sender, receiver)
	s.metrics.observe("send_request", ok, err)
	return ok, err
}

func (s *Service) sendRequest(ctx context.Context, sender, receiver models.Identity) (bool, error) {
	if sender.ID == receiver.ID {
		s.tell(sender.ID, MsgCannotTargetSelf)
		return false, nil
	}

	blocked, err := s.IsBlocked(ctx, sender.ID, receiver.ID)
	if err != nil {
		return false, err
	}
	if blocked {
		s.tell(sender.ID, MsgBlocked, receiver.Name)
		return false, nil
	}

	friends, err := s.AreFriends(ctx, sender.ID, receiver.ID)
	if err != nil {
		return false, err
	}
	if friends {
		s.tell(sender.ID, MsgAlreadyFriends, receiver.Name)
		return false, nil
	}

	count, err := s.FriendCount(ctx, sender.ID)
	if err != nil {
		return false, err
	}
	if count >= s.cfg.MaxFriends {
		s.tell(sender.ID, MsgMaxFriends, receiver.Name)
		return false, nil
	}

	now := s.clock.Now()
	ttl := s.cfg.RequestTTL()

	if _, ok := s.ledger.Lookup(receiver.ID, sender.ID, now, ttl); ok {
		s.tell(sender.ID, MsgRequestDuplicate, receiver.Name)
		return false, nil
	}

	if reverse, ok := s.ledger.Lookup(sender.ID, receiver.ID, now, ttl); ok {
		s.logger.Debug("Mutual friend request, accepting",
			zap.String("sender", sender.ID.String()),
			zap.String("receiver", receiver.ID.String()))
		return s.accept(ctx, sender, reverse)
	}

	if !s.ledger.Add(models.NewFriendRequest(sender, receiver.ID, now), now, ttl) {
		s.tell(sender.ID, MsgRequestDuplicate, receiver.Name)
		return false, nil
	}

	s.tell(sender.ID, MsgRequestSent, receiver.Name)
	s.tell(receiver.ID, MsgRequestReceived, sender.Name)
	return true, nil
}

// AcceptRequest accepts the receiver's pending request from the sender with the given
// display name.
func (s *Service) AcceptRequest(ctx context.Context, receiver models.Identity, senderName string) (bool, error) {
	ok, err := s.acceptRequest(ctx, receiver, senderName)
	s.metrics.observe("accept_request", ok, err)
	return ok, err
}

func (s *Service) acceptRequest(ctx context.Context, receiver models.Identity, senderName string) (bool, error) {
	req, ok := s.ledger.Find(receiver.ID, senderName)
	if !ok {
		s.tell(receiver.ID, MsgRequestNotFound, senderName)
		return false, nil
	}

	if req.IsExpired(s.clock.Now(), s.cfg.RequestTTL()) {
		s.ledger.Take(req)
		s.tell(receiver.ID, MsgRequestExpired, req.SenderName)
		return false, nil
	}

	return s.accept(ctx, receiver, req)
}

// accept turns req, addressed to receiver, into a friendship.
func (s *Service) accept(ctx context.Context, receiver models.Identity, req models.FriendRequest) (bool, error) {
	sender := models.Identity{ID: req.SenderID, Name: req.SenderName}

	blocked, err := s.IsBlocked(ctx, receiver.ID, sender.ID)
	if err != nil {
		return false, err
	}
	if blocked {
		s.ledger.Take(req)
		s.tell(receiver.ID, MsgBlocked, sender.Name)
		return false, nil
	}

	count, err := s.FriendCount(ctx, receiver.ID)
	if err != nil {
		return false, err
	}
	if count >= s.cfg.MaxFriends {
		s.tell(receiver.ID, MsgMaxFriends, sender.Name)
		return false, nil
	}

	if !s.ledger.Take(req) {
		// consumed by a concurrent accept or deny
		s.tell(receiver.ID, MsgRequestNotFound, sender.Name)
		return false, nil
	}

	if err := s.ensureEdge(ctx, receiver.ID, sender); err != nil {
		// nothing was written, give the receiver the request back
		s.ledger.Add(req, s.clock.Now(), s.cfg.RequestTTL())
		s.friendCache.Invalidate(receiver.ID)
		return false, err
	}
	s.ledger.Remove(sender.ID, receiver.ID)

	err = s.mirror(ctx, receiver, sender)
	s.friendCache.Invalidate(receiver.ID, sender.ID)
	if err != nil {
		return false, err
	}

	s.tell(receiver.ID, MsgFriendAdded, sender.Name)
	if s.presence.IsOnline(sender.ID) {
		s.tell(sender.ID, MsgFriendAdded, receiver.Name)
	}

	s.logger.Debug("Friend request accepted",
		zap.String("receiver", receiver.ID.String()),
		zap.String("sender", sender.ID.String()))
	return true, nil
}

// mirror writes the b->a edge once a->b exists. The two inserts are not atomic; this one is
// idempotent and retried so a transient failure does not leave a one-sided friendship.
func (s *Service) mirror(ctx context.Context, a, b models.Identity) error {
	err := backoff.Retry(func() error {
		return s.ensureEdge(ctx, b.ID, a)
	}, backoff.WithContext(s.retryPolicy(), ctx))
	if err != nil {
		s.logger.Error("Friendship is one-sided, reverse edge could not be written",
			zap.String("owner", b.ID.String()),
			zap.String("target", a.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to write reverse friendship: %w", err)
	}
	return nil
}

func (s *Service) ensureEdge(ctx context.Context, ownerID uuid.UUID, target models.Identity) error {
	exists, err := s.friendships.Exists(ctx, models.ByPair(ownerID.String(), target.ID.String()))
	if err != nil {
		return fmt.Errorf("failed to check friendship: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := s.friendships.Insert(ctx, models.NewFriendship(ownerID, target, s.clock.Now())); err != nil {
		return fmt.Errorf("failed to insert friendship: %w", err)
	}
	return nil
}

// DenyRequest drops the receiver's request from senderName. Expired requests can be denied.
func (s *Service) DenyRequest(ctx context.Context, receiver models.Identity, senderName string) (bool, error) {
	ok := s.denyRequest(receiver, senderName)
	s.metrics.observe("deny_request", ok, nil)
	return ok, nil
}

func (s *Service) denyRequest(receiver models.Identity, senderName string) bool {
	req, ok := s.ledger.Find(receiver.ID, senderName)
	if !ok || !s.ledger.Take(req) {
		s.tell(receiver.ID, MsgRequestNotFound, senderName)
		return false
	}

	s.tell(receiver.ID, MsgRequestDenied, req.SenderName)
	return true
}

// PendingRequests lists the receiver's live requests, oldest first.
func (s *Service) PendingRequests(receiverID uuid.UUID) []models.FriendRequest {
	return s.ledger.Pending(receiverID, s.clock.Now(), s.cfg.RequestTTL())
}

// ClearCache forgets everything cached for id.
func (s *Service) ClearCache(id uuid.UUID) {
	s.friendCache.Invalidate(id)
	s.blockCache.Invalidate(id)
}

func (s *Service) tell(userID uuid.UUID, key MessageKey, player ...string) {
	if len(player) > 0 {
		s.messenger.Send(userID, s.messages.Render(key, "{PLAYER}", player[0]))
		return
	}
	s.messenger.Send(userID, s.messages.Render(key))
}
