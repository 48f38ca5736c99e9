package social

import (
	"strings"

	"socialgraph/config"
)

type MessageKey string

const (
	MsgFriendAdded       MessageKey = "friend_added"
	MsgFriendRemoved     MessageKey = "friend_removed"
	MsgFriendOnline      MessageKey = "friend_online"
	MsgFriendOffline     MessageKey = "friend_offline"
	MsgRequestSent       MessageKey = "request_sent"
	MsgRequestReceived   MessageKey = "request_received"
	MsgRequestDenied     MessageKey = "request_denied"
	MsgRequestDuplicate  MessageKey = "request_already_sent"
	MsgRequestNotFound   MessageKey = "request_not_found"
	MsgRequestExpired    MessageKey = "request_expired"
	MsgMaxFriends        MessageKey = "max_friends_reached"
	MsgAlreadyFriends    MessageKey = "already_friends"
	MsgNotFriend         MessageKey = "not_a_friend"
	MsgBlocked           MessageKey = "blocked"
	MsgPlayerBlocked     MessageKey = "player_blocked"
	MsgPlayerUnblocked   MessageKey = "player_unblocked"
	MsgAlreadyBlocked    MessageKey = "already_blocked"
	MsgNotBlocked        MessageKey = "not_blocked"
	MsgCannotTargetSelf  MessageKey = "cannot_target_self"
	MsgPlayerOffline     MessageKey = "player_offline"
	MsgTeleportDisabled  MessageKey = "teleport_disabled"
	MsgTeleportCooldown  MessageKey = "teleport_cooldown"
	MsgTeleported        MessageKey = "teleported"
	MsgPrivateMessageIn  MessageKey = "private_message_in"
	MsgPrivateMessageOut MessageKey = "private_message_out"
)

const colorCodes = "0123456789abcdefklmnorABCDEFKLMNOR"

// Messages renders the configured templates. Colour markup is translated once, up front,
// so substituted values such as player names and chat text are never reinterpreted.
type Messages struct {
	templates map[MessageKey]string
}

func NewMessages(cfg config.MessagesConfig) *Messages {
	raw := map[MessageKey]string{
		MsgFriendAdded:       cfg.FriendAdded,
		MsgFriendRemoved:     cfg.FriendRemoved,
		MsgFriendOnline:      cfg.FriendOnline,
		MsgFriendOffline:     cfg.FriendOffline,
		MsgRequestSent:       cfg.RequestSent,
		MsgRequestReceived:   cfg.RequestReceived,
		MsgRequestDenied:     cfg.RequestDenied,
		MsgRequestDuplicate:  cfg.RequestDuplicate,
		MsgRequestNotFound:   cfg.RequestNotFound,
		MsgRequestExpired:    cfg.RequestExpired,
		MsgMaxFriends:        cfg.MaxFriends,
		MsgAlreadyFriends:    cfg.AlreadyFriends,
		MsgNotFriend:         cfg.NotFriend,
		MsgBlocked:           cfg.Blocked,
		MsgPlayerBlocked:     cfg.PlayerBlocked,
		MsgPlayerUnblocked:   cfg.PlayerUnblocked,
		MsgAlreadyBlocked:    cfg.AlreadyBlocked,
		MsgNotBlocked:        cfg.NotBlocked,
		MsgCannotTargetSelf:  cfg.CannotTargetSelf,
		MsgPlayerOffline:     cfg.PlayerOffline,
		MsgTeleportDisabled:  cfg.TeleportDisabled,
		MsgTeleportCooldown:  cfg.TeleportCooldown,
		MsgTeleported:        cfg.Teleported,
		MsgPrivateMessageIn:  cfg.PrivateMessageIn,
		MsgPrivateMessageOut: cfg.PrivateMessageOut,
	}

	m := &Messages{templates: make(map[MessageKey]string, len(raw))}
	for key, tmpl := range raw {
		m.templates[key] = TranslateColors(tmpl, cfg.ColorPrefix)
	}
	return m
}

// Render fills a template. vars are placeholder/value pairs, e.g. "{PLAYER}", "Steve".
// An unknown key renders as the key itself.
func (m *Messages) Render(key MessageKey, vars ...string) string {
	tmpl, ok := m.templates[key]
	if !ok || tmpl == "" {
		tmpl = string(key)
	}
	if len(vars)%2 == 1 {
		vars = vars[:len(vars)-1]
	}
	if len(vars) == 0 {
		return tmpl
	}
	return strings.NewReplacer(vars...).Replace(tmpl)
}

// TranslateColors turns "&<code>" markup into prefix+code. An ampersand not followed by a
// colour code is kept as is.
func TranslateColors(s, prefix string) string {
	if prefix == "" || !strings.Contains(s, "&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '&' && i+1 < len(s) && strings.IndexByte(colorCodes, s[i+1]) >= 0 {
			b.WriteString(prefix)
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// StripColors removes prefix+code sequences, for channels that cannot render them.
func StripColors(s, prefix string) string {
	if prefix == "" {
		return s
	}

	var b strings.Builder
	for {
		i := strings.Index(s, prefix)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i+len(prefix):]
		if s != "" && strings.IndexByte(colorCodes, s[0]) >= 0 {
			s = s[1:]
		}
	}
}
