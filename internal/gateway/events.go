package gateway

import (
	"encoding/json"
	"strconv"
	"time"
)

// gateway opcodes
const (
	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opHello        = 10
	opHeartbeatAck = 11
)

// dispatch event names the bot cares about
const (
	EventReady             = "READY"
	EventInteractionCreate = "INTERACTION_CREATE"
	EventGuildMemberAdd    = "GUILD_MEMBER_ADD"
	EventGuildMemberRemove = "GUILD_MEMBER_REMOVE"
)

// intents: guilds + members + message content, same set the bot needs for
// slash commands and role edits
const defaultIntents = 1<<0 | 1<<1 | 1<<15

const permAdministrator = 1 << 3

// Frame is a single gateway message. Op selects the payload shape; T and S
// are set only on dispatch frames.
type Frame struct {
	Op int             `json:"op"`
	T  string          `json:"t,omitempty"`
	S  *int64          `json:"s,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"` // milliseconds
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// User is the wire shape of a platform account. IDs travel as decimal
// strings.
type User struct {
	ID       uint64 `json:"id,string"`
	Username string `json:"username"`
}

// Member is a user scoped to a guild: nickname, role ids and the resolved
// permission bitfield.
type Member struct {
	User        User      `json:"user"`
	Nick        string    `json:"nick,omitempty"`
	Roles       []string  `json:"roles"`
	JoinedAt    time.Time `json:"joined_at"`
	Permissions string    `json:"permissions,omitempty"`
}

// DisplayName prefers the guild nickname over the account name.
func (m *Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.User.Username
}

func (m *Member) HasRole(id uint64) bool {
	want := strconv.FormatUint(id, 10)
	for _, r := range m.Roles {
		if r == want {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the member's permission bitfield carries the
// administrator bit.
func (m *Member) IsAdmin() bool {
	p, err := strconv.ParseUint(m.Permissions, 10, 64)
	if err != nil {
		return false
	}
	return p&permAdministrator != 0
}

// Interaction is a slash-command invocation delivered over the gateway.
type Interaction struct {
	ID      uint64          `json:"id,string"`
	Token   string          `json:"token"`
	GuildID uint64          `json:"guild_id,string"`
	Member  Member          `json:"member"`
	Data    InteractionData `json:"data"`
}

type InteractionData struct {
	Name string `json:"name"`
}

// Ready is the payload of the READY dispatch.
type Ready struct {
	User        User `json:"user"`
	Application struct {
		ID uint64 `json:"id,string"`
	} `json:"application"`
}

// MemberAdd is the payload of GUILD_MEMBER_ADD: a member plus the guild it
// joined.
type MemberAdd struct {
	Member
	GuildID uint64 `json:"guild_id,string"`
}

// MemberRemove is the payload of GUILD_MEMBER_REMOVE. Only the bare user
// survives; roles and join date are already gone.
type MemberRemove struct {
	GuildID uint64 `json:"guild_id,string"`
	User    User   `json:"user"`
}
