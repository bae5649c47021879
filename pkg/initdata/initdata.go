// Package initdata defines the launch payload a mini app receives from the
// host platform, and parsing of its raw query-string form into a typed,
// unverified mirror.
//
// The raw string is the only value safe to forward for signature checking:
// the mirror produced by Parse is convenient but untrusted until a remote
// party holding the bot secret re-verifies the hash. Callers making any
// security-relevant decision must use the raw form.
package initdata

import "time"

// ChatType identifies the kind of chat a mini app was launched from.
type ChatType string

const (
	ChatTypeGroup      ChatType = "group"
	ChatTypeSupergroup ChatType = "supergroup"
	ChatTypeChannel    ChatType = "channel"
	// Sender and private appear only in the top-level chat_type field,
	// never in Chat.Type.
	ChatTypeSender  ChatType = "sender"
	ChatTypePrivate ChatType = "private"
)

// User describes a participant on the host platform. Only ID and FirstName
// are always present; the rest the host may omit.
type User struct {
	ID              int64  `json:"id"`
	IsBot           bool   `json:"is_bot,omitempty"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name,omitempty"`
	Username        string `json:"username,omitempty"`
	LanguageCode    string `json:"language_code,omitempty"`
	IsPremium       bool   `json:"is_premium,omitempty"`
	AllowsWriteToPM bool   `json:"allows_write_to_pm,omitempty"`
	PhotoURL        string `json:"photo_url,omitempty"`
}

// Chat describes the conversation a mini app was launched from. Present only
// for apps launched from an attachment menu inside a chat.
type Chat struct {
	ID       int64    `json:"id"`
	Type     ChatType `json:"type"` // "group", "supergroup" or "channel"
	Title    string   `json:"title"`
	Username string   `json:"username,omitempty"`
	PhotoURL string   `json:"photo_url,omitempty"`
}

// InitData is the parsed, UNVERIFIED mirror of the raw launch payload.
// AuthDate and Hash are the only fields the host always supplies; every
// other field may legitimately be absent depending on how the app was
// launched.
type InitData struct {
	QueryID      string   `json:"query_id,omitempty"`
	User         *User    `json:"user,omitempty"`
	Receiver     *User    `json:"receiver,omitempty"`
	Chat         *Chat    `json:"chat,omitempty"`
	ChatType     ChatType `json:"chat_type,omitempty"`
	ChatInstance string   `json:"chat_instance,omitempty"`
	StartParam   string   `json:"start_param,omitempty"`
	CanSendAfter int      `json:"can_send_after,omitempty"`
	AuthDate     int64    `json:"auth_date"`
	Hash         string   `json:"hash"`
}

// AuthTime returns AuthDate as a time.Time.
func (d InitData) AuthTime() time.Time {
	return time.Unix(d.AuthDate, 0)
}
