package chat

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyText       = errors.New("message text is required")
	ErrInvalidLocation = errors.New("location out of range")
	ErrUserLocation    = errors.New("user messages cannot carry a location")
	ErrUnknownRole     = errors.New("unknown message role")
)

// Role 标记一条消息的发送方。
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Location is a WGS84 coordinate attached to a resolved answer.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks latitude ∈ [-90, 90] and longitude ∈ [-180, 180].
func (l Location) Validate() error {
	// Written as a positive range check so NaN fails it too.
	if !(l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180) {
		return ErrInvalidLocation
	}
	return nil
}

// Message is one turn of a geo chat conversation.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Location  *Location `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transcript 按对话顺序保存消息，只追加不修改。
type Transcript []Message

// NewUserMessage builds a user turn.
func NewUserMessage(text string) (Message, error) {
	msg := Message{Role: RoleUser, Text: text}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// NewBotMessage builds a bot turn, optionally located.
func NewBotMessage(text string, loc *Location) (Message, error) {
	msg := Message{Role: RoleBot, Text: text}
	if loc != nil {
		copied := *loc
		msg.Location = &copied
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Validate enforces the per-role invariants.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return ErrEmptyText
	}

	switch m.Role {
	case RoleUser:
		if m.Location != nil {
			return ErrUserLocation
		}
	case RoleBot:
		if m.Location != nil {
			return m.Location.Validate()
		}
	default:
		return ErrUnknownRole
	}
	return nil
}

// HasLocation reports whether the message should be rendered with a map.
func (m Message) HasLocation() bool {
	return m.Role == RoleBot && m.Location != nil
}

// Clone returns a copy that shares no pointers with t.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return Transcript{}
	}
	copied := make(Transcript, len(t))
	for i, msg := range t {
		if msg.Location != nil {
			loc := *msg.Location
			msg.Location = &loc
		}
		copied[i] = msg
	}
	return copied
}
