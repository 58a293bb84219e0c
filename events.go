package wamd

import (
	"fmt"
	"time"

	"github.com/opd-ai/wamd/binary"
	"github.com/opd-ai/wamd/types"
)

// Event is the closed set of notifications the client delivers to
// registered handlers. The variant set is sealed so a handler's type
// switch can be checked for completeness.
type Event interface {
	isEvent()
}

// QR carries the pairing references from a pair-device request. Render
// them as QR codes one at a time; the first is valid for about a minute,
// the rest for about twenty seconds each.
type QR struct {
	Codes []string
}

// PairSuccess is emitted once pairing completes and the device record has
// been persisted.
type PairSuccess struct {
	ID           types.JID
	LID          types.JID
	BusinessName string
	Platform     string
}

// PairError is emitted when the server accepted the pairing but the local
// completion step failed.
type PairError struct {
	ID           types.JID
	LID          types.JID
	BusinessName string
	Platform     string
	Error        error
}

// Connected is emitted after the server acknowledges the session.
type Connected struct{}

// Disconnected is emitted when the transport drops for a transient
// reason. Reconnecting is the caller's choice.
type Disconnected struct {
	Reason string
}

// LoggedOut is emitted when the server ends the session for good.
// OnConnect is true when the rejection happened during connect rather
// than mid-session.
type LoggedOut struct {
	OnConnect bool
	Reason    ConnectFailureReason
}

// StreamReplaced is emitted when another client connected with the same
// keys and took over the stream.
type StreamReplaced struct{}

// KeepAliveTimeout is emitted when keepalive pings start failing.
type KeepAliveTimeout struct {
	ErrorCount  int
	LastSuccess time.Time
}

// KeepAliveRestored is emitted when a ping succeeds again after one or
// more KeepAliveTimeout events.
type KeepAliveRestored struct{}

// TemporaryBan is emitted when the account is temporarily banned.
type TemporaryBan struct {
	Code   TempBanReason
	Expire time.Duration
}

// NodeReceived carries a decoded incoming node that the client itself did
// not consume. Handlers get every such node.
type NodeReceived struct {
	Node *binary.Node
}

func (QR) isEvent()                {}
func (PairSuccess) isEvent()       {}
func (PairError) isEvent()         {}
func (Connected) isEvent()         {}
func (Disconnected) isEvent()      {}
func (LoggedOut) isEvent()         {}
func (StreamReplaced) isEvent()    {}
func (KeepAliveTimeout) isEvent()  {}
func (KeepAliveRestored) isEvent() {}
func (TemporaryBan) isEvent()      {}
func (NodeReceived) isEvent()      {}

// ConnectFailureReason is the server's code for refusing or ending a
// session.
type ConnectFailureReason int

const (
	FailureGeneric             ConnectFailureReason = 400
	FailureLoggedOut           ConnectFailureReason = 401
	FailureTempBanned          ConnectFailureReason = 402
	FailureMainDeviceGone      ConnectFailureReason = 403
	FailureClientOutdated      ConnectFailureReason = 405
	FailureUnknownLogout       ConnectFailureReason = 406
	FailureBadUserAgent        ConnectFailureReason = 409
	FailureCATExpired          ConnectFailureReason = 413
	FailureCATInvalid          ConnectFailureReason = 414
	FailureNotFound            ConnectFailureReason = 415
	FailureClientUnknown       ConnectFailureReason = 418
	FailureInternalServerError ConnectFailureReason = 500
	FailureExperimental        ConnectFailureReason = 501
	FailureServiceUnavailable  ConnectFailureReason = 503
)

// IsLoggedOut reports whether the reason means the session is gone and
// the device must pair again.
func (r ConnectFailureReason) IsLoggedOut() bool {
	switch r {
	case FailureLoggedOut, FailureMainDeviceGone, FailureUnknownLogout:
		return true
	}
	return false
}

func (r ConnectFailureReason) String() string {
	switch r {
	case FailureLoggedOut:
		return fmt.Sprintf("logged out from another device (code %d)", int(r))
	case FailureTempBanned:
		return fmt.Sprintf("account temporarily banned (code %d)", int(r))
	case FailureMainDeviceGone:
		return fmt.Sprintf("primary device was logged out (code %d)", int(r))
	case FailureUnknownLogout:
		return fmt.Sprintf("logged out for unknown reason (code %d)", int(r))
	case FailureClientOutdated:
		return fmt.Sprintf("client is out of date (code %d)", int(r))
	case FailureBadUserAgent:
		return fmt.Sprintf("client user agent was rejected (code %d)", int(r))
	case FailureCATExpired:
		return fmt.Sprintf("messenger crypto auth token has expired (code %d)", int(r))
	case FailureCATInvalid:
		return fmt.Sprintf("messenger crypto auth token is invalid (code %d)", int(r))
	}
	return fmt.Sprintf("connection failure (code %d)", int(r))
}

// TempBanReason is the server's code for why the account was banned.
type TempBanReason int

const (
	BanSentToTooManyPeople    TempBanReason = 101
	BanBlockedByUsers         TempBanReason = 102
	BanCreatedTooManyGroups   TempBanReason = 103
	BanSentTooManySameMessage TempBanReason = 104
	BanBroadcastList          TempBanReason = 106
)

func (r TempBanReason) String() string {
	switch r {
	case BanSentToTooManyPeople:
		return "sent too many messages to people who don't have you in their address books"
	case BanBlockedByUsers:
		return "blocked by too many users"
	case BanCreatedTooManyGroups:
		return "created too many groups with people who don't have you in their address books"
	case BanSentTooManySameMessage:
		return "sent the same message to too many people"
	case BanBroadcastList:
		return "sent too many messages to a broadcast list"
	}
	return fmt.Sprintf("ban reason %d", int(r))
}
