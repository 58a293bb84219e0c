package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Known JID servers.
const (
	DefaultUserServer = "s.whatsapp.net"
	GroupServer       = "g.us"
	LegacyUserServer  = "c.us"
	BroadcastServer   = "broadcast"
	HiddenUserServer  = "lid"
	NewsletterServer  = "newsletter"
)

// MessageID identifies one message.
type MessageID = string

// ErrInvalidJID indicates a string that does not parse as a JID.
var ErrInvalidJID = errors.New("invalid JID format")

// JID addresses a user, group, or server. The zero value is the empty JID.
// Device-specific addressing uses the AD form user.agent:device@server.
type JID struct {
	User       string
	RawAgent   uint8
	Device     uint16
	Integrator uint16
	Server     string
}

// NewJID creates a regular user@server JID.
func NewJID(user, server string) JID {
	return JID{User: user, Server: server}
}

// NewADJID creates a device-specific JID (user.agent:device@server).
func NewADJID(user string, agent uint8, device uint16, server string) JID {
	return JID{User: user, RawAgent: agent, Device: device, Server: server}
}

// ServerJID creates a JID with no user part.
func ServerJID(server string) JID {
	return JID{Server: server}
}

// Well-known JIDs.
var (
	GroupServerJID     = ServerJID(GroupServer)
	DefaultServerJID   = ServerJID(DefaultUserServer)
	BroadcastServerJID = ServerJID(BroadcastServer)
	StatusBroadcastJID = NewJID("status", BroadcastServer)
)

// ParseJID parses a JID string. A string without '@' is a server JID.
func ParseJID(raw string) (JID, error) {
	parts := strings.Split(raw, "@")
	if len(parts) == 1 {
		return ServerJID(parts[0]), nil
	}
	if len(parts) != 2 {
		return JID{}, fmt.Errorf("%w: %q", ErrInvalidJID, raw)
	}
	jid := JID{User: parts[0], Server: parts[1]}

	if strings.Contains(jid.User, ".") {
		userAgent := strings.SplitN(jid.User, ".", 2)
		jid.User = userAgent[0]
		agentDevice := strings.Split(userAgent[1], ":")
		agent, err := strconv.ParseUint(agentDevice[0], 10, 8)
		if err != nil {
			return JID{}, fmt.Errorf("%w: agent in %q", ErrInvalidJID, raw)
		}
		jid.RawAgent = uint8(agent)
		if len(agentDevice) == 2 {
			device, err := strconv.ParseUint(agentDevice[1], 10, 16)
			if err != nil {
				return JID{}, fmt.Errorf("%w: device in %q", ErrInvalidJID, raw)
			}
			jid.Device = uint16(device)
		}
	} else if strings.Contains(jid.User, ":") {
		userDevice := strings.SplitN(jid.User, ":", 2)
		jid.User = userDevice[0]
		device, err := strconv.ParseUint(userDevice[1], 10, 16)
		if err != nil {
			return JID{}, fmt.Errorf("%w: device in %q", ErrInvalidJID, raw)
		}
		jid.Device = uint16(device)
	}
	return jid, nil
}

// String formats the JID back to its wire representation.
func (j JID) String() string {
	switch {
	case j.RawAgent > 0:
		return fmt.Sprintf("%s.%d:%d@%s", j.User, j.RawAgent, j.Device, j.Server)
	case j.Device > 0:
		return fmt.Sprintf("%s:%d@%s", j.User, j.Device, j.Server)
	case j.User != "":
		return j.User + "@" + j.Server
	default:
		return j.Server
	}
}

// IsEmpty reports whether this is the zero JID.
func (j JID) IsEmpty() bool {
	return j.Server == ""
}

// UserInt returns the user part as an integer, or 0 if it is not numeric.
func (j JID) UserInt() uint64 {
	value, err := strconv.ParseUint(j.User, 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// ToNonAD strips the agent and device parts, yielding the regular
// user@server JID.
func (j JID) ToNonAD() JID {
	return JID{User: j.User, Integrator: j.Integrator, Server: j.Server}
}

// IsBroadcastList reports whether this JID is a broadcast list (not the
// status broadcast).
func (j JID) IsBroadcastList() bool {
	return j.Server == BroadcastServer && j.User != "status"
}
