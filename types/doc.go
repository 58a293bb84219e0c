// Package types defines the identifier types shared across the client:
// the JID addressing users, groups, and servers, and the message ID.
package types
