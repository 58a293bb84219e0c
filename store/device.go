package store

import (
	"github.com/opd-ai/wamd/types"
)

// Device is the identity record of one linked device. Key fields are nil
// until pairing completes; losing any of the four secrets means the device
// must re-pair.
type Device struct {
	// ID is our JID after pairing; nil while unpaired.
	ID *types.JID
	// LID is the hidden-user counterpart of ID.
	LID          *types.JID
	BusinessName string
	Platform     string

	// NoiseKeyPub and NoiseKeyPriv are the long-term Curve25519 handshake
	// identity (32 bytes each).
	NoiseKeyPub  []byte
	NoiseKeyPriv []byte
	// IdentityKeyPub and IdentityKeyPriv are the Ed25519 signing identity
	// (32 bytes each).
	IdentityKeyPub  []byte
	IdentityKeyPriv []byte
	// AdvSecretKey is the 32-byte advertising secret from pairing.
	AdvSecretKey []byte

	// Account is the signed identity blob (public key ∥ signature ∥
	// payload) produced at pairing time.
	Account []byte

	RegistrationID uint32
	SignedPreKeyID uint32
}

// IsLoggedIn reports whether this device completed pairing.
func (d *Device) IsLoggedIn() bool {
	return d != nil && d.ID != nil
}

// DeviceStore persists and loads device records. Lookups that find nothing
// return (nil, nil); errors are reserved for storage failures.
type DeviceStore interface {
	// GetFirstDevice returns the primary device record, if any. Used to
	// create a client.
	GetFirstDevice() (*Device, error)

	// GetDevice returns the device stored under the given JID.
	GetDevice(jid types.JID) (*Device, error)

	// Save writes a device record (after pairing or key changes).
	Save(device *Device) error

	// Delete removes the device stored under the given JID (logout).
	Delete(jid types.JID) error

	// GetAllDevices returns every paired device.
	GetAllDevices() ([]*Device, error)
}

// placeholderKey stores the not-yet-paired device record.
const placeholderKey = "__first"

// deviceKey is the storage key for a device: its JID once paired, the
// placeholder before.
func deviceKey(device *Device) string {
	if device.ID != nil {
		return device.ID.String()
	}
	return placeholderKey
}
