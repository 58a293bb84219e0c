package wamd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/wamd/pairing"
	"github.com/opd-ai/wamd/store"
	"github.com/opd-ai/wamd/types"
)

// CompletePairingParams carries everything the pair-success node gave us.
type CompletePairingParams struct {
	// DeviceIdentityBytes is the raw device identity from the server.
	// When HMACKey is set it must end with the 32-byte HMAC-SHA256 tag.
	DeviceIdentityBytes []byte
	// ReqID is the request ID from the pairing flow.
	ReqID        string
	BusinessName string
	Platform     string
	JID          types.JID
	LID          types.JID
	// HMACKey, when non-nil, authenticates DeviceIdentityBytes before
	// any of it is used.
	HMACKey []byte
}

// CompletePairing finishes the pairing flow after the phone scanned a QR
// code: it authenticates the server's device identity, generates the
// long-term key material, countersigns the identity, and persists the
// device record. Emits PairSuccess on success and PairError on failure.
func (c *Client) CompletePairing(params CompletePairingParams) error {
	err := c.completePairing(params)
	if err != nil {
		c.dispatch(PairError{
			ID:           params.JID,
			LID:          params.LID,
			BusinessName: params.BusinessName,
			Platform:     params.Platform,
			Error:        err,
		})
		return err
	}

	c.dispatch(PairSuccess{
		ID:           params.JID,
		LID:          params.LID,
		BusinessName: params.BusinessName,
		Platform:     params.Platform,
	})
	return nil
}

func (c *Client) completePairing(params CompletePairingParams) error {
	payload := params.DeviceIdentityBytes
	if params.HMACKey != nil {
		verified, err := pairing.VerifyDeviceIdentity(params.DeviceIdentityBytes, params.HMACKey)
		if err != nil {
			return fmt.Errorf("pairing: %w", err)
		}
		payload = verified.Payload
	}

	keys, err := pairing.GeneratePairingKeys()
	if err != nil {
		return fmt.Errorf("pairing: %w", err)
	}
	account := pairing.SignDeviceIdentity(payload, keys.IdentityPrivate)

	device, err := c.store.GetFirstDevice()
	if err != nil {
		return fmt.Errorf("pairing: %w", err)
	}
	if device == nil {
		device = &store.Device{}
	}

	jid, lid := params.JID, params.LID
	device.ID = &jid
	device.LID = &lid
	device.BusinessName = params.BusinessName
	device.Platform = params.Platform
	device.NoiseKeyPub = keys.NoisePublic[:]
	device.NoiseKeyPriv = keys.NoisePrivate[:]
	device.IdentityKeyPub = keys.IdentityPublic[:]
	device.IdentityKeyPriv = keys.IdentityPrivate[:]
	device.AdvSecretKey = keys.AdvSecret[:]
	device.Account = account

	if err := c.store.Save(device); err != nil {
		return fmt.Errorf("pairing: %w", err)
	}

	c.mu.Lock()
	c.device = device
	c.mu.Unlock()
	c.loggedIn.Store(true)

	logrus.WithFields(logrus.Fields{
		"function": "CompletePairing",
		"package":  "wamd",
		"jid":      params.JID.String(),
		"req_id":   params.ReqID,
	}).Info("Pairing completed")
	return nil
}
