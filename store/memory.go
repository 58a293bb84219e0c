package store

import (
	"sync"

	"github.com/opd-ai/wamd/types"
)

// MemoryStore is an in-memory DeviceStore for testing or single-run use;
// nothing survives the process.
type MemoryStore struct {
	mu       sync.RWMutex
	devices  map[string]*Device
	firstJID string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{devices: make(map[string]*Device)}
}

// GetFirstDevice returns the most recently paired device, falling back to
// the unpaired placeholder record.
func (s *MemoryStore) GetFirstDevice() (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := s.firstJID
	if key == "" {
		key = placeholderKey
	}
	return cloneDevice(s.devices[key]), nil
}

// GetDevice returns the device stored under the given JID.
func (s *MemoryStore) GetDevice(jid types.JID) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDevice(s.devices[jid.String()]), nil
}

// Save writes a device record, keyed by its JID once paired.
func (s *MemoryStore) Save(device *Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := deviceKey(device)
	if device.ID != nil {
		s.firstJID = key
	}
	s.devices[key] = cloneDevice(device)
	return nil
}

// Delete removes the device stored under the given JID.
func (s *MemoryStore) Delete(jid types.JID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := jid.String()
	delete(s.devices, key)
	if s.firstJID == key {
		s.firstJID = ""
	}
	return nil
}

// GetAllDevices returns every paired device.
func (s *MemoryStore) GetAllDevices() ([]*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]*Device, 0, len(s.devices))
	for _, device := range s.devices {
		if device.ID != nil {
			devices = append(devices, cloneDevice(device))
		}
	}
	return devices, nil
}

// cloneDevice deep-copies a record so callers never share mutable state
// with the store.
func cloneDevice(device *Device) *Device {
	if device == nil {
		return nil
	}
	clone := *device
	if device.ID != nil {
		id := *device.ID
		clone.ID = &id
	}
	if device.LID != nil {
		lid := *device.LID
		clone.LID = &lid
	}
	clone.NoiseKeyPub = cloneBytes(device.NoiseKeyPub)
	clone.NoiseKeyPriv = cloneBytes(device.NoiseKeyPriv)
	clone.IdentityKeyPub = cloneBytes(device.IdentityKeyPub)
	clone.IdentityKeyPriv = cloneBytes(device.IdentityKeyPriv)
	clone.AdvSecretKey = cloneBytes(device.AdvSecretKey)
	clone.Account = cloneBytes(device.Account)
	return &clone
}

func cloneBytes(data []byte) []byte {
	if data == nil {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
