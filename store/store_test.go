package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/wamd/types"
)

// storeUnderTest runs the DeviceStore contract against both
// implementations.
func storeUnderTest(t *testing.T) map[string]DeviceStore {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "devices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]DeviceStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func pairedDevice(user string) *Device {
	jid := types.NewJID(user, types.DefaultUserServer)
	lid := types.NewJID(user, types.HiddenUserServer)
	return &Device{
		ID:              &jid,
		LID:             &lid,
		Platform:        "chrome",
		NoiseKeyPub:     make([]byte, 32),
		NoiseKeyPriv:    make([]byte, 32),
		IdentityKeyPub:  make([]byte, 32),
		IdentityKeyPriv: make([]byte, 32),
		AdvSecretKey:    make([]byte, 32),
		Account:         []byte("signed-identity-blob"),
		RegistrationID:  7,
		SignedPreKeyID:  1,
	}
}

func TestStoreSaveAndGetFirst(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			device := pairedDevice("123")
			require.NoError(t, s.Save(device))

			loaded, err := s.GetFirstDevice()
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, "123@s.whatsapp.net", loaded.ID.String())
			assert.Equal(t, "123@lid", loaded.LID.String())
			assert.Equal(t, "chrome", loaded.Platform)
			assert.Equal(t, uint32(7), loaded.RegistrationID)
			assert.True(t, loaded.IsLoggedIn())
		})
	}
}

func TestStoreGetDeviceByJID(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			device := pairedDevice("456")
			require.NoError(t, s.Save(device))

			loaded, err := s.GetDevice(*device.ID)
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, device.Account, loaded.Account)

			missing, err := s.GetDevice(types.NewJID("999", types.DefaultUserServer))
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestStoreUnpairedPlaceholder(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			// A record without an ID is the pre-pairing placeholder.
			require.NoError(t, s.Save(&Device{Platform: "pending"}))

			loaded, err := s.GetFirstDevice()
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.False(t, loaded.IsLoggedIn())
			assert.Equal(t, "pending", loaded.Platform)

			// Pairing replaces the placeholder as the first device.
			require.NoError(t, s.Save(pairedDevice("123")))
			loaded, err = s.GetFirstDevice()
			require.NoError(t, err)
			assert.True(t, loaded.IsLoggedIn())
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			device := pairedDevice("789")
			require.NoError(t, s.Save(device))
			require.NoError(t, s.Delete(*device.ID))

			loaded, err := s.GetDevice(*device.ID)
			require.NoError(t, err)
			assert.Nil(t, loaded)
		})
	}
}

func TestStoreGetAllDevices(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(&Device{Platform: "placeholder"}))
			require.NoError(t, s.Save(pairedDevice("1")))
			require.NoError(t, s.Save(pairedDevice("2")))

			all, err := s.GetAllDevices()
			require.NoError(t, err)
			// The unpaired placeholder is not listed.
			assert.Len(t, all, 2)
		})
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			device := pairedDevice("42")
			require.NoError(t, s.Save(device))

			device.Platform = "firefox"
			device.RegistrationID = 99
			require.NoError(t, s.Save(device))

			loaded, err := s.GetDevice(*device.ID)
			require.NoError(t, err)
			assert.Equal(t, "firefox", loaded.Platform)
			assert.Equal(t, uint32(99), loaded.RegistrationID)
		})
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	s := NewMemoryStore()
	device := pairedDevice("55")
	require.NoError(t, s.Save(device))

	// Mutating the caller's record must not leak into the store.
	device.Account[0] = 'X'
	loaded, err := s.GetDevice(*device.ID)
	require.NoError(t, err)
	assert.Equal(t, byte('s'), loaded.Account[0])
}
