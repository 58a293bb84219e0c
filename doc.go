// Package wamd implements the client side of the WhatsApp Web multidevice
// protocol core: the binary node codec, the length-prefixed framing, the
// Noise XX handshake with the encrypted transport on top, and the device
// pairing cryptography.
//
// This package provides the Client facade that ties the subsystems
// together: the binary/ codec, the transport/ framing and Noise layers,
// the pairing/ key material, and the store/ device persistence.
//
// # Getting Started
//
// Create a client with a device store and register an event handler:
//
//	deviceStore, err := store.NewSQLiteStore("devices.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := wamd.NewClient(deviceStore)
//	client.AddEventHandler(func(evt wamd.Event) {
//	    switch e := evt.(type) {
//	    case wamd.QR:
//	        fmt.Println("Scan to pair:", e.Codes[0])
//	    case wamd.Connected:
//	        fmt.Println("Connected")
//	    case wamd.LoggedOut:
//	        fmt.Println("Logged out:", e.Reason)
//	    }
//	})
//
//	if err := client.Connect(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Events arrive on the receive goroutine, so handlers must return
// quickly. Disconnect closes the transport and keeps the session;
// Logout deletes the device record as well.
package wamd
