// Package provision implements a BLE Wi-Fi credential provisioning service.
// The device advertises a single GATT service with one writable/notifiable
// characteristic; a central (typically a phone app) writes "SSID\nPASSWORD"
// to it and the parsed credentials are handed to the application through a
// callback. Status strings are published back on the same characteristic.
package provision

import "errors"

// Provisioning GATT UUIDs.
const (
	ServiceUUID        = "12345678-1234-1234-1234-1234567890ab"
	CharacteristicUUID = "87654321-4321-4321-4321-0987654321ba"
)

// Preferred connection interval range advertised to centrals, in 1.25ms units.
const (
	MinConnInterval = 0x06
	MaxConnInterval = 0x12
)

var (
	// ErrNotInitialized is returned by Start when Begin has not been called.
	ErrNotInitialized = errors.New("provision: session not initialized")
	// ErrAdvertisingUnavailable is returned when the stack cannot obtain an
	// advertising handle.
	ErrAdvertisingUnavailable = errors.New("provision: advertising unavailable")
)

// AdvParams describes the advertising payload and the connection interval
// preferences sent alongside it.
type AdvParams struct {
	DeviceName  string
	MinInterval uint16 // 1.25ms units
	MaxInterval uint16 // 1.25ms units
}

// Peer is the handle for a connected central, valid until the stack reports
// its disconnection.
type Peer interface {
	// Disconnect actively terminates the link to this central.
	Disconnect() error
}

// Events receives connection lifecycle and characteristic write callbacks
// from the BLE stack. Implemented by Session. The stack invokes these from
// its own execution context, concurrently with application calls.
type Events interface {
	HandleConnect(peer Peer)
	HandleDisconnect()
	HandleWrite(value []byte)
}

// Stack abstracts the BLE peripheral stack for testing.
type Stack interface {
	// Register creates the provisioning GATT service and characteristic and
	// attaches the event handlers. Called at most once per stack.
	Register(deviceName string, events Events) error
	// ConfigureAdvertising sets the advertising payload (device name plus
	// service UUID, no scan response). Returns ErrAdvertisingUnavailable if
	// the stack has no advertising handle.
	ConfigureAdvertising(params AdvParams) error
	// StartAdvertising makes the device discoverable and connectable.
	StartAdvertising() error
	// StopAdvertising halts the broadcast. Safe to call when not advertising.
	StopAdvertising() error
	// PublishStatus stores msg as the characteristic value so it is readable
	// on the next connect; if notifyPeer is set it additionally pushes a
	// notification to the subscribed central. Never blocks, never queues.
	PublishStatus(msg string, notifyPeer bool)
}
