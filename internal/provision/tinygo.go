package provision

import (
	"fmt"
	"log/slog"
	"sync"

	"tinygo.org/x/bluetooth"
)

// TinyGoStack binds the Stack abstraction to tinygo-org/bluetooth, which
// fronts BlueZ on Linux, CoreBluetooth on macOS, and WinRT on Windows.
type TinyGoStack struct {
	adapter *bluetooth.Adapter
	log     *slog.Logger

	// mu protects the fields below; PublishStatus may race with Register.
	mu         sync.Mutex
	registered bool
	adv        *bluetooth.Advertisement
	char       bluetooth.Characteristic
	svcUUID    bluetooth.UUID
}

// NewTinyGoStack creates a stack binding on the default adapter. A nil
// logger defaults to slog.Default().
func NewTinyGoStack(logger *slog.Logger) *TinyGoStack {
	if logger == nil {
		logger = slog.Default()
	}
	return &TinyGoStack{adapter: bluetooth.DefaultAdapter, log: logger}
}

func (s *TinyGoStack) Register(deviceName string, events Events) error {
	svcUUID, err := bluetooth.ParseUUID(ServiceUUID)
	if err != nil {
		return fmt.Errorf("ble: parse service UUID: %w", err)
	}
	charUUID, err := bluetooth.ParseUUID(CharacteristicUUID)
	if err != nil {
		return fmt.Errorf("ble: parse characteristic UUID: %w", err)
	}

	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}

	// Connection events arrive on the stack's own goroutine. The handler
	// fires for both directions; connected=false means the central dropped.
	s.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			events.HandleConnect(tinyGoPeer{device: device})
			return
		}
		events.HandleDisconnect()
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.adapter.AddService(&bluetooth.Service{
		UUID: svcUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &s.char,
				UUID:   charUUID,
				Value:  []byte(StatusInactive),
				Flags: bluetooth.CharacteristicReadPermission |
					bluetooth.CharacteristicWritePermission |
					bluetooth.CharacteristicNotifyPermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					if offset != 0 {
						s.log.Warn("[ble] ignoring offset write", "offset", offset)
						return
					}
					events.HandleWrite(value)
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ble: add provisioning service: %w", err)
	}

	s.svcUUID = svcUUID
	s.adv = s.adapter.DefaultAdvertisement()
	s.registered = true
	return nil
}

func (s *TinyGoStack) ConfigureAdvertising(params AdvParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adv == nil {
		return ErrAdvertisingUnavailable
	}

	// The preferred connection interval range in params is not configurable
	// through this stack's peripheral API; the host controller negotiates
	// connection parameters on its own.
	err := s.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    params.DeviceName,
		ServiceUUIDs: []bluetooth.UUID{s.svcUUID},
	})
	if err != nil {
		return fmt.Errorf("ble: configure advertising: %w", err)
	}
	return nil
}

func (s *TinyGoStack) StartAdvertising() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adv == nil {
		return ErrAdvertisingUnavailable
	}
	if err := s.adv.Start(); err != nil {
		return fmt.Errorf("ble: start advertising: %w", err)
	}
	return nil
}

func (s *TinyGoStack) StopAdvertising() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adv == nil {
		return ErrAdvertisingUnavailable
	}
	if err := s.adv.Stop(); err != nil {
		return fmt.Errorf("ble: stop advertising: %w", err)
	}
	return nil
}

func (s *TinyGoStack) PublishStatus(msg string, notifyPeer bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registered {
		return
	}
	// Characteristic.Write stores the value and notifies any subscribed
	// central in a single call, so notifyPeer needs no separate path here.
	if _, err := s.char.Write([]byte(msg)); err != nil {
		s.log.Warn("[ble] publish status", "error", err, "notify", notifyPeer)
	}
}

// Compile-time check that TinyGoStack implements Stack.
var _ Stack = (*TinyGoStack)(nil)

// tinyGoPeer wraps a connected central's device handle.
type tinyGoPeer struct {
	device bluetooth.Device
}

func (p tinyGoPeer) Disconnect() error {
	return p.device.Disconnect()
}
