package provision

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Status strings published on the provisioning characteristic. Kept in
// Spanish for compatibility with deployed mobile apps.
const (
	StatusInactive    = "inactivo"
	StatusActive      = "activo"
	StatusCredentials = "credenciales"

	statusErrorPrefix = "error:"
)

// CredentialsFunc is invoked once per successfully parsed credential write.
// It runs in the BLE stack's write-handler context and must not block
// excessively.
type CredentialsFunc func(ssid, password string)

// Session owns the provisioning lifecycle: advertising start/stop,
// connection tracking, and the deferred advertising restart after a
// disconnect. Application calls (Begin, Start, Stop, NotifyStatus, Loop)
// and stack event handlers may run concurrently; a mutex guards the session
// fields.
type Session struct {
	stack Stack
	log   *slog.Logger

	mu          sync.Mutex
	initialized bool
	active      bool
	peer        Peer // non-nil while a central is connected
	deviceName  string
	callback    CredentialsFunc

	// restartPending is the sole cross-context handoff: the disconnect
	// handler sets it, Loop consumes it. Restarting advertising inline from
	// the disconnect callback is unsafe on some stacks.
	restartPending atomic.Bool
}

// NewSession creates a provisioning session on the given stack. A nil
// logger defaults to slog.Default().
func NewSession(stack Stack, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{stack: stack, log: logger}
}

// Begin performs idempotent setup. The first call registers the GATT
// service and event handlers; later calls only refresh the device name,
// callback, and advertising payload. The status characteristic is set to
// "inactivo" in both cases.
func (s *Session) Begin(deviceName string, cb CredentialsFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deviceName = deviceName
	s.callback = cb

	if !s.initialized {
		if err := s.stack.Register(deviceName, s); err != nil {
			return fmt.Errorf("provision: register service: %w", err)
		}
		s.initialized = true
	}

	if err := s.stack.ConfigureAdvertising(s.advParamsLocked()); err != nil {
		// Advertising may be unavailable at setup time; Start will surface
		// the condition when the session actually opens.
		s.log.Warn("[provision] configure advertising", "error", err)
	}

	s.publishLocked(StatusInactive)
	return nil
}

// Start opens a provisioning session: reconfigures and starts advertising
// and publishes "activo". Returns ErrNotInitialized before Begin, or
// ErrAdvertisingUnavailable (without side effects) when the stack cannot
// advertise.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	if err := s.stack.ConfigureAdvertising(s.advParamsLocked()); err != nil {
		if errors.Is(err, ErrAdvertisingUnavailable) {
			return err
		}
		return fmt.Errorf("provision: configure advertising: %w", err)
	}
	if err := s.stack.StartAdvertising(); err != nil {
		return fmt.Errorf("provision: start advertising: %w", err)
	}

	s.publishLocked(StatusActive)
	s.active = true
	s.restartPending.Store(false)
	s.log.Info("[provision] session open", "device", s.deviceName)
	return nil
}

// Stop closes the session: stops advertising, disconnects a connected
// central, and publishes "inactivo". Idempotent; a no-op before Begin.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}

	if err := s.stack.StopAdvertising(); err != nil {
		s.log.Warn("[provision] stop advertising", "error", err)
	}

	if s.peer != nil {
		if err := s.peer.Disconnect(); err != nil {
			s.log.Warn("[provision] disconnect central", "error", err)
		}
	}

	s.active = false
	s.restartPending.Store(false)
	s.publishLocked(StatusInactive)
	s.log.Info("[provision] session closed")
	return nil
}

// Active reports whether a provisioning session is open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// NotifyStatus publishes an application-supplied status string to the peer
// (e.g. "wifi-connecting", "wifi-failed").
func (s *Session) NotifyStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(msg)
}

// Loop is the cooperative tick, intended to be called repeatedly from the
// host's main loop. It performs at most one deferred advertising restart
// per disconnect.
func (s *Session) Loop() {
	if !s.restartPending.CompareAndSwap(true, false) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	if err := s.stack.StartAdvertising(); err != nil {
		s.log.Warn("[provision] advertising restart", "error", err)
		return
	}
	s.log.Info("[provision] advertising restarted")
}

// HandleConnect records the new central. Invoked by the BLE stack.
func (s *Session) HandleConnect(peer Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peer = peer
	s.log.Debug("[provision] central connected")
}

// HandleDisconnect clears the connection and, while a session is open,
// schedules an advertising restart for the next Loop so a new peer can
// provision. Invoked by the BLE stack.
func (s *Session) HandleDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peer = nil
	if s.active {
		s.restartPending.Store(true)
	}
	s.log.Debug("[provision] central disconnected", "restart", s.active)
}

// HandleWrite parses a raw credential payload written by the peer. On
// failure it publishes "error:<code>" and leaves the session open for a
// retry; on success it publishes "credenciales" and invokes the registered
// callback synchronously. Invoked by the BLE stack.
func (s *Session) HandleWrite(value []byte) {
	creds, err := ParseCredentials(value)
	if err != nil {
		var pe *ParseError
		code := "formato"
		if errors.As(err, &pe) {
			code = pe.Code()
		}
		s.mu.Lock()
		s.publishLocked(statusErrorPrefix + code)
		s.mu.Unlock()
		s.log.Warn("[provision] rejected credential write", "reason", code, "len", len(value))
		return
	}

	s.mu.Lock()
	cb := s.callback
	s.publishLocked(StatusCredentials)
	s.mu.Unlock()

	s.log.Info("[provision] credentials received", "ssid", creds.SSID)
	if cb != nil {
		cb(creds.SSID, creds.Password)
	}
}

// publishLocked stores msg on the characteristic and notifies the peer when
// one is connected. Caller must hold mu.
func (s *Session) publishLocked(msg string) {
	s.stack.PublishStatus(msg, s.peer != nil)
}

// advParamsLocked builds the advertising payload parameters. Caller must
// hold mu.
func (s *Session) advParamsLocked() AdvParams {
	return AdvParams{
		DeviceName:  s.deviceName,
		MinInterval: MinConnInterval,
		MaxInterval: MaxConnInterval,
	}
}

// Compile-time check that Session implements the stack event interface.
var _ Events = (*Session)(nil)
