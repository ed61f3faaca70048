package toplevel

import (
	"errors"
	"fmt"

	"github.com/wlpick/wlpick/internal/logger"
	"github.com/wlpick/wlpick/internal/wayland"
)

const (
	managerInterface  = "zwlr_foreign_toplevel_manager_v1"
	managerMaxVersion = 3

	seatInterface = "wl_seat"

	managerEventToplevel = 0
	managerEventFinished = 1

	managerRequestStop = 0
)

// ErrCapabilityUnavailable reports a compositor without the
// foreign-toplevel management protocol. This is terminal for the session:
// the window set stays empty and no retry is attempted.
var ErrCapabilityUnavailable = errors.New(
	"compositor does not support the " + managerInterface + " protocol")

// Manager binds the foreign-toplevel manager capability and routes its
// events into a View. Strictly single-threaded: all protocol I/O happens on
// blocking roundtrips during Init and on the caller's event pump afterwards.
type Manager struct {
	conn wayland.Conn
	view *View

	managerID uint32
	seatID    uint32

	initialized bool
}

// NewManager creates a manager feeding the given view.
func NewManager(conn wayland.Conn, view *View) *Manager {
	return &Manager{conn: conn, view: view}
}

// Init discovers and binds the foreign-toplevel manager. The first
// roundtrip guarantees all current globals have been announced; the second
// guarantees the manager has announced every currently open toplevel, each
// followed by its commit marker. After Init returns nil the view reflects
// the full current window set.
func (m *Manager) Init() error {
	log := logger.WithComponent("bootstrap")

	m.conn.OnGlobal(managerInterface, func(name, version uint32) {
		v := min(version, managerMaxVersion)
		id, err := m.conn.Bind(name, managerInterface, v)
		if err != nil {
			log.Warn().Err(err).Msg("failed to bind toplevel manager")
			return
		}
		m.managerID = id
		m.conn.Listen(id, managerEventToplevel, m.onToplevel)
		m.conn.Listen(id, managerEventFinished, m.onFinished)
		log.Debug().Uint32("version", v).Msg("bound toplevel manager")
	})

	m.conn.OnGlobal(seatInterface, func(name, version uint32) {
		if m.seatID != 0 {
			return
		}
		id, err := m.conn.Bind(name, seatInterface, 1)
		if err != nil {
			log.Warn().Err(err).Msg("failed to bind seat")
			return
		}
		m.seatID = id
	})

	if err := m.conn.Roundtrip(); err != nil {
		return fmt.Errorf("registry roundtrip failed: %w", err)
	}

	if m.managerID == 0 {
		return ErrCapabilityUnavailable
	}

	// Fetch the initial set of windows.
	if err := m.conn.Roundtrip(); err != nil {
		return fmt.Errorf("initial toplevel fetch failed: %w", err)
	}

	m.view.setReady()
	m.initialized = true
	log.Debug().Int("toplevels", m.view.Len()).Msg("initial window set loaded")
	return nil
}

func (m *Manager) onToplevel(body []byte) {
	id := wayland.NewDecoder(body).Uint32()
	if id == 0 {
		return
	}
	h := newHandle(m.conn, id, m.view)
	m.view.prepend(h)
}

func (m *Manager) onFinished([]byte) {
	// No further manager events will occur; the object is dead.
	logger.WithComponent("router").Debug().Msg("toplevel manager finished")
	m.managerID = 0
}

// Seat returns the bound seat object id, or 0 when no seat exists.
func (m *Manager) Seat() uint32 {
	return m.seatID
}

// Initialized reports whether Init completed successfully.
func (m *Manager) Initialized() bool {
	return m.initialized
}

// Stop releases every toplevel handle, asks the manager to stop and waits
// for its finished event.
func (m *Manager) Stop() {
	for _, h := range m.view.Handles() {
		h.release()
	}
	m.view.handles = nil

	if m.managerID != 0 {
		if err := m.conn.Request(m.managerID, managerRequestStop); err == nil {
			_ = m.conn.Roundtrip()
		}
		m.managerID = 0
	}
}
