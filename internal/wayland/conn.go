package wayland

import (
	"fmt"

	"github.com/bnema/wlturbo"
)

// Conn is the slice of a Wayland connection this module consumes. The wire
// encoding and object-binding mechanics live behind it; only event and
// request semantics are handled above this boundary.
type Conn interface {
	// OnGlobal registers a hook invoked when the registry announces a
	// global with the given interface name. Hooks fire during Roundtrip
	// or Dispatch, on the caller's thread.
	OnGlobal(iface string, fn func(name, version uint32))

	// Bind binds the named global at the given version and returns the
	// new client-side object id.
	Bind(name uint32, iface string, version uint32) (uint32, error)

	// Listen registers a handler for one event opcode of one object.
	// Handlers receive the raw event body and fire synchronously, one
	// event at a time.
	Listen(object uint32, opcode uint16, fn func(body []byte))

	// Request submits a protocol request on an object.
	Request(object uint32, opcode uint16, args ...interface{}) error

	// Roundtrip blocks until all events queued by the server before the
	// call have been dispatched.
	Roundtrip() error

	// Dispatch reads and dispatches a single incoming event.
	Dispatch() error

	// Flush pushes any queued outgoing requests to the compositor.
	Flush() error

	Close() error
}

// TurboConn adapts a wlturbo display to the Conn interface.
type TurboConn struct {
	display *wlturbo.Display
}

// Connect opens the Wayland display socket. An empty socket name falls back
// to $WAYLAND_DISPLAY.
func Connect(socket string) (*TurboConn, error) {
	display, err := wlturbo.Connect(socket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}
	return &TurboConn{display: display}, nil
}

func (c *TurboConn) OnGlobal(iface string, fn func(name, version uint32)) {
	c.display.Registry().AddHandler(iface, func(_ *wlturbo.Registry, name, version uint32) {
		fn(name, version)
	})
}

func (c *TurboConn) Bind(name uint32, iface string, version uint32) (uint32, error) {
	id, err := c.display.Registry().BindID(name, iface, version)
	if err != nil {
		return 0, fmt.Errorf("failed to bind %s: %w", iface, err)
	}
	return id, nil
}

func (c *TurboConn) Listen(object uint32, opcode uint16, fn func(body []byte)) {
	c.display.AddListener(object, opcode, fn)
}

func (c *TurboConn) Request(object uint32, opcode uint16, args ...interface{}) error {
	return c.display.SendRequest(object, opcode, args...)
}

func (c *TurboConn) Roundtrip() error {
	return c.display.Roundtrip()
}

func (c *TurboConn) Dispatch() error {
	return c.display.Dispatch()
}

// Flush is a no-op: wlturbo writes requests to the socket as they are
// submitted, so there is no outgoing queue to drain.
func (c *TurboConn) Flush() error {
	return nil
}

func (c *TurboConn) Close() error {
	return c.display.Close()
}
