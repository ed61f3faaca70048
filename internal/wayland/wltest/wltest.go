// Package wltest provides an in-memory wayland.Conn for driving the event
// router from tests without a compositor.
package wltest

import "encoding/binary"

// Global describes a registry global the fake compositor advertises.
type Global struct {
	Name    uint32
	Iface   string
	Version uint32
}

// Request records one protocol request submitted through the fake.
type Request struct {
	Object uint32
	Opcode uint16
	Args   []interface{}
}

// Conn implements wayland.Conn. Globals are announced on the first
// Roundtrip; events are injected synchronously via Emit.
type Conn struct {
	Globals    []Global
	Requests   []Request
	Flushes    int
	Roundtrips int
	Closed     bool

	// AtRoundtrip, when set, runs after each Roundtrip's global
	// announcements. Tests use it to emit events at the barriers.
	AtRoundtrip func(n int)

	hooks     map[string]func(name, version uint32)
	listeners map[uint32]map[uint16]func([]byte)
	bound     map[uint32]string
	versions  map[string]uint32
	nextID    uint32
}

// NewConn creates a fake connection advertising the given globals.
func NewConn(globals ...Global) *Conn {
	return &Conn{
		Globals:   globals,
		hooks:     make(map[string]func(name, version uint32)),
		listeners: make(map[uint32]map[uint16]func([]byte)),
		bound:     make(map[uint32]string),
		versions:  make(map[string]uint32),
		nextID:    100,
	}
}

func (c *Conn) OnGlobal(iface string, fn func(name, version uint32)) {
	c.hooks[iface] = fn
}

func (c *Conn) Bind(name uint32, iface string, version uint32) (uint32, error) {
	c.nextID++
	c.bound[c.nextID] = iface
	c.versions[iface] = version
	return c.nextID, nil
}

func (c *Conn) Listen(object uint32, opcode uint16, fn func(body []byte)) {
	if c.listeners[object] == nil {
		c.listeners[object] = make(map[uint16]func([]byte))
	}
	c.listeners[object][opcode] = fn
}

func (c *Conn) Request(object uint32, opcode uint16, args ...interface{}) error {
	c.Requests = append(c.Requests, Request{Object: object, Opcode: opcode, Args: args})
	return nil
}

func (c *Conn) Roundtrip() error {
	c.Roundtrips++
	if c.Roundtrips == 1 {
		for _, g := range c.Globals {
			if hook, ok := c.hooks[g.Iface]; ok {
				hook(g.Name, g.Version)
			}
		}
	}
	if c.AtRoundtrip != nil {
		c.AtRoundtrip(c.Roundtrips)
	}
	return nil
}

func (c *Conn) Dispatch() error { return nil }

func (c *Conn) Flush() error {
	c.Flushes++
	return nil
}

func (c *Conn) Close() error {
	c.Closed = true
	return nil
}

// BoundVersion returns the version the given interface was bound at, or 0.
func (c *Conn) BoundVersion(iface string) uint32 {
	return c.versions[iface]
}

// BoundID returns the object id the given interface was bound at, or 0.
func (c *Conn) BoundID(iface string) uint32 {
	for id, bound := range c.bound {
		if bound == iface {
			return id
		}
	}
	return 0
}

// Emit dispatches one event body to the registered listener, mirroring the
// synchronous single-event dispatch of the real connection.
func (c *Conn) Emit(object uint32, opcode uint16, body []byte) {
	if handlers, ok := c.listeners[object]; ok {
		if fn, ok := handlers[opcode]; ok {
			fn(body)
		}
	}
}

// CountRequests returns how many requests were sent to object with opcode.
func (c *Conn) CountRequests(object uint32, opcode uint16) int {
	n := 0
	for _, r := range c.Requests {
		if r.Object == object && r.Opcode == opcode {
			n++
		}
	}
	return n
}

// Body assembles an event body from wire-format arguments. Supported types
// mirror the decoder: uint32, string and []uint32.
func Body(args ...interface{}) []byte {
	var out []byte
	for _, arg := range args {
		switch v := arg.(type) {
		case uint32:
			out = binary.LittleEndian.AppendUint32(out, v)
		case string:
			length := uint32(len(v) + 1)
			out = binary.LittleEndian.AppendUint32(out, length)
			out = append(out, v...)
			out = append(out, 0)
			for len(out)%4 != 0 {
				out = append(out, 0)
			}
		case []uint32:
			out = binary.LittleEndian.AppendUint32(out, uint32(len(v)*4))
			for _, e := range v {
				out = binary.LittleEndian.AppendUint32(out, e)
			}
		}
	}
	return out
}
