package toplevel

import (
	"image"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/wlpick/wlpick/internal/icons"
	"github.com/wlpick/wlpick/internal/logger"
	"github.com/wlpick/wlpick/internal/wayland"
)

// State is the bitset of zwlr_foreign_toplevel_handle_v1 states. Each state
// event overwrites the protocol bits wholesale; Closed is synthetic and set
// only by the closed event handler.
type State int

const (
	StateMaximized  State = 1 << 0
	StateMinimized  State = 1 << 1
	StateActivated  State = 1 << 2
	StateFullscreen State = 1 << 3
	StateClosed     State = 1 << 4
)

// zwlr_foreign_toplevel_handle_v1 opcodes.
const (
	handleEventTitle       = 0
	handleEventAppID       = 1
	handleEventOutputEnter = 2
	handleEventOutputLeave = 3
	handleEventState       = 4
	handleEventDone        = 5
	handleEventClosed      = 6
	handleEventParent      = 7

	handleRequestActivate = 4
	handleRequestClose    = 5
	handleRequestDestroy  = 7
)

// Handle mirrors one remote toplevel window. It exclusively owns its remote
// object reference and releases it exactly once.
type Handle struct {
	conn wayland.Conn
	id   uint32
	view *View

	Title string
	AppID string
	State State

	titleLen int
	appIDLen int

	iconUID  uint32
	iconSize int

	released bool
}

func newHandle(conn wayland.Conn, id uint32, view *View) *Handle {
	h := &Handle{conn: conn, id: id, view: view}
	conn.Listen(id, handleEventTitle, h.onTitle)
	conn.Listen(id, handleEventAppID, h.onAppID)
	conn.Listen(id, handleEventOutputEnter, h.onIgnored)
	conn.Listen(id, handleEventOutputLeave, h.onIgnored)
	conn.Listen(id, handleEventState, h.onState)
	conn.Listen(id, handleEventDone, h.onDone)
	conn.Listen(id, handleEventClosed, h.onClosed)
	conn.Listen(id, handleEventParent, h.onIgnored)
	return h
}

// TitleLen returns the title length in grapheme clusters.
func (h *Handle) TitleLen() int { return h.titleLen }

// AppIDLen returns the app id length in grapheme clusters.
func (h *Handle) AppIDLen() int { return h.appIDLen }

func (h *Handle) onTitle(body []byte) {
	h.Title = wayland.NewDecoder(body).String()
	h.titleLen = uniseg.GraphemeClusterCount(h.Title)
}

func (h *Handle) onAppID(body []byte) {
	h.AppID = wayland.NewDecoder(body).String()
	h.appIDLen = uniseg.GraphemeClusterCount(h.AppID)
}

func (h *Handle) onIgnored([]byte) {}

func (h *Handle) onState(body []byte) {
	var bits State
	for _, code := range wayland.NewDecoder(body).Uint32Array() {
		// Unknown codes are tolerated by best-effort shifting.
		if code < 31 {
			bits |= 1 << code
		}
	}
	h.State = (h.State & StateClosed) | (bits &^ StateClosed)
}

// onDone marks the commit boundary: everything received since the last done
// now forms one consistent snapshot the UI may observe.
func (h *Handle) onDone([]byte) {
	logger.WithComponent("router").Debug().
		Str("app_id", h.AppID).
		Str("title", h.Title).
		Int("state", int(h.State)).
		Msg("toplevel committed")

	h.view.commit(h)
}

func (h *Handle) onClosed([]byte) {
	// The remote handle is inert and will receive no further events.
	h.State |= StateClosed
	h.view.remove(h)
	h.view.commit(h)
	h.release()
}

// release destroys the remote reference. Guarded so a teardown racing a
// compositor-side close is a no-op rather than a double destroy.
func (h *Handle) release() {
	if h.released {
		return
	}
	h.released = true
	if err := h.conn.Request(h.id, handleRequestDestroy); err != nil {
		logger.WithComponent("router").Debug().Err(err).Msg("failed to destroy toplevel handle")
	}
}

// Activate asks the compositor to bring the window to the foreground on the
// given seat. Fire-and-forget: the resulting state change, if any, arrives
// later as an ordinary state event. A released handle or missing seat is a
// defined no-op.
func (h *Handle) Activate(seat uint32) error {
	if h.released || seat == 0 {
		return nil
	}
	if err := h.conn.Request(h.id, handleRequestActivate, seat); err != nil {
		return err
	}
	return h.conn.Flush()
}

// Close asks the compositor to close the window. Fire-and-forget; the
// compositor answers with a closed event once the window is gone.
func (h *Handle) Close() error {
	if h.released {
		return nil
	}
	if err := h.conn.Request(h.id, handleRequestClose); err != nil {
		return err
	}
	return h.conn.Flush()
}

// ResolveIcon looks up the window icon at the requested size, memoizing the
// last confirmed hit. A cached miss never short-circuits: a later call with
// the same size queries again.
func (h *Handle) ResolveIcon(fetcher icons.Fetcher, size int) image.Image {
	// some apps don't have an app id. this is fine
	if h.AppID == "" {
		return nil
	}

	if h.iconUID > 0 && h.iconSize == size {
		return fetcher.Get(h.iconUID)
	}

	h.iconSize = size
	h.iconUID = fetcher.Query(h.AppID, size)
	if icon := fetcher.Get(h.iconUID); icon != nil {
		return icon
	}

	h.iconUID = fetcher.Query(strings.ToLower(h.AppID), size)
	return fetcher.Get(h.iconUID)
}
