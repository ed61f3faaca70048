// Package mode implements the window entry source for a generic
// selectable-list UI: entry count, label rendering, icons, token matching
// and selection handling over the live toplevel set.
package mode

import (
	"errors"
	"image"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/wlpick/wlpick/internal/format"
	"github.com/wlpick/wlpick/internal/icons"
	"github.com/wlpick/wlpick/internal/logger"
	"github.com/wlpick/wlpick/internal/toplevel"
	"github.com/wlpick/wlpick/internal/wayland"
)

// EntryStateFlags describe how the host should render one entry.
type EntryStateFlags int

const (
	// EntryActive marks the entry of the currently activated window.
	EntryActive EntryStateFlags = 1 << iota
	// EntryMarkup marks the label as containing markup.
	EntryMarkup
)

// Action is a host-side selection action.
type Action int

const (
	// ActionConfirm activates the selected window.
	ActionConfirm Action = iota
	// ActionDelete closes the selected window.
	ActionDelete
	// ActionNext switches to the next mode.
	ActionNext
	// ActionPrevious switches to the previous mode.
	ActionPrevious
	// ActionQuickSwitch is the base of the quick-switch range: the
	// target mode index is carried in the action value itself, see
	// QuickSwitch.
	ActionQuickSwitch
)

// QuickSwitch builds the action that jumps directly to the mode at the
// given host index.
func QuickSwitch(mode int) Action {
	return ActionQuickSwitch + Action(mode)
}

// Next tells the host what to do after Result. Non-negative values select
// the mode at that index (quick switch); the named outcomes are negative.
type Next int

const (
	NextExit Next = -(iota + 1)
	NextMode
	PreviousMode
)

// vanishedEntry is rendered when a close event races a pending UI render
// between refresh cycles.
const vanishedEntry = "Window has vanished"

// Window is the window-switching mode. Not safe for concurrent use: the
// host drives it from a single logical thread, one event at a time.
type Window struct {
	conn   wayland.Conn
	view   *toplevel.View
	mgr    *toplevel.Manager
	fmtr   *format.Formatter
	icons  icons.Fetcher
	reload func()

	// warning carries the degradation message of a session whose
	// compositor lacks the protocol; the entry list stays empty.
	warning string
}

// New creates the window mode. template is the per-entry label format;
// reload is the host's refresh hook and may be nil.
func New(conn wayland.Conn, fetcher icons.Fetcher, template string, reload func()) *Window {
	return &Window{
		conn:   conn,
		fmtr:   format.New(template),
		icons:  fetcher,
		reload: reload,
	}
}

// Init binds the protocol and loads the initial window set. A compositor
// without the capability degrades the mode to zero entries with a warning
// instead of failing the host.
func (w *Window) Init() error {
	w.view = toplevel.NewView(w.reload)
	w.mgr = toplevel.NewManager(w.conn, w.view)

	err := w.mgr.Init()
	if errors.Is(err, toplevel.ErrCapabilityUnavailable) {
		w.warning = "Unable to initialize Window mode: " + err.Error()
		logger.WithComponent("mode").Warn().Msg(w.warning)
		return nil
	}
	return err
}

// Destroy releases every remote reference and stops the manager.
func (w *Window) Destroy() {
	if w.mgr != nil {
		w.mgr.Stop()
	}
}

// Message returns the human-readable session warning, if any.
func (w *Window) Message() string {
	return w.warning
}

// NumEntries returns the number of live windows.
func (w *Window) NumEntries() int {
	if w.view == nil {
		return 0
	}
	return w.view.Len()
}

// DisplayValue renders the entry label at index and reports its state
// flags. A stale or out-of-range index yields a placeholder rather than an
// error, since a close event can race a pending render.
func (w *Window) DisplayValue(index int, flags *EntryStateFlags, getEntry bool) string {
	h := w.view.At(index)
	if h == nil || h.State&toplevel.StateClosed != 0 {
		if getEntry {
			return vanishedEntry
		}
		return ""
	}

	// This may not hold focus-wise while the list surface itself is
	// focused, but it marks the window the compositor reports active.
	if h.State&toplevel.StateActivated != 0 && flags != nil {
		*flags |= EntryActive
	}
	if flags != nil {
		*flags |= EntryMarkup
	}

	if !getEntry {
		return ""
	}
	return w.fmtr.Render(
		format.Fields{Title: h.Title, AppID: h.AppID},
		format.Columns{Title: w.view.TitleLen, AppID: w.view.AppIDLen},
	)
}

// Handle returns the toplevel behind the entry at index, or nil when the
// index is stale.
func (w *Window) Handle(index int) *toplevel.Handle {
	return w.view.At(index)
}

// Icon returns the entry icon scaled to the given height, or nil.
func (w *Window) Icon(index, height int) image.Image {
	h := w.view.At(index)
	if h == nil {
		return nil
	}
	return h.ResolveIcon(w.icons, height)
}

// TokenMatch reports whether every whitespace-separated token of the query
// matches the entry title.
func (w *Window) TokenMatch(index int, query string) bool {
	h := w.view.At(index)
	if h == nil {
		return false
	}
	for _, token := range strings.Fields(query) {
		if !fuzzy.MatchNormalizedFold(token, h.Title) {
			return false
		}
	}
	return true
}

// Result handles a host selection. Requests are fire-and-forget; a stale
// selection is a defined no-op.
func (w *Window) Result(action Action, selected int) Next {
	switch {
	case action >= ActionQuickSwitch:
		return Next(action - ActionQuickSwitch)
	case action == ActionNext:
		return NextMode
	case action == ActionPrevious:
		return PreviousMode
	case action == ActionConfirm:
		if h := w.view.At(selected); h != nil {
			if err := h.Activate(w.mgr.Seat()); err != nil {
				logger.WithComponent("mode").Warn().Err(err).Msg("activate request failed")
			}
		}
	case action == ActionDelete:
		if h := w.view.At(selected); h != nil {
			if err := h.Close(); err != nil {
				logger.WithComponent("mode").Warn().Err(err).Msg("close request failed")
			}
		}
	}
	return NextExit
}
