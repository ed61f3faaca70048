package toplevel

// View owns the ordered collection of live toplevels, newest-announced
// first. The order is also the display and selection-index order.
type View struct {
	handles []*Handle

	// Column maxima in grapheme clusters, used for label alignment.
	TitleLen int
	AppIDLen int

	// ready is false until the initial window set has been observed.
	// While false, commits update the maxima locally without asking the
	// UI to reload, avoiding a refresh storm during bulk population.
	ready bool

	reload func()
}

// NewView creates an empty view. reload is invoked whenever the committed
// window set changes after the initial load; it may be nil.
func NewView(reload func()) *View {
	return &View{reload: reload}
}

// Len returns the number of live toplevels.
func (v *View) Len() int {
	return len(v.handles)
}

// At returns the toplevel at the given display index, or nil when the index
// is out of range (a close event can race a pending UI render).
func (v *View) At(index int) *Handle {
	if index < 0 || index >= len(v.handles) {
		return nil
	}
	return v.handles[index]
}

// Handles returns the live toplevels in display order.
func (v *View) Handles() []*Handle {
	return v.handles
}

func (v *View) prepend(h *Handle) {
	v.handles = append([]*Handle{h}, v.handles...)
}

func (v *View) remove(h *Handle) {
	for i, other := range v.handles {
		if other == h {
			v.handles = append(v.handles[:i], v.handles[i+1:]...)
			return
		}
	}
}

func (v *View) absorb(h *Handle) {
	if h.TitleLen() > v.TitleLen {
		v.TitleLen = h.TitleLen()
	}
	if h.AppIDLen() > v.AppIDLen {
		v.AppIDLen = h.AppIDLen()
	}
}

// commit folds one committed toplevel into the column metrics. During the
// initial fetch only the current item is added; afterwards titles can
// shrink as well as grow, so the maxima are recomputed from scratch and the
// UI is asked to reload.
func (v *View) commit(h *Handle) {
	if !v.ready {
		v.absorb(h)
		return
	}
	v.Rescan()
	if v.reload != nil {
		v.reload()
	}
}

// Rescan recomputes the column maxima over all live toplevels.
func (v *View) Rescan() {
	v.TitleLen = 0
	v.AppIDLen = 0
	for _, h := range v.handles {
		v.absorb(h)
	}
}

func (v *View) setReady() {
	v.ready = true
}

// Ready reports whether the initial window set has been observed.
func (v *View) Ready() bool {
	return v.ready
}
