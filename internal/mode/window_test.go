package mode

import (
	"image"
	"testing"

	"github.com/wlpick/wlpick/internal/wayland/wltest"
)

const (
	managerIface = "zwlr_foreign_toplevel_manager_v1"
	seatIface    = "wl_seat"

	evTitle  = 0
	evAppID  = 1
	evState  = 4
	evDone   = 5
	evClosed = 6

	reqActivate = 4
	reqClose    = 5
)

// fakeFetcher resolves the configured icon names and counts queries.
type fakeFetcher struct {
	known   map[string]uint32
	queries int
}

func (f *fakeFetcher) Query(name string, size int) uint32 {
	f.queries++
	return f.known[name]
}

func (f *fakeFetcher) Get(uid uint32) image.Image {
	if uid == 0 {
		return nil
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1))
}

func spawn(c *wltest.Conn, id uint32, title, appID string) {
	c.Emit(c.BoundID(managerIface), 0, wltest.Body(id))
	c.Emit(id, evTitle, wltest.Body(title))
	c.Emit(id, evAppID, wltest.Body(appID))
	c.Emit(id, evDone, nil)
}

func newWindowMode(t *testing.T, fetcher *fakeFetcher, populate func(c *wltest.Conn)) (*Window, *wltest.Conn) {
	t.Helper()

	conn := wltest.NewConn(
		wltest.Global{Name: 1, Iface: managerIface, Version: 3},
		wltest.Global{Name: 2, Iface: seatIface, Version: 7},
	)
	conn.AtRoundtrip = func(n int) {
		if n == 2 && populate != nil {
			populate(conn)
		}
	}
	if fetcher == nil {
		fetcher = &fakeFetcher{}
	}
	win := New(conn, fetcher, "{a}   {t}", nil)
	if err := win.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return win, conn
}

func TestActivationScenario(t *testing.T) {
	win, conn := newWindowMode(t, nil, func(c *wltest.Conn) {
		spawn(c, 200, "Mozilla Firefox", "firefox")
	})

	if win.NumEntries() != 1 {
		t.Fatalf("expected 1 entry, got %d", win.NumEntries())
	}

	var flags EntryStateFlags
	label := win.DisplayValue(0, &flags, true)
	if label != "firefox   Mozilla Firefox" {
		t.Fatalf("unexpected label %q", label)
	}
	if flags&EntryActive != 0 {
		t.Fatal("entry reported active before the state event")
	}

	// Compositor reports activation as a state event plus a commit.
	conn.Emit(200, evState, wltest.Body([]uint32{2}))
	conn.Emit(200, evDone, nil)

	flags = 0
	label = win.DisplayValue(0, &flags, true)
	if flags&EntryActive == 0 {
		t.Fatal("expected the active flag after commit")
	}
	if label != "firefox   Mozilla Firefox" {
		t.Fatalf("unexpected label after activation: %q", label)
	}

	// Closing removes the entry; a stale render gets the placeholder.
	conn.Emit(200, evClosed, nil)
	if win.NumEntries() != 0 {
		t.Fatalf("expected 0 entries after close, got %d", win.NumEntries())
	}
	if got := win.DisplayValue(0, nil, true); got != "Window has vanished" {
		t.Fatalf("expected placeholder for stale index, got %q", got)
	}
}

func TestDegradedSessionWithoutCapability(t *testing.T) {
	conn := wltest.NewConn(wltest.Global{Name: 2, Iface: seatIface, Version: 7})
	win := New(conn, &fakeFetcher{}, "{t}", nil)

	if err := win.Init(); err != nil {
		t.Fatalf("degraded session must not fail the host: %v", err)
	}
	if win.NumEntries() != 0 {
		t.Fatalf("expected zero entries, got %d", win.NumEntries())
	}
	if win.Message() == "" {
		t.Fatal("expected a human-readable warning")
	}
	if got := win.DisplayValue(0, nil, true); got != "Window has vanished" {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestIconResolutionMemoizesHits(t *testing.T) {
	fetcher := &fakeFetcher{known: map[string]uint32{"firefox": 7}}
	win, _ := newWindowMode(t, fetcher, func(c *wltest.Conn) {
		spawn(c, 200, "Mozilla Firefox", "firefox")
	})

	if win.Icon(0, 24) == nil {
		t.Fatal("expected an icon")
	}
	queriesAfterFirst := fetcher.queries
	if queriesAfterFirst != 1 {
		t.Fatalf("expected one query for a direct hit, got %d", queriesAfterFirst)
	}

	// Same size again: the memoized hit answers without a new query.
	if win.Icon(0, 24) == nil {
		t.Fatal("expected the cached icon")
	}
	if fetcher.queries != queriesAfterFirst {
		t.Fatalf("repeated lookup queried the subsystem again: %d", fetcher.queries)
	}

	// A different size bypasses the memo.
	if win.Icon(0, 48) == nil {
		t.Fatal("expected an icon at the new size")
	}
	if fetcher.queries != queriesAfterFirst+1 {
		t.Fatalf("expected one more query for the new size, got %d", fetcher.queries)
	}
}

func TestIconLowercaseFallback(t *testing.T) {
	fetcher := &fakeFetcher{known: map[string]uint32{"firefox": 7}}
	win, _ := newWindowMode(t, fetcher, func(c *wltest.Conn) {
		spawn(c, 200, "Mozilla Firefox", "Firefox")
	})

	if win.Icon(0, 24) == nil {
		t.Fatal("expected the lowercase fallback to resolve")
	}
	if fetcher.queries != 2 {
		t.Fatalf("expected exact then lowercase query, got %d", fetcher.queries)
	}
}

func TestIconMissIsNotMemoized(t *testing.T) {
	fetcher := &fakeFetcher{}
	win, _ := newWindowMode(t, fetcher, func(c *wltest.Conn) {
		spawn(c, 200, "Mail", "mail")
	})

	if win.Icon(0, 24) != nil {
		t.Fatal("expected a miss")
	}
	before := fetcher.queries
	if win.Icon(0, 24) != nil {
		t.Fatal("expected a miss again")
	}
	if fetcher.queries == before {
		t.Fatal("a cached miss must not short-circuit later lookups")
	}
}

func TestIconEmptyAppID(t *testing.T) {
	fetcher := &fakeFetcher{}
	win, _ := newWindowMode(t, fetcher, func(c *wltest.Conn) {
		spawn(c, 200, "Untitled", "")
	})

	if win.Icon(0, 24) != nil {
		t.Fatal("expected no icon without an app id")
	}
	if fetcher.queries != 0 {
		t.Fatalf("empty app id must not query, got %d", fetcher.queries)
	}
}

func TestTokenMatch(t *testing.T) {
	win, _ := newWindowMode(t, nil, func(c *wltest.Conn) {
		spawn(c, 200, "Mozilla Firefox", "firefox")
	})

	if !win.TokenMatch(0, "fire") {
		t.Fatal("expected substring token to match")
	}
	if !win.TokenMatch(0, "moz fox") {
		t.Fatal("expected all tokens to match")
	}
	if win.TokenMatch(0, "chrome") {
		t.Fatal("unexpected match")
	}
	if win.TokenMatch(5, "fire") {
		t.Fatal("stale index must not match")
	}
}

func TestResultConfirmAndDelete(t *testing.T) {
	win, conn := newWindowMode(t, nil, func(c *wltest.Conn) {
		spawn(c, 200, "Mozilla Firefox", "firefox")
	})

	if next := win.Result(ActionConfirm, 0); next != NextExit {
		t.Fatalf("expected NextExit, got %v", next)
	}
	if n := conn.CountRequests(200, reqActivate); n != 1 {
		t.Fatalf("expected one activate request, got %d", n)
	}

	if next := win.Result(ActionDelete, 0); next != NextExit {
		t.Fatalf("expected NextExit, got %v", next)
	}
	if n := conn.CountRequests(200, reqClose); n != 1 {
		t.Fatalf("expected one close request, got %d", n)
	}

	// Stale selection: defined no-op.
	requests := len(conn.Requests)
	if next := win.Result(ActionConfirm, 9); next != NextExit {
		t.Fatalf("expected NextExit for stale selection, got %v", next)
	}
	if len(conn.Requests) != requests {
		t.Fatal("stale selection reached the wire")
	}
}

func TestResultNavigation(t *testing.T) {
	win, _ := newWindowMode(t, nil, nil)

	if next := win.Result(ActionNext, 0); next != NextMode {
		t.Fatalf("expected NextMode, got %v", next)
	}
	if next := win.Result(ActionPrevious, 0); next != PreviousMode {
		t.Fatalf("expected PreviousMode, got %v", next)
	}
}

func TestResultQuickSwitch(t *testing.T) {
	win, conn := newWindowMode(t, nil, func(c *wltest.Conn) {
		spawn(c, 200, "Mail", "mail")
	})
	before := len(conn.Requests)

	for _, target := range []int{0, 1, 7} {
		if next := win.Result(QuickSwitch(target), 0); next != Next(target) {
			t.Fatalf("quick switch to mode %d returned %v", target, next)
		}
	}
	if len(conn.Requests) != before {
		t.Fatalf("quick switch sent %d requests", len(conn.Requests)-before)
	}
}

func TestDestroyReleasesHandles(t *testing.T) {
	win, conn := newWindowMode(t, nil, func(c *wltest.Conn) {
		spawn(c, 200, "Mail", "mail")
	})

	win.Destroy()
	if n := conn.CountRequests(200, 7); n != 1 {
		t.Fatalf("expected the handle destroyed once, got %d", n)
	}
	if win.NumEntries() != 0 {
		t.Fatalf("expected no entries after Destroy, got %d", win.NumEntries())
	}
}
