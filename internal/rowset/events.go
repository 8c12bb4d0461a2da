package rowset

// Event describes a notification raised by a row set.
type Event struct {
	// RowSet is the handle that raised the event.
	RowSet *RowSet

	// Position is the 1-based store position of the affected row for row
	// events, and the cursor position for cursor events.
	Position int
}

// Listener receives row set notifications. Listeners run synchronously on
// the goroutine that changed the row set, before the operation returns.
type Listener interface {
	// CursorMoved is called after every successful navigation call.
	CursorMoved(ev Event)

	// RowChanged is called after a single row is inserted, updated,
	// deleted or restored.
	RowChanged(ev Event)

	// RowSetChanged is called after the whole content is replaced, such as
	// after a populate, a page move or a commit.
	RowSetChanged(ev Event)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnCursorMoved   func(ev Event)
	OnRowChanged    func(ev Event)
	OnRowSetChanged func(ev Event)
}

// CursorMoved calls OnCursorMoved if it's not nil.
func (f ListenerFuncs) CursorMoved(ev Event) {
	if f.OnCursorMoved != nil {
		f.OnCursorMoved(ev)
	}
}

// RowChanged calls OnRowChanged if it's not nil.
func (f ListenerFuncs) RowChanged(ev Event) {
	if f.OnRowChanged != nil {
		f.OnRowChanged(ev)
	}
}

// RowSetChanged calls OnRowSetChanged if it's not nil.
func (f ListenerFuncs) RowSetChanged(ev Event) {
	if f.OnRowSetChanged != nil {
		f.OnRowSetChanged(ev)
	}
}

type registeredListener struct {
	id       int
	listener Listener
}

// listenerSet keeps listeners in registration order.
type listenerSet struct {
	nextID int
	items  []registeredListener
}

func (ls *listenerSet) add(l Listener) int {
	ls.nextID++
	ls.items = append(ls.items, registeredListener{id: ls.nextID, listener: l})
	return ls.nextID
}

func (ls *listenerSet) remove(id int) bool {
	for i, item := range ls.items {
		if item.id == id {
			ls.items = append(ls.items[:i], ls.items[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot copies the listeners so a callback may add or remove listeners.
func (ls *listenerSet) snapshot() []Listener {
	out := make([]Listener, len(ls.items))
	for i, item := range ls.items {
		out[i] = item.listener
	}
	return out
}

// AddListener registers l and returns an id for RemoveListener.
func (rs *RowSet) AddListener(l Listener) int {
	return rs.listeners.add(l)
}

// RemoveListener unregisters the listener with the given id. It reports
// whether a listener was removed.
func (rs *RowSet) RemoveListener(id int) bool {
	return rs.listeners.remove(id)
}

// ListenerCount returns the number of registered listeners.
func (rs *RowSet) ListenerCount() int {
	return len(rs.listeners.items)
}

func (rs *RowSet) notifyCursorMoved() {
	ev := Event{RowSet: rs, Position: rs.cur.pos}
	for _, l := range rs.listeners.snapshot() {
		l.CursorMoved(ev)
	}
}

func (rs *RowSet) notifyRowChanged(pos int) {
	ev := Event{RowSet: rs, Position: pos}
	for _, l := range rs.listeners.snapshot() {
		l.RowChanged(ev)
	}
}

func (rs *RowSet) notifyRowSetChanged() {
	ev := Event{RowSet: rs}
	for _, l := range rs.listeners.snapshot() {
		l.RowSetChanged(ev)
	}
}
