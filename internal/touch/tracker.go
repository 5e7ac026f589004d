// Package touch maps live digitizer contacts to the button they landed on.
package touch

// Ref addresses a button by arena indices into the layer set. Indices are
// invalidated wholesale on config reload, which the coordinator handles by
// clearing the tracker.
type Ref struct {
	Layer  int
	Button int
}

// Tracker is the slot-to-button map. Entries exist only between a Down that
// hit a button and the matching Up; touches that miss every button are never
// tracked and so can never produce spurious motion or release effects.
type Tracker struct {
	slots map[int]Ref
}

func NewTracker() *Tracker {
	return &Tracker{slots: make(map[int]Ref)}
}

// Track records a contact. Called only for downs that hit a button.
func (t *Tracker) Track(slot int, ref Ref) {
	t.slots[slot] = ref
}

// Lookup finds the button a contact started on. Unknown slots are possible
// when the daemon starts mid-gesture; the caller ignores them.
func (t *Tracker) Lookup(slot int) (Ref, bool) {
	ref, ok := t.slots[slot]
	return ref, ok
}

// Release removes a contact and returns what it was tracking.
func (t *Tracker) Release(slot int) (Ref, bool) {
	ref, ok := t.slots[slot]
	if ok {
		delete(t.slots, slot)
	}
	return ref, ok
}

// Clear abandons every tracked contact.
func (t *Tracker) Clear() {
	clear(t.slots)
}

// Len reports the number of live contacts.
func (t *Tracker) Len() int {
	return len(t.slots)
}
