//go:build linux

package input

type mtRanges struct {
	xMin, xMax int32
	yMin, yMax int32
}

type slotState struct {
	x, y        int32
	downPending bool
	upPending   bool
	moved       bool
}

// mtDecoder turns a multitouch protocol-B event stream into per-slot
// down/motion/up events with positions scaled to strip pixels. State is
// accumulated between SYN_REPORT frames and flushed on each one.
type mtDecoder struct {
	ranges         mtRanges
	stripW, stripH int
	current        int
	slots          map[int]*slotState
}

func newMTDecoder(r mtRanges, stripW, stripH int) *mtDecoder {
	return &mtDecoder{
		ranges: r,
		stripW: stripW,
		stripH: stripH,
		slots:  make(map[int]*slotState),
	}
}

// feed consumes one raw event and returns any completed touch events.
func (m *mtDecoder) feed(ev inputEvent) []Event {
	switch ev.Type {
	case evAbs:
		switch ev.Code {
		case absMtSlot:
			m.current = int(ev.Value)
		case absMtTrackingID:
			if ev.Value >= 0 {
				if _, ok := m.slots[m.current]; !ok {
					m.slots[m.current] = &slotState{downPending: true}
				}
			} else if s, ok := m.slots[m.current]; ok {
				s.upPending = true
			}
		case absMtPositionX:
			if s, ok := m.slots[m.current]; ok {
				s.x = ev.Value
				s.moved = true
			}
		case absMtPositionY:
			if s, ok := m.slots[m.current]; ok {
				s.y = ev.Value
				s.moved = true
			}
		}
	case evSyn:
		if ev.Code == synReport {
			return m.flush()
		}
	}
	return nil
}

func (m *mtDecoder) flush() []Event {
	var out []Event
	for slot, s := range m.slots {
		x, y := m.scale(s.x, s.y)
		switch {
		case s.downPending:
			out = append(out, Event{Seat: SeatTouchBar, Type: TouchDown, Slot: slot, X: x, Y: y})
			s.downPending = false
			s.moved = false
			if s.upPending {
				// Contact began and ended within one frame.
				out = append(out, Event{Seat: SeatTouchBar, Type: TouchUp, Slot: slot, X: x, Y: y})
				delete(m.slots, slot)
			}
		case s.upPending:
			out = append(out, Event{Seat: SeatTouchBar, Type: TouchUp, Slot: slot, X: x, Y: y})
			delete(m.slots, slot)
		case s.moved:
			out = append(out, Event{Seat: SeatTouchBar, Type: TouchMotion, Slot: slot, X: x, Y: y})
			s.moved = false
		}
	}
	return out
}

func (m *mtDecoder) scale(x, y int32) (float64, float64) {
	sx := float64(0)
	if span := m.ranges.xMax - m.ranges.xMin; span > 0 {
		sx = float64(x-m.ranges.xMin) / float64(span) * float64(m.stripW)
	}
	sy := float64(0)
	if span := m.ranges.yMax - m.ranges.yMin; span > 0 {
		sy = float64(y-m.ranges.yMin) / float64(span) * float64(m.stripH)
	}
	return sx, sy
}
