package input

// PointerSession is the per-gesture pointer state. One velocity is latched
// when a gesture starts and reused for every key the pointer slides over
// until the gesture is released.
type PointerSession struct {
	Latched  bool
	Velocity float64

	// Touch is set once a touch gesture has been seen. Mouse presses and
	// releases are ignored from then on, since touch screens also emit
	// emulated mouse events.
	Touch bool
}

// Latch returns the velocity to use for a key hit at v: the latched velocity
// if a gesture is in progress, otherwise v, which becomes the latch.
func (s PointerSession) Latch(v float64) (PointerSession, float64) {
	if s.Latched {
		return s, s.Velocity
	}
	s.Latched = true
	s.Velocity = v
	return s, v
}

// Release ends the gesture.
func (s PointerSession) Release() PointerSession {
	s.Latched = false
	s.Velocity = 0
	return s
}

// StartTouches begins a touch-start batch. The first touch of the batch sets
// the velocity for the rest of it.
func (s PointerSession) StartTouches() PointerSession {
	s = s.Release()
	s.Touch = true
	return s
}
