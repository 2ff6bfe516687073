package event

// Signal is a coalescing wake-up: any number of Notify calls made before the
// receiver drains C collapse into a single pending wake.
type Signal struct {
	c chan struct{}
}

func NewSignal() *Signal {
	return &Signal{c: make(chan struct{}, 1)}
}

// Notify requests a wake. It never blocks; if a wake is already pending the
// request is dropped because it is already covered.
func (s *Signal) Notify() bool {
	select {
	case s.c <- struct{}{}:
		return true
	default:
		return false
	}
}

// C is the receive side used in select loops.
func (s *Signal) C() <-chan struct{} {
	return s.c
}

// Pending reports whether a wake is waiting to be drained.
func (s *Signal) Pending() bool {
	return len(s.c) > 0
}
