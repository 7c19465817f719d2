package job

// DefaultGateCapacity is the default bound on concurrently running
// subprocesses across a whole batch.
const DefaultGateCapacity = 30

// Gate is a counting semaphore bounding how many subprocesses may be
// alive at once. It is the only state shared by every job in a run;
// jobs hold a slot strictly around their spawn-to-reap window, so
// waiting on a dependency or on the gate itself costs no slot.
type Gate struct {
	slots chan struct{}
}

// NewGate creates a gate with the given capacity. Non-positive values
// fall back to DefaultGateCapacity.
func NewGate(capacity int) *Gate {
	if capacity <= 0 {
		capacity = DefaultGateCapacity
	}
	return &Gate{slots: make(chan struct{}, capacity)}
}

// Capacity returns the gate's slot count.
func (g *Gate) Capacity() int {
	return cap(g.slots)
}

// Acquire blocks until a slot is free.
func (g *Gate) Acquire() {
	g.slots <- struct{}{}
}

// Release returns a slot.
func (g *Gate) Release() {
	<-g.slots
}
