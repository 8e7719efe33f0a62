package cartview

import "sync"

// CounterSink receives the total item count shown on a badge. A page may
// expose zero, one or many counters; all get the same value.
type CounterSink interface {
	SetCount(count int)
}

// DrawerSink receives the full itemized view for the mini-cart drawer.
type DrawerSink interface {
	Render(v View)
}

// Sinks is the registry of view surfaces to refresh after a mutation.
// Refresh with nothing registered is a no-op.
type Sinks struct {
	mu       sync.Mutex
	counters []CounterSink
	drawer   DrawerSink
}

func NewSinks() *Sinks { return &Sinks{} }

func (s *Sinks) RegisterCounter(c CounterSink) {
	if c == nil {
		return
	}
	s.mu.Lock()
	s.counters = append(s.counters, c)
	s.mu.Unlock()
}

func (s *Sinks) RegisterDrawer(d DrawerSink) {
	s.mu.Lock()
	s.drawer = d
	s.mu.Unlock()
}

// Refresh pushes v to every registered surface.
func (s *Sinks) Refresh(v View) {
	if s == nil {
		return
	}
	s.mu.Lock()
	counters := make([]CounterSink, len(s.counters))
	copy(counters, s.counters)
	drawer := s.drawer
	s.mu.Unlock()
	for _, c := range counters {
		c.SetCount(v.Count)
	}
	if drawer != nil {
		drawer.Render(v)
	}
}
