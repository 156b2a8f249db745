package driver

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/host"
	"github.com/roach88/animeval/internal/mathx"
)

type fakeSlot struct{ v float64 }

func (s *fakeSlot) Kind() host.SlotKind { return host.SlotFloat }
func (s *fakeSlot) Get() float64        { return s.v }
func (s *fakeSlot) SetFloat(v float64)  { s.v = v }
func (s *fakeSlot) SetInt(v int64)      { s.v = float64(v) }
func (s *fakeSlot) SetBool(v bool) {
	s.v = 0
	if v {
		s.v = 1
	}
}

type fakeResolver struct {
	mu    sync.Mutex
	props map[string]*fakeSlot
	calls int
}

func newResolver() *fakeResolver {
	return &fakeResolver{props: map[string]*fakeSlot{}}
}

func key(entity, path string, index int) string {
	return fmt.Sprintf("%s:%s[%d]", entity, path, index)
}

func (r *fakeResolver) set(entity, path string, index int, v float64) {
	r.props[key(entity, path, index)] = &fakeSlot{v: v}
}

func (r *fakeResolver) Resolve(entity, path string, index int) (host.PropertySlot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	s, ok := r.props[key(entity, path, index)]
	return s, ok
}

type fakeTransforms map[string]mathx.Mat4

func (f fakeTransforms) Transform(entity, subPart string, space anim.Space) (mathx.Mat4, bool) {
	m, ok := f[entity+"/"+subPart+"/"+space.String()]
	if !ok {
		m, ok = f[entity+"/"+subPart]
	}
	return m, ok
}

type fakeHost struct {
	mu       sync.Mutex
	names    []string
	values   []float64
	result   float64
	err      error
	calls    atomic.Int32
	inflight atomic.Int32
	maxSeen  atomic.Int32
}

func (h *fakeHost) Eval(expression string, names []string, values []float64) (float64, error) {
	n := h.inflight.Add(1)
	defer h.inflight.Add(-1)
	for {
		m := h.maxSeen.Load()
		if n <= m || h.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	h.calls.Add(1)
	h.mu.Lock()
	h.names = append([]string(nil), names...)
	h.values = append([]float64(nil), values...)
	h.mu.Unlock()
	return h.result, h.err
}

var errHost = errors.New("host failure")

func propVar(d *anim.Driver, name, entity, path string) *anim.DriverVariable {
	v := d.AddVariable(name, anim.VarSingleProperty)
	v.Targets[0].Entity = entity
	v.Targets[0].Path = path
	return v
}
