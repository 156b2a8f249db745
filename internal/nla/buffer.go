package nla

import (
	"fmt"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/evalctx"
	"github.com/roach88/animeval/internal/host"
)

// Key identifies one property element touched during a pass.
type Key struct {
	Entity string
	Path   string
	Index  int
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s[%d]", k.Entity, k.Path, k.Index)
}

// Channel is the transient accumulator for one resolved property element.
type Channel struct {
	Key   Key
	Slot  host.PropertySlot
	Value float64
}

// Buffer collects the channels of one evaluation pass in first-touch order.
type Buffer struct {
	chans  []*Channel
	index  map[Key]*Channel
	missed map[Key]bool
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{index: make(map[Key]*Channel), missed: make(map[Key]bool)}
}

// Len returns the number of channels.
func (b *Buffer) Len() int { return len(b.chans) }

// Channels returns the channels in first-touch order.
func (b *Buffer) Channels() []*Channel { return b.chans }

// Lookup returns the channel for k, or nil.
func (b *Buffer) Lookup(k Key) *Channel { return b.index[k] }

// Value returns the accumulated value for k.
func (b *Buffer) Value(k Key) (float64, bool) {
	c, ok := b.index[k]
	if !ok {
		return 0, false
	}
	return c.Value, true
}

// verify returns the channel for k, creating it by resolving the property.
// fresh is true for a channel created by this call. A property that does not
// resolve is reported once per buffer and yields nil.
func (b *Buffer) verify(ec *evalctx.Context, resolver host.PropertyResolver, k Key) (c *Channel, fresh bool) {
	if c := b.index[k]; c != nil {
		return c, false
	}
	if b.missed[k] {
		return nil, false
	}
	var (
		slot host.PropertySlot
		ok   bool
	)
	if resolver != nil {
		slot, ok = resolver.Resolve(k.Entity, k.Path, k.Index)
	}
	if !ok {
		b.missed[k] = true
		ec.Report(evalctx.NewBindingMiss(k.Entity, k.Path, k.Index))
		return nil, false
	}
	return b.add(k, slot), true
}

func (b *Buffer) add(k Key, slot host.PropertySlot) *Channel {
	c := &Channel{Key: k, Slot: slot}
	b.chans = append(b.chans, c)
	b.index[k] = c
	return c
}

// Accumulate combines v into the channel for k, resolving it on first touch.
func (b *Buffer) Accumulate(ec *evalctx.Context, resolver host.PropertyResolver, k Key, v, influence float64, mode anim.BlendMode) {
	c, fresh := b.verify(ec, resolver, k)
	if c == nil {
		return
	}
	accumulate(c, fresh, v, influence, mode)
}

// accumulate applies one contribution. The first write to a fresh channel
// stores the raw value; later writes are scaled by influence and blended.
func accumulate(c *Channel, fresh bool, v, influence float64, mode anim.BlendMode) {
	if fresh {
		c.Value = v
		return
	}
	if influence == 0 {
		return
	}
	v *= influence
	switch mode {
	case anim.BlendAdd:
		c.Value += v
	case anim.BlendSubtract:
		c.Value -= v
	case anim.BlendMultiply:
		c.Value *= v
	default:
		c.Value = c.Value*(1-influence) + v
	}
}

// merge folds every channel of src into b using one influence and blend
// mode. Channels new to b are moved in with their raw value.
func (b *Buffer) merge(src *Buffer, influence float64, mode anim.BlendMode) {
	for _, sc := range src.chans {
		if c := b.index[sc.Key]; c != nil {
			accumulate(c, false, sc.Value, influence, mode)
			continue
		}
		b.add(sc.Key, sc.Slot).Value = sc.Value
	}
}

// Flush writes every channel through its slot. Booleans are true at 0.5 and
// above; integers and enums truncate toward zero.
func Flush(b *Buffer) {
	for _, c := range b.chans {
		Write(c.Slot, c.Value)
	}
}

// Write stores v into slot according to the slot's kind.
func Write(slot host.PropertySlot, v float64) {
	switch slot.Kind() {
	case host.SlotBool:
		slot.SetBool(v >= 0.5)
	case host.SlotInt, host.SlotEnum:
		slot.SetInt(int64(v))
	default:
		slot.SetFloat(v)
	}
}
