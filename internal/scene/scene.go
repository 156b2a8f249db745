// Package scene is the reference in-memory scene used by the CLI, the bake
// pipeline and the conformance harness. It implements host.PropertyResolver
// and host.TransformSource.
//
// Objects carry named numeric properties, an optional parent and optional
// bones. Transform properties ("location", "rotation_euler",
// "rotation_quaternion", "rotation_axis_angle", "scale") are ordinary
// properties; matrices are
// composed from them on demand. Bone properties are addressed as
// bones["Name"].location.
//
// Structural edits (AddObject, AddBone, AddProperty) must not run
// concurrently with evaluation. Property values of distinct objects may be
// written concurrently.
package scene

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/host"
	"github.com/roach88/animeval/internal/mathx"
)

// Transform property paths.
const (
	PathLocation      = "location"
	PathRotationEuler = "rotation_euler"
	PathRotationQuat  = "rotation_quaternion"
	PathAxisAngle     = "rotation_axis_angle"
	PathScale         = "scale"
)

// Property is a numeric property of one or more elements.
type Property struct {
	Kind   host.SlotKind
	Values []float64
}

// Node holds the properties of an object or a bone.
type Node struct {
	Name   string
	Parent string
	// Rotation selects which rotation property composes the matrix.
	Rotation anim.RotationMode
	Props    map[string]*Property
}

func newNode(name, parent string) *Node {
	n := &Node{
		Name:     name,
		Parent:   parent,
		Rotation: anim.RotationMode{Kind: anim.RotEuler, Order: mathx.EulerXYZ},
		Props:    make(map[string]*Property),
	}
	n.Props[PathLocation] = &Property{Kind: host.SlotFloat, Values: []float64{0, 0, 0}}
	n.Props[PathRotationEuler] = &Property{Kind: host.SlotFloat, Values: []float64{0, 0, 0}}
	n.Props[PathRotationQuat] = &Property{Kind: host.SlotFloat, Values: []float64{1, 0, 0, 0}}
	n.Props[PathAxisAngle] = &Property{Kind: host.SlotFloat, Values: []float64{0, 0, 1, 0}}
	n.Props[PathScale] = &Property{Kind: host.SlotFloat, Values: []float64{1, 1, 1}}
	return n
}

// Basis composes the node's own transform channels.
func (n *Node) Basis() mathx.Mat4 {
	loc := vec3(n.Props[PathLocation])
	scale := vec3(n.Props[PathScale])
	var rot mathx.Quat
	switch n.Rotation.Kind {
	case anim.RotQuaternion:
		q := n.Props[PathRotationQuat].Values
		rot = mathx.Quat{W: q[0], X: q[1], Y: q[2], Z: q[3]}.Normalize()
	case anim.RotAxisAngle:
		// Stored as (angle, x, y, z).
		aa := n.Props[PathAxisAngle].Values
		rot = mathx.QuatFromAxisAngle(mathx.Vec3{aa[1], aa[2], aa[3]}, aa[0])
	default:
		rot = mathx.QuatFromEuler(vec3(n.Props[PathRotationEuler]), n.Rotation.Order)
	}
	return mathx.Compose(loc, rot, scale)
}

func vec3(p *Property) mathx.Vec3 {
	var v mathx.Vec3
	copy(v[:], p.Values)
	return v
}

// Object is a scene object.
type Object struct {
	*Node
	Bones map[string]*Node
}

// Scene is a set of objects. It is safe to resolve properties concurrently.
type Scene struct {
	mu      sync.RWMutex
	objects map[string]*Object
	order   []string
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{objects: make(map[string]*Object)}
}

// AddObject adds an object with default transform properties. An existing
// object with the same id is returned unchanged.
func (s *Scene) AddObject(id, parent string) *Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.objects[id]; ok {
		return o
	}
	o := &Object{Node: newNode(id, parent), Bones: make(map[string]*Node)}
	s.objects[id] = o
	s.order = append(s.order, id)
	return o
}

// Object returns the object with the given id.
func (s *Scene) Object(id string) *Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[id]
}

// Objects returns object ids in insertion order.
func (s *Scene) Objects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// AddBone adds a bone to o. parent names another bone or is empty.
func (o *Object) AddBone(name, parent string) *Node {
	if b, ok := o.Bones[name]; ok {
		return b
	}
	b := newNode(name, parent)
	o.Bones[name] = b
	return b
}

// AddProperty creates or replaces a property with the given initial values.
func (n *Node) AddProperty(path string, kind host.SlotKind, values ...float64) *Property {
	if len(values) == 0 {
		values = []float64{0}
	}
	p := &Property{Kind: kind, Values: append([]float64(nil), values...)}
	n.Props[path] = p
	return p
}

// slot is a writable element of a property.
type slot struct {
	p *Property
	i int
}

func (s slot) Kind() host.SlotKind { return s.p.Kind }
func (s slot) Get() float64        { return s.p.Values[s.i] }
func (s slot) SetFloat(v float64)  { s.p.Values[s.i] = v }
func (s slot) SetInt(v int64)      { s.p.Values[s.i] = float64(v) }

func (s slot) SetBool(v bool) {
	if v {
		s.p.Values[s.i] = 1
		return
	}
	s.p.Values[s.i] = 0
}

// Resolve implements host.PropertyResolver.
func (s *Scene) Resolve(entity, path string, index int) (host.PropertySlot, bool) {
	o := s.Object(entity)
	if o == nil {
		return nil, false
	}
	n, prop, ok := o.split(path)
	if !ok {
		return nil, false
	}
	p := n.Props[prop]
	if p == nil || index < 0 || index >= len(p.Values) {
		return nil, false
	}
	return slot{p: p, i: index}, true
}

// split separates a bones["Name"].prop path into the bone node and the
// property name.
func (o *Object) split(path string) (*Node, string, bool) {
	const prefix = `bones["`
	if !strings.HasPrefix(path, prefix) {
		return o.Node, path, true
	}
	rest := path[len(prefix):]
	end := strings.Index(rest, `"]`)
	if end < 0 {
		return nil, "", false
	}
	b := o.Bones[rest[:end]]
	prop := strings.TrimPrefix(rest[end+2:], ".")
	if b == nil || prop == "" {
		return nil, "", false
	}
	return b, prop, true
}

// BonePath returns the property path of prop on bone.
func BonePath(bone, prop string) string {
	return fmt.Sprintf(`bones[%q].%s`, bone, prop)
}

// Transform implements host.TransformSource. For objects, world space
// includes every parent; transform and local space are the object's own
// channels. For bones, world space includes the bone chain and the owning
// object, local space is the bone chain relative to the object, and
// transform space is the bone's own channels.
func (s *Scene) Transform(entity, subPart string, space anim.Space) (mathx.Mat4, bool) {
	o := s.Object(entity)
	if o == nil {
		return mathx.Mat4{}, false
	}
	if subPart == "" {
		if space == anim.SpaceWorld {
			return s.world(o, 0)
		}
		return o.Basis(), true
	}
	b := o.Bones[subPart]
	if b == nil {
		return mathx.Mat4{}, false
	}
	switch space {
	case anim.SpaceTransform:
		return b.Basis(), true
	case anim.SpaceLocal:
		return o.boneChain(b)
	}
	chain, ok := o.boneChain(b)
	if !ok {
		return mathx.Mat4{}, false
	}
	w, ok := s.world(o, 0)
	if !ok {
		return mathx.Mat4{}, false
	}
	return mathx.Mul(w, chain), true
}

// maxDepth bounds parent walks so a parent cycle cannot loop forever.
const maxDepth = 64

func (s *Scene) world(o *Object, depth int) (mathx.Mat4, bool) {
	if depth > maxDepth {
		return mathx.Mat4{}, false
	}
	m := o.Basis()
	if o.Parent == "" {
		return m, true
	}
	p := s.Object(o.Parent)
	if p == nil {
		return mathx.Mat4{}, false
	}
	pm, ok := s.world(p, depth+1)
	if !ok {
		return mathx.Mat4{}, false
	}
	return mathx.Mul(pm, m), true
}

func (o *Object) boneChain(b *Node) (mathx.Mat4, bool) {
	m := b.Basis()
	for depth := 0; b.Parent != ""; depth++ {
		if depth > maxDepth {
			return mathx.Mat4{}, false
		}
		b = o.Bones[b.Parent]
		if b == nil {
			return mathx.Mat4{}, false
		}
		m = mathx.Mul(b.Basis(), m)
	}
	return m, true
}

// Sample is one property element value.
type Sample struct {
	Entity string  `json:"entity"`
	Path   string  `json:"path"`
	Index  int     `json:"index"`
	Value  float64 `json:"value"`
}

// Snapshot returns every property element of the given objects, or of all
// objects when ids is empty, ordered by object insertion order, then path,
// then index. Bone properties follow the object's own properties.
func (s *Scene) Snapshot(ids ...string) []Sample {
	if len(ids) == 0 {
		ids = s.Objects()
	}
	var out []Sample
	for _, id := range ids {
		o := s.Object(id)
		if o == nil {
			continue
		}
		out = appendNode(out, id, "", o.Node)
		bones := make([]string, 0, len(o.Bones))
		for name := range o.Bones {
			bones = append(bones, name)
		}
		sort.Strings(bones)
		for _, name := range bones {
			out = appendNode(out, id, name, o.Bones[name])
		}
	}
	return out
}

func appendNode(out []Sample, entity, bone string, n *Node) []Sample {
	paths := make([]string, 0, len(n.Props))
	for p := range n.Props {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		full := p
		if bone != "" {
			full = BonePath(bone, p)
		}
		for i, v := range n.Props[p].Values {
			out = append(out, Sample{Entity: entity, Path: full, Index: i, Value: v})
		}
	}
	return out
}

var (
	_ host.PropertyResolver = (*Scene)(nil)
	_ host.TransformSource  = (*Scene)(nil)
)
