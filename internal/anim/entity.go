package anim

import (
	"fmt"
	"sort"
)

// EntityKind groups entities for batch evaluation. Kinds are evaluated in
// declaration order so that data read by later kinds (textures, materials,
// shape keys) is animated before the objects that use it.
type EntityKind int

const (
	KindNodeTree EntityKind = iota
	KindTexture
	KindLight
	KindMaterial
	KindCamera
	KindShapeKey
	KindMesh
	KindCurve
	KindArmature
	KindObject
	KindWorld
	KindScene
)

var entityKindNames = [...]string{
	"node_tree", "texture", "light", "material", "camera", "shape_key",
	"mesh", "curve", "armature", "object", "world", "scene",
}

func (k EntityKind) String() string {
	if k < 0 || int(k) >= len(entityKindNames) {
		return fmt.Sprintf("EntityKind(%d)", int(k))
	}
	return entityKindNames[k]
}

// ParseEntityKind parses the snake_case kind name.
func ParseEntityKind(s string) (EntityKind, bool) {
	for i, n := range entityKindNames {
		if n == s {
			return EntityKind(i), true
		}
	}
	return KindObject, false
}

// Entity is an animatable data block.
type Entity struct {
	ID   string
	Kind EntityKind
	Anim *AnimData
}

// World is the set of entities evaluated together.
type World struct {
	Entities []*Entity
}

// Add appends e.
func (w *World) Add(e *Entity) {
	w.Entities = append(w.Entities, e)
}

// Find returns the entity with the given id.
func (w *World) Find(id string) *Entity {
	for _, e := range w.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// EvalOrder returns the entities sorted by kind, keeping insertion order
// within a kind.
func (w *World) EvalOrder() []*Entity {
	out := append([]*Entity(nil), w.Entities...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind < out[j].Kind
	})
	return out
}
