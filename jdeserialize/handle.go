package jdeserialize

// Handle is a stream back-reference handle. The wire value for the first
// handle assigned is 0x7E0000; Handle stores that raw wire value.
type Handle uint32

// baseHandle is the wire value of the first handle ever assigned in a
// stream (java.io.ObjectStreamConstants.baseWireHandle).
const baseHandle Handle = 0x7E0000

// Epoch is one archived generation of the handle table: the bindings that
// existed at the moment a TC_RESET (or end-of-stream) archived them.
type Epoch struct {
	Bindings map[Handle]*Content
}

// handleTable tracks the handle -> Content bindings for the generation
// currently being built, plus every generation archived so far by a
// TC_RESET or the final end-of-stream flush.
type handleTable struct {
	active  map[Handle]*Content
	next    Handle
	archive []*Epoch
}

func newHandleTable() *handleTable {
	return &handleTable{
		active: make(map[Handle]*Content),
		next:   baseHandle,
	}
}

// alloc reserves the next handle without binding it to any Content yet.
func (t *handleTable) alloc() Handle {
	h := t.next
	t.next++
	return h
}

// bind associates a handle (previously returned by alloc) with its Content.
// Binding before the Content's payload is fully populated is what makes
// self-referential cycles representable: the same *Content pointer is
// stored here and then mutated in place once its fields finish decoding.
// Rebinding an already-bound handle is a validity error (§4.3, §7); every
// caller obtains h fresh from alloc immediately beforehand, but the check
// is enforced here rather than left implicit in that calling convention.
func (t *handleTable) bind(h Handle, c *Content) error {
	if _, already := t.active[h]; already {
		return newValidityError("handle 0x%x is already bound", uint32(h))
	}
	t.active[h] = c
	return nil
}

// resolve looks up a handle in the active generation only.
func (t *handleTable) resolve(h Handle) (*Content, bool) {
	c, ok := t.active[h]
	return c, ok
}

// reset archives the current generation (if non-empty) and starts a fresh
// one. The next handle assigned after a reset is again baseHandle, mirroring
// the wire protocol's TC_RESET semantics.
func (t *handleTable) reset() {
	if len(t.active) > 0 {
		t.archive = append(t.archive, &Epoch{Bindings: t.active})
	}
	t.active = make(map[Handle]*Content)
	t.next = baseHandle
}

// flush archives whatever remains in the active generation at end of
// stream, mirroring an implicit trailing reset.
func (t *handleTable) flush() {
	if len(t.active) > 0 {
		t.archive = append(t.archive, &Epoch{Bindings: t.active})
		t.active = make(map[Handle]*Content)
	}
}

// epochs returns every archived generation, oldest first.
func (t *handleTable) epochs() []*Epoch {
	return t.archive
}
