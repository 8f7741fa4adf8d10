package jdeserialize

import (
	"bytes"
	"testing"
)

func TestDecodeSimpleInstance(t *testing.T) {
	data := []byte{
		0xAC, 0xED, 0x00, 0x05,
		0x73, // TC_OBJECT
		0x72, // TC_CLASSDESC
		0x00, 0x03, 'B', 'o', 'x', // name "Box"
		0, 0, 0, 0, 0, 0, 0, 1, // serialVersionUID = 1
		0x02,       // SC_SERIALIZABLE
		0x00, 0x01, // 1 field
		0x49, 0x00, 0x05, 'v', 'a', 'l', 'u', 'e', // int field "value"
		0x78,                   // TC_ENDBLOCKDATA (class annotations)
		0x70,                   // TC_NULL (superclass)
		0x00, 0x00, 0x00, 0x2A, // value = 42
	}
	ds := decodeBytes(t, data)
	top := ds.TopLevel()
	if len(top) != 1 {
		t.Fatalf("TopLevel() has %d elements, want 1", len(top))
	}

	iv, ok := top[0].Value.(*InstanceValue)
	if !ok {
		t.Fatalf("top[0].Value is %T, want *InstanceValue", top[0].Value)
	}
	if iv.Desc.Name != "Box" {
		t.Errorf("class name = %q, want %q", iv.Desc.Name, "Box")
	}
	v, ok := ds.FieldValue(iv.Desc, "value", top[0].Handle)
	if !ok {
		t.Fatal("expected field \"value\" to resolve")
	}
	if v.(int32) != 42 {
		t.Errorf("value = %v, want 42", v)
	}
}

func TestDecodeSelfReferentialInstance(t *testing.T) {
	data := []byte{
		0xAC, 0xED, 0x00, 0x05,
		0x73, // TC_OBJECT
		0x72, // TC_CLASSDESC
		0x00, 0x04, 'N', 'o', 'd', 'e', // name "Node"
		0, 0, 0, 0, 0, 0, 0, 0, // serialVersionUID
		0x02,       // SC_SERIALIZABLE
		0x00, 0x01, // 1 field
		0x4C, 0x00, 0x04, 's', 'e', 'l', 'f', // object field "self"
		0x74, 0x00, 0x06, 'L', 'N', 'o', 'd', 'e', ';', // field class name "LNode;"
		0x78, // TC_ENDBLOCKDATA (class annotations)
		0x70, // TC_NULL (superclass)
		0x71, 0x00, 0x7E, 0x00, 0x02, // field value: TC_REFERENCE to handle 0x7E0002
	}
	ds := decodeBytes(t, data)
	top := ds.TopLevel()
	if len(top) != 1 {
		t.Fatalf("TopLevel() has %d elements, want 1", len(top))
	}

	node := top[0]
	if node.Handle != baseHandle+2 {
		t.Fatalf("node handle = 0x%x, want 0x%x", node.Handle, baseHandle+2)
	}
	iv := node.Value.(*InstanceValue)
	self, ok := ds.FieldValue(iv.Desc, "self", node.Handle)
	if !ok {
		t.Fatal("expected field \"self\" to resolve")
	}
	selfContent, ok := self.(*Content)
	if !ok {
		t.Fatalf("self field value is %T, want *Content", self)
	}
	if selfContent != node {
		t.Error("self field should reference the same Content as the owning instance")
	}
}

func TestDecodeEnum(t *testing.T) {
	data := []byte{
		0xAC, 0xED, 0x00, 0x05,
		0x7E, // TC_ENUM
		0x72, // TC_CLASSDESC
		0x00, 0x05, 'C', 'o', 'l', 'o', 'r', // name "Color"
		0, 0, 0, 0, 0, 0, 0, 0, // serialVersionUID
		0x10,       // SC_ENUM
		0x00, 0x00, // 0 fields
		0x78, // TC_ENDBLOCKDATA
		0x70, // TC_NULL (superclass)
		0x74, 0x00, 0x03, 'R', 'E', 'D', // TC_STRING "RED"
	}
	ds := decodeBytes(t, data)
	top := ds.TopLevel()
	if len(top) != 1 {
		t.Fatalf("TopLevel() has %d elements, want 1", len(top))
	}
	ev, ok := top[0].Value.(*EnumValue)
	if !ok {
		t.Fatalf("top[0].Value is %T, want *EnumValue", top[0].Value)
	}
	if ev.Value != "RED" {
		t.Errorf("enum constant = %q, want %q", ev.Value, "RED")
	}
	if _, ok := ev.Desc.EnumConstants["RED"]; !ok {
		t.Error("expected \"RED\" to be recorded in the descriptor's enum constant set")
	}
}

func TestDecodeTopLevelException(t *testing.T) {
	data := []byte{
		0xAC, 0xED, 0x00, 0x05,
		0x7B, // TC_EXCEPTION
		0x73, // TC_OBJECT
		0x72, // TC_CLASSDESC
		0x00, 0x03, 'E', 'r', 'r', // name "Err"
		0, 0, 0, 0, 0, 0, 0, 0, // serialVersionUID
		0x02,       // SC_SERIALIZABLE
		0x00, 0x00, // 0 fields
		0x78, // TC_ENDBLOCKDATA
		0x70, // TC_NULL (superclass)
	}
	ds := decodeBytes(t, data)
	top := ds.TopLevel()
	if len(top) != 1 {
		t.Fatalf("TopLevel() has %d elements, want 1", len(top))
	}

	if top[0].Kind != KindExceptionState {
		t.Fatalf("top[0].Kind = %v, want %v", top[0].Kind, KindExceptionState)
	}
	esv := top[0].Value.(*ExceptionStateValue)
	if esv.Exception.Kind != KindInstance {
		t.Errorf("wrapped exception kind = %v, want %v", esv.Exception.Kind, KindInstance)
	}
	if !esv.Exception.IsException {
		t.Error("wrapped exception content should have IsException = true")
	}
	if len(esv.RawPrefix) == 0 || esv.RawPrefix[0] != 0x7B {
		t.Errorf("raw prefix = %x, want to start with the TC_EXCEPTION tag", esv.RawPrefix)
	}
	if len(ds.Epochs()) != 1 {
		t.Errorf("Epochs() has %d entries, want 1", len(ds.Epochs()))
	}
}

func TestDecodeEmbeddedExceptionInField(t *testing.T) {
	// An instance with one object-typed field whose value is itself a
	// TC_EXCEPTION: the exception must bubble out and be captured at the
	// top-level boundary as an EXCEPTION_STATE, not surface as a decode
	// error and not appear as an ordinary field value.
	data := []byte{
		0xAC, 0xED, 0x00, 0x05,
		0x73, // TC_OBJECT
		0x72, // TC_CLASSDESC
		0x00, 0x06, 'H', 'o', 'l', 'd', 'e', 'r', // name "Holder"
		0, 0, 0, 0, 0, 0, 0, 0, // serialVersionUID
		0x02,       // SC_SERIALIZABLE
		0x00, 0x01, // 1 field
		0x4C, 0x00, 0x05, 'c', 'a', 'u', 's', 'e', // object field "cause"
		0x74, 0x00, 0x12, 'L', 'j', 'a', 'v', 'a', '/', 'l', 'a', 'n', 'g', '/', 'O', 'b', 'j', 'e', 'c', 't', ';', // "Ljava/lang/Object;"
		0x78, // TC_ENDBLOCKDATA
		0x70, // TC_NULL (superclass)
		0x7B, // field value: TC_EXCEPTION
		0x73, // TC_OBJECT (the exception instance)
		0x72, // TC_CLASSDESC
		0x00, 0x03, 'E', 'r', 'r', // name "Err"
		0, 0, 0, 0, 0, 0, 0, 0, // serialVersionUID
		0x02,       // SC_SERIALIZABLE
		0x00, 0x00, // 0 fields
		0x78, // TC_ENDBLOCKDATA
		0x70, // TC_NULL (superclass)
	}
	ds := decodeBytes(t, data)
	top := ds.TopLevel()
	if len(top) != 1 {
		t.Fatalf("TopLevel() has %d elements, want 1", len(top))
	}
	if top[0].Kind != KindExceptionState {
		t.Fatalf("top[0].Kind = %v, want %v (the embedded exception should replace the whole Holder record)", top[0].Kind, KindExceptionState)
	}
}

func TestDecodeEmbeddedExceptionInArrayElement(t *testing.T) {
	// Same scenario as TestDecodeEmbeddedExceptionInField, but the exception
	// is thrown while writing an object-array element instead of an
	// instance field: the array-element reader wraps the bubbled-up signal
	// with per-index context (errors.Wrapf), so the whole array's
	// top-level record must still collapse to an EXCEPTION_STATE rather
	// than surfacing the wrap as a fatal decode error.
	data := []byte{
		0xAC, 0xED, 0x00, 0x05,
		0x75, // TC_ARRAY
		0x72, // TC_CLASSDESC
		0x00, 0x13, '[', 'L', 'j', 'a', 'v', 'a', '/', 'l', 'a', 'n', 'g', '/', 'O', 'b', 'j', 'e', 'c', 't', ';', // "[Ljava/lang/Object;"
		0, 0, 0, 0, 0, 0, 0, 0, // serialVersionUID
		0x02,       // SC_SERIALIZABLE
		0x00, 0x00, // 0 fields
		0x78,                   // TC_ENDBLOCKDATA
		0x70,                   // TC_NULL (superclass)
		0x00, 0x00, 0x00, 0x01, // array length = 1
		0x7B, // element 0: TC_EXCEPTION
		0x73, // TC_OBJECT (the exception instance)
		0x72, // TC_CLASSDESC
		0x00, 0x03, 'E', 'r', 'r', // name "Err"
		0, 0, 0, 0, 0, 0, 0, 0, // serialVersionUID
		0x02,       // SC_SERIALIZABLE
		0x00, 0x00, // 0 fields
		0x78, // TC_ENDBLOCKDATA
		0x70, // TC_NULL (superclass)
	}
	ds := decodeBytes(t, data)
	top := ds.TopLevel()
	if len(top) != 1 {
		t.Fatalf("TopLevel() has %d elements, want 1", len(top))
	}
	if top[0].Kind != KindExceptionState {
		t.Fatalf("top[0].Kind = %v, want %v (the embedded exception should replace the whole array record)", top[0].Kind, KindExceptionState)
	}
}

func TestDecodeResetDuringExceptionObjectIsValidityError(t *testing.T) {
	data := []byte{
		0xAC, 0xED, 0x00, 0x05,
		0x7B, // TC_EXCEPTION
		0x79, // TC_RESET where an instance tag was expected
	}
	if _, err := Decode(bytes.NewReader(data), Options{}); err == nil {
		t.Fatal("expected an error: TC_RESET is not a valid exception-object tag")
	}
}
