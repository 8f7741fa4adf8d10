package jdeserialize

import "strings"

// Kind discriminates the variants of a decoded Content node (see java object
// serialization stream protocol §6).
type Kind int

const (
	KindString Kind = iota
	KindClass
	KindClassDesc
	KindArray
	KindEnum
	KindInstance
	KindBlockData
	KindExceptionState
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindClass:
		return "Class"
	case KindClassDesc:
		return "ClassDesc"
	case KindArray:
		return "Array"
	case KindEnum:
		return "Enum"
	case KindInstance:
		return "Instance"
	case KindBlockData:
		return "BlockData"
	case KindExceptionState:
		return "ExceptionState"
	default:
		return "Unknown"
	}
}

// Content is the tagged envelope for every decoded stream element other than
// a literal null. Handle/HasHandle/IsException are the fields common to
// every kind; Value carries the kind-specific payload.
type Content struct {
	Kind        Kind
	Handle      Handle
	HasHandle   bool
	IsException bool
	Value       interface{}
}

// StringValue is the payload of a KindString content.
type StringValue struct {
	Value string
}

// ClassValue is the payload of a KindClass content (a TC_CLASS class
// literal): a reference to the class descriptor it names.
type ClassValue struct {
	Desc *ClassDesc
}

// ClassDescValue is the payload of a KindClassDesc content: the content IS
// the class descriptor it wraps.
type ClassDescValue struct {
	Desc *ClassDesc
}

// ArrayValue is the payload of a KindArray content. Elements holds either
// native Go primitive values (for primitive element types) or *Content
// (possibly nil, for object/array element types).
type ArrayValue struct {
	Desc     *ClassDesc
	Elements []interface{}
}

// EnumValue is the payload of a KindEnum content.
type EnumValue struct {
	Desc  *ClassDesc
	Value string
}

// InstanceValue is the payload of a KindInstance content: per-superclass
// field values and per-superclass write-method annotations, keyed by the
// ClassDesc each belongs to.
type InstanceValue struct {
	Desc        *ClassDesc
	Fields      map[*ClassDesc]map[string]interface{}
	Annotations map[*ClassDesc][]*Content
}

// BlockDataValue is the payload of a KindBlockData content. BlockData
// content carries no handle.
type BlockDataValue struct {
	Data []byte
}

// ExceptionStateValue is the payload of a KindExceptionState content. Its
// envelope Handle equals the wrapped exception's handle.
type ExceptionStateValue struct {
	Exception *Content
	RawPrefix []byte
}

// ClassType distinguishes a regular class descriptor from a dynamic-proxy
// class descriptor.
type ClassType int

const (
	ClassTypeNormal ClassType = iota
	ClassTypeProxy
)

// DescFlag is a bit of the class descriptor flags byte.
type DescFlag uint8

const (
	FlagWriteMethod    DescFlag = 0x01
	FlagSerializable   DescFlag = 0x02
	FlagExternalizable DescFlag = 0x04
	FlagBlockData      DescFlag = 0x08
	FlagEnum           DescFlag = 0x10
)

// proxyPlaceholderName is assigned to every PROXY class descriptor; proxy
// descriptors never carry a real name on the wire.
const proxyPlaceholderName = "(proxy class; no name)"

// ClassDesc models a single class descriptor, normal or proxy.
type ClassDesc struct {
	Handle           Handle
	ClassType        ClassType
	Name             string
	SerialVersionUID uint64
	DescFlags        DescFlag
	Fields           []*Field
	Interfaces       []string
	EnumConstants    map[string]struct{}
	Annotations      []*Content
	Superclass       *ClassDesc

	InnerClasses        []*ClassDesc
	IsInnerClass        bool
	IsLocalInnerClass   bool // reserved: no reconnection phase sets this yet
	IsStaticMemberClass bool
}

// FieldType is the single-byte type code of a field descriptor.
type FieldType byte

const (
	FieldByte    FieldType = 'B'
	FieldChar    FieldType = 'C'
	FieldDouble  FieldType = 'D'
	FieldFloat   FieldType = 'F'
	FieldInt     FieldType = 'I'
	FieldLong    FieldType = 'J'
	FieldShort   FieldType = 'S'
	FieldBoolean FieldType = 'Z'
	FieldArray   FieldType = '['
	FieldObject  FieldType = 'L'
)

func (t FieldType) isPrimitive() bool {
	switch t {
	case FieldByte, FieldChar, FieldDouble, FieldFloat, FieldInt, FieldLong, FieldShort, FieldBoolean:
		return true
	default:
		return false
	}
}

// Field describes a single class member in a class descriptor's field
// table.
type Field struct {
	Type                  FieldType
	Name                  string
	ClassName             string // populated for FieldArray/FieldObject only
	IsInnerClassReference bool
}

// classHierarchy returns cls and its ancestors, ancestor-first, self-last.
// A PROXY descriptor terminates the walk without contributing its own
// superclass to the ordering.
func classHierarchy(cls *ClassDesc) []*ClassDesc {
	var chain []*ClassDesc
	for c := cls; c != nil; c = c.Superclass {
		chain = append(chain, c)
		if c.ClassType == ClassTypeProxy {
			break
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// asClassDesc unwraps a resolved Content that is expected to be a class
// descriptor (including the "null class descriptor" case).
func asClassDesc(c *Content) (*ClassDesc, error) {
	if c == nil {
		return nil, nil
	}
	v, ok := c.Value.(*ClassDescValue)
	if !ok {
		return nil, newValidityError("reference does not resolve to a class descriptor (kind %s)", c.Kind)
	}
	return v.Desc, nil
}

// asString unwraps a resolved Content that is expected to be a string; null
// is rejected, matching the grammar's string-required positions.
func asString(c *Content) (string, error) {
	if c == nil {
		return "", newValidityError("expected a string, found null")
	}
	v, ok := c.Value.(*StringValue)
	if !ok {
		return "", newValidityError("expected a string-producing content, found kind %s", c.Kind)
	}
	return v.Value, nil
}

// javaFieldTypeName strips the 'L'...';' envelope off a field's
// class-descriptor string, e.g. "Lpkg/Cls;" -> "pkg/Cls". Non-object
// descriptors (arrays, or malformed input) are returned unchanged.
func javaFieldTypeName(descriptor string) string {
	if len(descriptor) >= 2 && descriptor[0] == 'L' && strings.HasSuffix(descriptor, ";") {
		return descriptor[1 : len(descriptor)-1]
	}
	return descriptor
}

// JavaFieldTypeName is the exported form of javaFieldTypeName, for
// formatting layers outside this package that render field descriptors.
func JavaFieldTypeName(descriptor string) string {
	return javaFieldTypeName(descriptor)
}

// ClassHierarchy is the exported form of classHierarchy, for formatting
// layers outside this package that need ancestor-first field ordering.
func ClassHierarchy(cd *ClassDesc) []*ClassDesc {
	return classHierarchy(cd)
}
