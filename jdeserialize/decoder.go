package jdeserialize

import (
	"io"

	"github.com/pkg/errors"
)

// Stream header and tag constants (java.io.ObjectStreamConstants).
const (
	streamMagic   uint16 = 0xACED
	streamVersion uint16 = 0x0005
)

const (
	tagNull           uint8 = 0x70
	tagReference      uint8 = 0x71
	tagClassDesc      uint8 = 0x72
	tagObject         uint8 = 0x73
	tagString         uint8 = 0x74
	tagArray          uint8 = 0x75
	tagClass          uint8 = 0x76
	tagBlockData      uint8 = 0x77
	tagEndBlockData   uint8 = 0x78
	tagReset          uint8 = 0x79
	tagBlockDataLong  uint8 = 0x7A
	tagException      uint8 = 0x7B
	tagLongString     uint8 = 0x7C
	tagProxyClassDesc uint8 = 0x7D
	tagEnum           uint8 = 0x7E
)

// Options controls optional post-processing a Decoder performs after the
// grammar has been fully consumed.
type Options struct {
	// ConnectMemberClasses runs the inner/static member class reconnection
	// pass (see analyzer.go) before returning.
	ConnectMemberClasses bool
}

// DefaultOptions returns the options a command-line caller gets by default.
func DefaultOptions() Options {
	return Options{ConnectMemberClasses: true}
}

// Decoder reads one JOSSP stream. It is not safe for concurrent use, and
// must not be reused once Decode has returned; a fresh Decoder owns its own
// handle table and recording buffer (Design Notes, "Global state: none").
type Decoder struct {
	src     *recordingSource
	handles *handleTable
	opts    Options
}

// NewDecoder wraps r for a single decode.
func NewDecoder(r io.Reader, opts Options) *Decoder {
	return &Decoder{
		src:     newRecordingSource(r),
		handles: newHandleTable(),
		opts:    opts,
	}
}

// Decode reads an entire JOSSP stream from r in one call.
func Decode(r io.Reader, opts Options) (*DecodedStream, error) {
	return NewDecoder(r, opts).Decode()
}

// DecodedStream is the materialized result of a successful decode: the
// ordered top-level content sequence plus every archived handle table.
type DecodedStream struct {
	topLevel []*Content
	handles  *handleTable
}

// TopLevel returns the ordered sequence of top-level content, including
// null entries and EXCEPTION_STATE wrappers.
func (ds *DecodedStream) TopLevel() []*Content { return ds.topLevel }

// Epochs returns every archived handle table, oldest first.
func (ds *DecodedStream) Epochs() []*Epoch { return ds.handles.epochs() }

// Decode consumes the header and the top-level content sequence, then runs
// the validation pass (and, if requested, the member-class analyzer).
func (d *Decoder) Decode() (*DecodedStream, error) {
	if err := d.readHeader(); err != nil {
		return nil, err
	}

	var topLevel []*Content
	for {
		if d.src.atEOF() {
			break
		}

		d.src.startRecording()
		tag, err := d.src.readUint8()
		if err != nil {
			return nil, err
		}

		if tag == tagReset {
			d.handles.reset()
			d.src.stopRecording()
			continue
		}

		content, err := d.readTaggedContent(tag, true)
		if sig, ok := asEmbeddedException(err); ok {
			content, err = sig, nil
		}
		if err != nil {
			return nil, err
		}

		raw := d.src.stopRecording()
		if content != nil && content.IsException {
			content = &Content{
				Kind:      KindExceptionState,
				Handle:    content.Handle,
				HasHandle: content.HasHandle,
				Value:     &ExceptionStateValue{Exception: content, RawPrefix: raw},
			}
		}
		topLevel = append(topLevel, content)
	}

	d.handles.flush()

	if err := d.validateAll(); err != nil {
		return nil, err
	}

	if d.opts.ConnectMemberClasses {
		if err := connectMemberClasses(d.handles.epochs()); err != nil {
			return nil, err
		}
		if err := d.validateAll(); err != nil {
			return nil, err
		}
	}

	return &DecodedStream{topLevel: topLevel, handles: d.handles}, nil
}

func (d *Decoder) readHeader() error {
	magic, err := d.src.readUint16()
	if err != nil {
		return errors.Wrap(err, "error reading stream magic")
	}
	if magic != streamMagic {
		return newValidityError("bad stream magic: want 0x%04x, got 0x%04x", streamMagic, magic)
	}

	version, err := d.src.readUint16()
	if err != nil {
		return errors.Wrap(err, "error reading stream version")
	}
	if version != streamVersion {
		return newValidityError("unsupported stream version: want 0x%04x, got 0x%04x", streamVersion, version)
	}
	return nil
}

// readContent reads one tag byte and dispatches it.
func (d *Decoder) readContent(allowBlockData bool) (*Content, error) {
	tag, err := d.src.readUint8()
	if err != nil {
		return nil, err
	}
	return d.readTaggedContent(tag, allowBlockData)
}

// readTaggedContent is the grammar's central dispatch table (§4.4 Content
// dispatch). allowBlockData gates TC_BLOCKDATA/TC_BLOCKDATALONG, which the
// grammar permits at the top level and inside annotation lists only.
func (d *Decoder) readTaggedContent(tag uint8, allowBlockData bool) (*Content, error) {
	switch tag {
	case tagNull:
		return nil, nil
	case tagReference:
		return d.resolveReference()
	case tagClassDesc:
		return d.readNormalClassDesc()
	case tagProxyClassDesc:
		return d.readProxyClassDesc()
	case tagObject:
		return d.readObject()
	case tagClass:
		return d.readClassLiteral()
	case tagArray:
		return d.readArray()
	case tagString:
		return d.readShortString()
	case tagLongString:
		return d.readLongString()
	case tagEnum:
		return d.readEnum()
	case tagException:
		return d.readExceptionSubprotocol()
	case tagBlockData:
		if !allowBlockData {
			return nil, newValidityError("block data is not allowed at this position (tag 0x%02x)", tag)
		}
		return d.readBlockData(false)
	case tagBlockDataLong:
		if !allowBlockData {
			return nil, newValidityError("block data is not allowed at this position (tag 0x%02x)", tag)
		}
		return d.readBlockData(true)
	default:
		return nil, newValidityError("unknown or unexpected tag 0x%02x", tag)
	}
}

func (d *Decoder) resolveReference() (*Content, error) {
	raw, err := d.src.readInt32()
	if err != nil {
		return nil, errors.Wrap(err, "error reading reference handle")
	}
	h := Handle(uint32(raw))
	c, ok := d.handles.resolve(h)
	if !ok {
		return nil, newValidityError("reference to unbound handle 0x%x", uint32(h))
	}
	return c, nil
}

// readUTF reads a 16-bit-length-prefixed modified-UTF-8 string with no
// handle of its own (class names, field names, interface names).
func (d *Decoder) readUTF() (string, error) {
	length, err := d.src.readUint16()
	if err != nil {
		return "", errors.Wrap(err, "error reading utf length")
	}
	raw, err := d.src.readFull(int(length))
	if err != nil {
		return "", errors.Wrap(err, "error reading utf bytes")
	}
	s, err := decodeModifiedUTF8(raw)
	if err != nil {
		return "", err
	}
	return s, nil
}

// readStringRef reads a single tag restricted to the string-producing set
// (TC_STRING, TC_LONGSTRING, TC_REFERENCE); any other tag, including
// TC_NULL, is a validity error. Used wherever the grammar requires a
// string value rather than a general content (field class descriptors,
// enum constant names).
func (d *Decoder) readStringRef() (string, error) {
	tag, err := d.src.readUint8()
	if err != nil {
		return "", err
	}
	switch tag {
	case tagString:
		c, err := d.readShortString()
		if err != nil {
			return "", err
		}
		return asString(c)
	case tagLongString:
		c, err := d.readLongString()
		if err != nil {
			return "", err
		}
		return asString(c)
	case tagReference:
		c, err := d.resolveReference()
		if err != nil {
			return "", err
		}
		return asString(c)
	default:
		return "", newValidityError("expected a string-producing tag, found 0x%02x", tag)
	}
}

func (d *Decoder) readShortString() (*Content, error) {
	length, err := d.src.readUint16()
	if err != nil {
		return nil, errors.Wrap(err, "error reading string length")
	}
	raw, err := d.src.readFull(int(length))
	if err != nil {
		return nil, errors.Wrap(err, "error reading string bytes")
	}
	s, err := decodeModifiedUTF8(raw)
	if err != nil {
		return nil, err
	}
	h := d.handles.alloc()
	content := &Content{Kind: KindString, Handle: h, HasHandle: true, Value: &StringValue{Value: s}}
	if err := d.handles.bind(h, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (d *Decoder) readLongString() (*Content, error) {
	length, err := d.src.readUint64()
	if err != nil {
		return nil, errors.Wrap(err, "error reading long string length")
	}
	if length >= 1<<31 {
		return nil, newSizeLimitError("long string length %d is not representable in 31 bits", length)
	}
	raw, err := d.src.readFull(int(length))
	if err != nil {
		return nil, errors.Wrap(err, "error reading long string bytes")
	}
	s, err := decodeModifiedUTF8(raw)
	if err != nil {
		return nil, err
	}
	h := d.handles.alloc()
	content := &Content{Kind: KindString, Handle: h, HasHandle: true, Value: &StringValue{Value: s}}
	if err := d.handles.bind(h, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (d *Decoder) readFieldDesc() (*Field, error) {
	typeByte, err := d.src.readUint8()
	if err != nil {
		return nil, errors.Wrap(err, "error reading field type")
	}
	ft := FieldType(typeByte)

	name, err := d.readUTF()
	if err != nil {
		return nil, errors.Wrap(err, "error reading field name")
	}

	f := &Field{Type: ft, Name: name}
	if ft == FieldArray || ft == FieldObject {
		cn, err := d.readStringRef()
		if err != nil {
			return nil, errors.Wrapf(err, "error reading class name of field %q", name)
		}
		f.ClassName = cn
	}
	return f, nil
}

// readAnnotations reads the list of content items between a class
// descriptor's field table and its superclass, terminated by
// TC_ENDBLOCKDATA. TC_RESET here is honored and skipped, matching §4.4.
func (d *Decoder) readAnnotations() ([]*Content, error) {
	var anns []*Content
	for {
		tag, err := d.src.readUint8()
		if err != nil {
			return nil, errors.Wrap(err, "error reading annotation tag")
		}
		if tag == tagEndBlockData {
			return anns, nil
		}
		if tag == tagReset {
			d.handles.reset()
			continue
		}
		c, err := d.readTaggedContent(tag, true)
		if err != nil {
			return nil, errors.Wrap(err, "error reading annotation")
		}
		anns = append(anns, c)
	}
}

func (d *Decoder) readNormalClassDesc() (*Content, error) {
	name, err := d.readUTF()
	if err != nil {
		return nil, errors.Wrap(err, "error reading class name")
	}

	suid, err := d.src.readUint64()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading serialVersionUID of class %q", name)
	}

	h := d.handles.alloc()
	content := &Content{Kind: KindClassDesc, Handle: h, HasHandle: true}
	if err := d.handles.bind(h, content); err != nil {
		return nil, err
	}

	cd := &ClassDesc{Handle: h, ClassType: ClassTypeNormal, Name: name, SerialVersionUID: suid}

	flagByte, err := d.src.readUint8()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading descriptor flags of class %q", name)
	}
	cd.DescFlags = DescFlag(flagByte)

	fieldCount, err := d.src.readUint16()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading field count of class %q", name)
	}
	for i := 0; i < int(fieldCount); i++ {
		f, err := d.readFieldDesc()
		if err != nil {
			return nil, errors.Wrapf(err, "error reading field %d of class %q", i, name)
		}
		cd.Fields = append(cd.Fields, f)
	}

	anns, err := d.readAnnotations()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading annotations of class %q", name)
	}
	cd.Annotations = anns

	super, err := d.readClassDescRef()
	if err != nil {
		return nil, errors.Wrapf(err, "error reading superclass of class %q", name)
	}
	cd.Superclass = super

	content.Value = &ClassDescValue{Desc: cd}
	return content, nil
}

func (d *Decoder) readProxyClassDesc() (*Content, error) {
	h := d.handles.alloc()
	content := &Content{Kind: KindClassDesc, Handle: h, HasHandle: true}
	if err := d.handles.bind(h, content); err != nil {
		return nil, err
	}

	cd := &ClassDesc{Handle: h, ClassType: ClassTypeProxy, Name: proxyPlaceholderName}

	ifaceCount, err := d.src.readUint32()
	if err != nil {
		return nil, errors.Wrap(err, "error reading proxy interface count")
	}
	for i := 0; i < int(ifaceCount); i++ {
		iface, err := d.readUTF()
		if err != nil {
			return nil, errors.Wrapf(err, "error reading proxy interface %d", i)
		}
		cd.Interfaces = append(cd.Interfaces, iface)
	}

	anns, err := d.readAnnotations()
	if err != nil {
		return nil, errors.Wrap(err, "error reading proxy annotations")
	}
	cd.Annotations = anns

	super, err := d.readClassDescRef()
	if err != nil {
		return nil, errors.Wrap(err, "error reading proxy superclass")
	}
	cd.Superclass = super

	content.Value = &ClassDescValue{Desc: cd}
	return content, nil
}

// readClassDescRef reads a tag restricted to {TC_CLASSDESC, TC_PROXYCLASSDESC,
// TC_NULL, TC_REFERENCE} and returns the class descriptor it names (nil for
// TC_NULL). Used wherever the grammar expects a class descriptor position:
// object/array/enum class, field class name is NOT this (that's a string
// position), and superclass recursion.
func (d *Decoder) readClassDescRef() (*ClassDesc, error) {
	tag, err := d.src.readUint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagNull:
		return nil, nil
	case tagReference:
		c, err := d.resolveReference()
		if err != nil {
			return nil, err
		}
		return asClassDesc(c)
	case tagClassDesc:
		c, err := d.readNormalClassDesc()
		if err != nil {
			return nil, err
		}
		return c.Value.(*ClassDescValue).Desc, nil
	case tagProxyClassDesc:
		c, err := d.readProxyClassDesc()
		if err != nil {
			return nil, err
		}
		return c.Value.(*ClassDescValue).Desc, nil
	default:
		return nil, newValidityError("expected a class descriptor tag, found 0x%02x", tag)
	}
}

func (d *Decoder) readClassLiteral() (*Content, error) {
	cd, err := d.readClassDescRef()
	if err != nil {
		return nil, errors.Wrap(err, "error reading class literal's descriptor")
	}
	h := d.handles.alloc()
	content := &Content{Kind: KindClass, Handle: h, HasHandle: true, Value: &ClassValue{Desc: cd}}
	if err := d.handles.bind(h, content); err != nil {
		return nil, err
	}
	return content, nil
}

// readValueByType reads one field or array-element value of the given wire
// type: a direct binary read for primitives, or a nested content read
// (block data disallowed) for object/array types. A nested content already
// flagged as an exception is turned into an embeddedExceptionSignal rather
// than returned as an ordinary value (Design Notes, "Embedded exception as
// control flow").
func (d *Decoder) readValueByType(t FieldType) (interface{}, error) {
	switch t {
	case FieldByte:
		return d.src.readInt8()
	case FieldChar:
		code, err := d.src.readUint16()
		if err != nil {
			return nil, err
		}
		return string(rune(code)), nil
	case FieldDouble:
		return d.src.readFloat64()
	case FieldFloat:
		return d.src.readFloat32()
	case FieldInt:
		return d.src.readInt32()
	case FieldLong:
		return d.src.readInt64()
	case FieldShort:
		return d.src.readInt16()
	case FieldBoolean:
		b, err := d.src.readInt8()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case FieldObject, FieldArray:
		c, err := d.readContent(false)
		if err != nil {
			return nil, err
		}
		if c != nil && c.IsException {
			return nil, &embeddedExceptionSignal{content: c}
		}
		return c, nil
	default:
		return nil, newValidityError("unknown field type code %q", byte(t))
	}
}

// readInstanceData reads the per-class-descriptor slice of an instance's
// data (§4.4 Instances), dispatching on the descriptor's flags.
func (d *Decoder) readInstanceData(cd *ClassDesc) (map[string]interface{}, []*Content, error) {
	switch {
	case cd.DescFlags&FlagSerializable != 0:
		fields := make(map[string]interface{}, len(cd.Fields))
		for _, f := range cd.Fields {
			v, err := d.readValueByType(f.Type)
			if err != nil {
				return nil, nil, err
			}
			fields[f.Name] = v
		}

		var anns []*Content
		if cd.DescFlags&FlagWriteMethod != 0 && cd.DescFlags&FlagEnum == 0 {
			var err error
			anns, err = d.readAnnotations()
			if err != nil {
				return nil, nil, errors.Wrapf(err, "error reading write-method annotations of class %q", cd.Name)
			}
		}
		return fields, anns, nil

	case cd.DescFlags&FlagExternalizable != 0:
		if cd.DescFlags&FlagBlockData == 0 {
			return nil, nil, newValidityError(
				"class %q: cannot interpret externalizable data without a block-data marker", cd.Name)
		}
		anns, err := d.readAnnotations()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "error reading externalizable data of class %q", cd.Name)
		}
		return nil, anns, nil

	default:
		return nil, nil, nil
	}
}

func (d *Decoder) readObject() (*Content, error) {
	cd, err := d.readClassDescRef()
	if err != nil {
		return nil, errors.Wrap(err, "error reading object's class descriptor")
	}

	h := d.handles.alloc()
	content := &Content{Kind: KindInstance, Handle: h, HasHandle: true}
	if err := d.handles.bind(h, content); err != nil {
		return nil, err
	}

	iv := &InstanceValue{
		Desc:        cd,
		Fields:      make(map[*ClassDesc]map[string]interface{}),
		Annotations: make(map[*ClassDesc][]*Content),
	}
	content.Value = iv

	if cd != nil {
		for _, ancestor := range classHierarchy(cd) {
			fields, anns, err := d.readInstanceData(ancestor)
			if err != nil {
				return nil, err
			}
			if len(fields) > 0 {
				iv.Fields[ancestor] = fields
			}
			if len(anns) > 0 {
				iv.Annotations[ancestor] = anns
			}
		}
	}

	return content, nil
}

func (d *Decoder) readArray() (*Content, error) {
	cd, err := d.readClassDescRef()
	if err != nil {
		return nil, errors.Wrap(err, "error reading array's class descriptor")
	}
	if cd == nil {
		return nil, newValidityError("array with a null class descriptor")
	}

	h := d.handles.alloc()
	content := &Content{Kind: KindArray, Handle: h, HasHandle: true}
	if err := d.handles.bind(h, content); err != nil {
		return nil, err
	}

	if len(cd.Name) < 2 {
		return nil, newValidityError("array class descriptor name %q is too short to name an element type", cd.Name)
	}
	elemType := FieldType(cd.Name[1])

	length, err := d.src.readInt32()
	if err != nil {
		return nil, errors.Wrap(err, "error reading array length")
	}
	if length < 0 {
		return nil, newSizeLimitError("array length %d is negative", length)
	}

	elements := make([]interface{}, length)
	for i := range elements {
		v, err := d.readValueByType(elemType)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading array element %d", i)
		}
		elements[i] = v
	}

	content.Value = &ArrayValue{Desc: cd, Elements: elements}
	return content, nil
}

func (d *Decoder) readEnum() (*Content, error) {
	cd, err := d.readClassDescRef()
	if err != nil {
		return nil, errors.Wrap(err, "error reading enum's class descriptor")
	}

	h := d.handles.alloc()
	content := &Content{Kind: KindEnum, Handle: h, HasHandle: true}
	if err := d.handles.bind(h, content); err != nil {
		return nil, err
	}

	name, err := d.readStringRef()
	if err != nil {
		return nil, errors.Wrap(err, "error reading enum constant name")
	}

	if cd != nil {
		if cd.EnumConstants == nil {
			cd.EnumConstants = make(map[string]struct{})
		}
		cd.EnumConstants[name] = struct{}{}
	}

	content.Value = &EnumValue{Desc: cd, Value: name}
	return content, nil
}

func (d *Decoder) readBlockData(isLong bool) (*Content, error) {
	var size int
	if isLong {
		n, err := d.src.readInt32()
		if err != nil {
			return nil, errors.Wrap(err, "error reading long block data size")
		}
		if n < 0 {
			return nil, newSizeLimitError("block data size %d is negative", n)
		}
		size = int(n)
	} else {
		n, err := d.src.readUint8()
		if err != nil {
			return nil, errors.Wrap(err, "error reading block data size")
		}
		size = int(n)
	}

	data, err := d.src.readFull(size)
	if err != nil {
		return nil, errors.Wrap(err, "error reading block data")
	}
	return &Content{Kind: KindBlockData, Value: &BlockDataValue{Data: data}}, nil
}

// readExceptionSubprotocol implements §4.4 Exception subprotocol. It is
// reachable wherever a general content tag may appear, including nested
// inside a field read, which is why its caller (readValueByType) is the
// one responsible for turning an IsException result into a control-flow
// signal — this method only produces the flagged Content.
func (d *Decoder) readExceptionSubprotocol() (*Content, error) {
	d.handles.reset()

	c, err := d.readContent(false)
	if err != nil {
		return nil, errors.Wrap(err, "error reading exception object")
	}
	if c == nil {
		return nil, newValidityError("exception subprotocol: expected a non-null instance, found null")
	}
	if c.Kind != KindInstance {
		return nil, newValidityError("exception subprotocol: expected an instance, found kind %s", c.Kind)
	}
	c.IsException = true

	d.handles.reset()
	return c, nil
}

// validateAll re-validates every class descriptor reachable through any
// archived handle table, per §4.4's post-decode validation pass.
func (d *Decoder) validateAll() error {
	for _, ep := range d.handles.epochs() {
		for _, c := range ep.Bindings {
			v, ok := c.Value.(*ClassDescValue)
			if !ok {
				continue
			}
			if err := validateClassDesc(v.Desc); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateClassDesc(cd *ClassDesc) error {
	if cd == nil {
		return nil
	}

	serializable := cd.DescFlags&FlagSerializable != 0
	externalizable := cd.DescFlags&FlagExternalizable != 0
	if serializable && externalizable {
		return newValidityError("class descriptor %q sets both SERIALIZABLE and EXTERNALIZABLE", cd.Name)
	}
	if !serializable && !externalizable && len(cd.Fields) > 0 {
		return newValidityError("class descriptor %q declares fields but is neither SERIALIZABLE nor EXTERNALIZABLE", cd.Name)
	}

	if cd.DescFlags&FlagEnum != 0 {
		if len(cd.Fields) > 0 {
			return newValidityError("enum class descriptor %q must have no fields", cd.Name)
		}
		if len(cd.Interfaces) > 0 {
			return newValidityError("enum class descriptor %q must have no interfaces", cd.Name)
		}
	} else if len(cd.EnumConstants) > 0 {
		return newValidityError("non-enum class descriptor %q has enum constants", cd.Name)
	}

	return nil
}
