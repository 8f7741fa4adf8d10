package format

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bochkov/jdeserialize/jdeserialize"
)

// ClassOptions controls FormatClassDeclarations.
type ClassOptions struct {
	ExcludeArrays bool
	Filter        *regexp.Regexp
}

// FormatClassDeclarations renders every class descriptor reachable from the
// graph as a Java-like declaration: "class Foo extends Bar implements Baz {
// ... }". Descriptors are deduplicated by pointer identity and sorted by
// name; the order of descriptors that share a name is not defined.
func FormatClassDeclarations(ds *jdeserialize.DecodedStream, opts ClassOptions) string {
	descs := collectClassDescs(ds)

	filtered := descs[:0]
	for _, cd := range descs {
		if opts.ExcludeArrays && strings.HasPrefix(cd.Name, "[") {
			continue
		}
		if opts.Filter != nil && !opts.Filter.MatchString(cd.Name) {
			continue
		}
		filtered = append(filtered, cd)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })

	var b strings.Builder
	for _, cd := range filtered {
		writeClassDeclaration(&b, cd)
	}
	return b.String()
}

func collectClassDescs(ds *jdeserialize.DecodedStream) []*jdeserialize.ClassDesc {
	seen := make(map[*jdeserialize.ClassDesc]bool)
	var out []*jdeserialize.ClassDesc
	for _, ep := range ds.Epochs() {
		for _, c := range ep.Bindings {
			v, ok := c.Value.(*jdeserialize.ClassDescValue)
			if !ok || v.Desc == nil || seen[v.Desc] {
				continue
			}
			seen[v.Desc] = true
			out = append(out, v.Desc)
		}
	}
	return out
}

func writeClassDeclaration(b *strings.Builder, cd *jdeserialize.ClassDesc) {
	kind := "class"
	if cd.DescFlags&jdeserialize.FlagEnum != 0 {
		kind = "enum"
	}
	fmt.Fprintf(b, "%s %s", kind, cd.Name)
	if cd.Superclass != nil {
		fmt.Fprintf(b, " extends %s", cd.Superclass.Name)
	}
	if len(cd.Interfaces) > 0 {
		fmt.Fprintf(b, " implements %s", strings.Join(cd.Interfaces, ", "))
	}
	b.WriteString(" {\n")
	fmt.Fprintf(b, "    // serialVersionUID: %s\n", serialVersionUIDHex(cd.SerialVersionUID))

	if cd.DescFlags&jdeserialize.FlagEnum != 0 {
		names := make([]string, 0, len(cd.EnumConstants))
		for name := range cd.EnumConstants {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(b, "    %s,\n", name)
		}
	}
	for _, f := range cd.Fields {
		fmt.Fprintf(b, "    %s %s;\n", javaTypeName(f), f.Name)
	}
	b.WriteString("}\n")
}

// serialVersionUIDHex renders a serialVersionUID the way the teacher renders
// binary fields it doesn't otherwise interpret: as a hex string.
func serialVersionUIDHex(uid uint64) string {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], uid)
	return hex.EncodeToString(raw[:])
}

func javaTypeName(f *jdeserialize.Field) string {
	switch f.Type {
	case jdeserialize.FieldByte:
		return "byte"
	case jdeserialize.FieldChar:
		return "char"
	case jdeserialize.FieldDouble:
		return "double"
	case jdeserialize.FieldFloat:
		return "float"
	case jdeserialize.FieldInt:
		return "int"
	case jdeserialize.FieldLong:
		return "long"
	case jdeserialize.FieldShort:
		return "short"
	case jdeserialize.FieldBoolean:
		return "boolean"
	case jdeserialize.FieldObject, jdeserialize.FieldArray:
		return jdeserialize.JavaFieldTypeName(f.ClassName)
	default:
		return "?"
	}
}
