package format

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/bochkov/jdeserialize/jdeserialize"
)

// FormatInstanceDump renders every top-level instance's field values,
// recursively following object/array-typed fields into their own
// descriptions. A handle already on the current print path is rendered as
// "[CYCLE]" rather than followed again.
func FormatInstanceDump(ds *jdeserialize.DecodedStream) string {
	var b strings.Builder
	for i, c := range ds.TopLevel() {
		fmt.Fprintf(&b, "%d: %s\n", i, describeContent(c))
		dumpInstance(&b, c, 1, make(map[jdeserialize.Handle]bool))
	}
	return b.String()
}

func dumpInstance(b *strings.Builder, c *jdeserialize.Content, depth int, onStack map[jdeserialize.Handle]bool) {
	if c == nil {
		return
	}
	if c.HasHandle {
		if onStack[c.Handle] {
			writeIndented(b, depth, "[CYCLE]")
			return
		}
		onStack[c.Handle] = true
		defer delete(onStack, c.Handle)
	}

	switch v := c.Value.(type) {
	case *jdeserialize.InstanceValue:
		for _, cd := range jdeserialize.ClassHierarchy(v.Desc) {
			fields, ok := v.Fields[cd]
			if !ok {
				continue
			}
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				writeField(b, depth, cd.Name, name, fields[name], onStack)
			}
		}
	case *jdeserialize.ArrayValue:
		for i, elem := range v.Elements {
			writeField(b, depth, className(v.Desc), fmt.Sprintf("[%d]", i), elem, onStack)
		}
	case *jdeserialize.BlockDataValue:
		writeIndented(b, depth, strings.TrimRight(hex.Dump(v.Data), "\n"))
	}
}

func writeField(b *strings.Builder, depth int, owner, name string, value interface{}, onStack map[jdeserialize.Handle]bool) {
	if nested, ok := value.(*jdeserialize.Content); ok {
		writeIndented(b, depth, fmt.Sprintf("%s.%s = %s", owner, name, describeContent(nested)))
		dumpInstance(b, nested, depth+1, onStack)
		return
	}
	writeIndented(b, depth, fmt.Sprintf("%s.%s = %v", owner, name, value))
}

func writeIndented(b *strings.Builder, depth int, line string) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(line)
	b.WriteString("\n")
}
