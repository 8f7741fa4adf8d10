// Package format renders a decoded content graph as human-readable text:
// a flat content listing, Java-like class declarations, and recursive
// instance dumps. Every function here is a pure read over
// *jdeserialize.DecodedStream; none of them mutate the graph.
package format

import (
	"fmt"
	"strings"

	"github.com/bochkov/jdeserialize/jdeserialize"
)

// FormatContentList renders one line per top-level content element: its
// handle (if any), its kind, and a short value-specific description.
func FormatContentList(ds *jdeserialize.DecodedStream) string {
	var b strings.Builder
	for i, c := range ds.TopLevel() {
		fmt.Fprintf(&b, "%d: %s\n", i, describeContent(c))
	}
	return b.String()
}

func describeContent(c *jdeserialize.Content) string {
	if c == nil {
		return "null"
	}
	handle := ""
	if c.HasHandle {
		handle = fmt.Sprintf(" h0x%x", c.Handle)
	}
	return fmt.Sprintf("%s%s %s", c.Kind, handle, describeValue(c))
}

func describeValue(c *jdeserialize.Content) string {
	switch v := c.Value.(type) {
	case *jdeserialize.StringValue:
		return fmt.Sprintf("%q", v.Value)
	case *jdeserialize.ClassValue:
		return className(v.Desc)
	case *jdeserialize.ClassDescValue:
		return className(v.Desc)
	case *jdeserialize.ArrayValue:
		return fmt.Sprintf("%s[%d]", className(v.Desc), len(v.Elements))
	case *jdeserialize.EnumValue:
		return fmt.Sprintf("%s.%s", className(v.Desc), v.Value)
	case *jdeserialize.InstanceValue:
		return className(v.Desc)
	case *jdeserialize.BlockDataValue:
		return fmt.Sprintf("%d bytes", len(v.Data))
	case *jdeserialize.ExceptionStateValue:
		return fmt.Sprintf("wraps %s", describeContent(v.Exception))
	default:
		return ""
	}
}

func className(cd *jdeserialize.ClassDesc) string {
	if cd == nil {
		return "(null class)"
	}
	return cd.Name
}
