package jdeserialize

import (
	"regexp"
	"strings"
)

// innerClassFieldPattern matches a synthetic outer-instance field such as
// "this$0" — javac's name for the hidden reference an inner class holds to
// its enclosing instance.
var innerClassFieldPattern = regexp.MustCompile(`^this\$(\d+)$`)

// memberClassNamePattern splits a binary class name with one or more '$'
// separators into its enclosing prefix (everything before the last '$') and
// innermost simple name, e.g. "com.example.Outer$Inner" ->
// ("com.example.Outer", "Inner"), "A$B$C" -> ("A$B", "C").
var memberClassNamePattern = regexp.MustCompile(`^((?:[^$]+\$)*[^$]+)\$([^$]+)$`)

type rename struct {
	cd      *ClassDesc
	newName string
}

// connectMemberClasses runs the two-phase inner/static-member-class
// reconnection heuristic (§4.5) over every class descriptor reachable
// through any archived handle table, then commits the staged renames.
func connectMemberClasses(epochs []*Epoch) error {
	byName := make(map[string]*ClassDesc)
	var all []*ClassDesc
	for _, ep := range epochs {
		for _, c := range ep.Bindings {
			v, ok := c.Value.(*ClassDescValue)
			if !ok || v.Desc == nil {
				continue
			}
			all = append(all, v.Desc)
			if v.Desc.ClassType != ClassTypeProxy {
				byName[v.Desc.Name] = v.Desc
			}
		}
	}

	var renames []rename
	handled := make(map[*ClassDesc]bool)

	// Phase 1 — inner classes: driven by a this$N field. A descriptor
	// already connected by a prior run is skipped outright, since it was
	// renamed to its simple name and re-matching its this$N field against
	// the two-part pattern would now fail (property 8, rename idempotence).
	for _, cd := range all {
		if cd.ClassType == ClassTypeProxy || handled[cd] || cd.IsInnerClass {
			continue
		}

		var outerField *Field
		for _, f := range cd.Fields {
			if f.Type == FieldObject && innerClassFieldPattern.MatchString(f.Name) {
				outerField = f
				break
			}
		}
		if outerField == nil {
			continue
		}

		m := memberClassNamePattern.FindStringSubmatch(cd.Name)
		if m == nil {
			return newValidityError(
				"class %q has an outer-instance field %q but its name does not match the inner-class pattern",
				cd.Name, outerField.Name)
		}
		outerName, innerName := m[1], m[2]

		outer, ok := byName[outerName]
		if !ok {
			return newValidityError(
				"class %q looks like an inner class of %q, but no such class descriptor exists", cd.Name, outerName)
		}
		fieldType := javaFieldTypeName(outerField.ClassName)
		if fieldType != outerName {
			return newValidityError(
				"class %q's outer-instance field %q has type %q, expected %q",
				cd.Name, outerField.Name, fieldType, outerName)
		}

		outer.InnerClasses = append(outer.InnerClasses, cd)
		cd.IsInnerClass = true
		outerField.IsInnerClassReference = true
		renames = append(renames, rename{cd: cd, newName: innerName})
		handled[cd] = true
	}

	// Phase 2 — static member classes: name pattern only, missing outer is
	// tolerated.
	for _, cd := range all {
		if cd.ClassType == ClassTypeProxy || handled[cd] || cd.IsStaticMemberClass {
			continue
		}

		m := memberClassNamePattern.FindStringSubmatch(cd.Name)
		if m == nil {
			continue
		}
		outerName, innerName := m[1], m[2]

		outer, ok := byName[outerName]
		if !ok {
			continue
		}

		outer.InnerClasses = append(outer.InnerClasses, cd)
		cd.IsStaticMemberClass = true
		renames = append(renames, rename{cd: cd, newName: innerName})
		handled[cd] = true
	}

	return commitRenames(all, byName, renames)
}

// commitRenames applies every staged rename, rewriting any field
// descriptor string that referenced the old name along the way. The
// collision check is done against the live byName map as each rename
// commits, not a snapshot taken before any of them ran, so that two
// distinct staged renames landing on the same new name (e.g. two different
// inner classes both named "X") are both caught rather than just the one
// whose pre-rename name happened to already collide.
func commitRenames(all []*ClassDesc, byName map[string]*ClassDesc, renames []rename) error {
	for _, r := range renames {
		if existing, ok := byName[r.newName]; ok && existing != r.cd {
			return newValidityError("cannot rename class %q to %q: name already in use", r.cd.Name, r.newName)
		}

		oldName := r.cd.Name
		newDescriptor := "L" + strings.ReplaceAll(r.newName, ".", "/") + ";"

		for _, cd := range all {
			for _, f := range cd.Fields {
				if (f.Type == FieldObject || f.Type == FieldArray) && javaFieldTypeName(f.ClassName) == oldName {
					f.ClassName = newDescriptor
				}
			}
		}

		delete(byName, oldName)
		r.cd.Name = r.newName
		byName[r.newName] = r.cd
	}
	return nil
}
