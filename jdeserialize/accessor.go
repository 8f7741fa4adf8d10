package jdeserialize

// Graph accessor (§4.6): read-only queries over the union of every
// archived handle table. None of these mutate the decoded graph.

// FindClassDescByName searches every archived epoch for a class descriptor
// with the given name, returning nil if none is found.
func (ds *DecodedStream) FindClassDescByName(name string) *ClassDesc {
	for _, ep := range ds.Epochs() {
		for _, c := range ep.Bindings {
			v, ok := c.Value.(*ClassDescValue)
			if !ok || v.Desc == nil {
				continue
			}
			if v.Desc.Name == name {
				return v.Desc
			}
		}
	}
	return nil
}

// findInstance locates the instance content bound to the given handle,
// searching every archived epoch.
func (ds *DecodedStream) findInstance(h Handle) *Content {
	for _, ep := range ds.Epochs() {
		c, ok := ep.Bindings[h]
		if ok && c.Kind == KindInstance {
			return c
		}
	}
	return nil
}

// FieldValue resolves the value of a field declared on classDesc, as stored
// on the instance bound to instanceHandle. It returns the value and true on
// success, or (nil, false) if the instance handle does not resolve to an
// instance, the class descriptor did not contribute data to that instance,
// or the instance has no such field — the sentinel for "absence" the
// spec's accessor contract calls for.
func (ds *DecodedStream) FieldValue(classDesc *ClassDesc, fieldName string, instanceHandle Handle) (interface{}, bool) {
	inst := ds.findInstance(instanceHandle)
	if inst == nil {
		return nil, false
	}
	iv, ok := inst.Value.(*InstanceValue)
	if !ok {
		return nil, false
	}
	fields, ok := iv.Fields[classDesc]
	if !ok {
		return nil, false
	}
	v, ok := fields[fieldName]
	return v, ok
}
