// object.go: host objects exposed to scripts.
//
// A host object is anything the host binds into a scope that carries
// user-edited fields: a card, a set, a style sheet. Hosts with their own
// types implement ObjectLike directly; Object is the ready-made
// implementation backed by an ordered field table.
//
// Object is also the anchor of the dependency protocol: its pointer is the
// owner identity recorded in Dependency records, and its fields are wrapped
// so they can answer DependencyName when read through a container.

package script

// Object is a generic host object with named fields and pointer identity.
type Object struct {
	name       string
	memberName string
	fields     *MapValue
}

// NewObject creates an empty host object; name is the user-facing type name
// used in error messages ("card", "set", ...).
func NewObject(name string) *Object {
	return &Object{name: name, fields: NewMapValue()}
}

// Set binds a field.
func (o *Object) Set(field string, v Value) { o.fields.Set(field, v) }

func (o *Object) ObjectTypeName() string { return o.name }

func (o *Object) GetMember(name string) (Value, bool) {
	return o.fields.GetKey(name)
}

func (o *Object) Identity() any { return o }

// FieldNames lists the object's fields in insertion order.
func (o *Object) FieldNames() []string { return o.fields.Keys() }

// Fields exposes the field table as a collection, so hosts can hand a whole
// object to iteration-minded builtins.
func (o *Object) Fields() CollectionLike { return o.fields }

// NewMemberObject creates an object that knows it is a named member of
// another object (for example, a card's style sub-object). When such an
// object is read out of a container during dependency analysis, the
// DependencyName dispatch registers (container, memberName) without the
// container knowing the member's representation.
func NewMemberObject(name, memberName string) *Object {
	return &Object{name: name, memberName: memberName, fields: NewMapValue()}
}

// MemberName reports the field name this object occupies in its container;
// empty for free-standing objects.
func (o *Object) MemberName() string { return o.memberName }
