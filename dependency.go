// dependency.go: the dependency-propagation protocol.
//
// A Dependency names a single data read: "field Field of the owner with
// identity Owner". The abstract evaluation pass (Context.Dependencies)
// accumulates the exact set of reads a real evaluation would perform, so a
// cache layer can map "field changed" events onto "recompute this value".
//
// The protocol has three cooperating entry points on Value:
//
//   - DependencyThis: the value is read wholesale (for example, a whole
//     object passed into a function). Only owner-aware values register
//     anything; primitives have no owner and stay silent.
//   - DependencyMember: the abstract counterpart of GetMember: register a
//     read of the named member and return an abstract stand-in for what
//     GetMember would have produced.
//   - DependencyName: the inverse direction. A member value that knows its
//     own field name registers itself against a container, so the container
//     never needs to know the member's concrete representation.

package script

// Dependency describes one data read. Field == "" means the owner was read
// as a whole. Two dependencies are equal iff owner identity and field match.
type Dependency struct {
	Owner any
	Field string
}

// Dependencies is an ordered, deduplicating set of dependency records,
// accumulated during one abstract evaluation pass.
type Dependencies struct {
	list []Dependency
	seen map[Dependency]struct{}
}

func NewDependencies() *Dependencies {
	return &Dependencies{seen: map[Dependency]struct{}{}}
}

// Add records dep, ignoring duplicates.
func (d *Dependencies) Add(dep Dependency) {
	if d.seen == nil {
		d.seen = map[Dependency]struct{}{}
	}
	if _, dup := d.seen[dep]; dup {
		return
	}
	d.seen[dep] = struct{}{}
	d.list = append(d.list, dep)
}

// Contains reports whether dep was recorded.
func (d *Dependencies) Contains(dep Dependency) bool {
	_, ok := d.seen[dep]
	return ok
}

// List returns the records in first-registration order.
func (d *Dependencies) List() []Dependency {
	out := make([]Dependency, len(d.list))
	copy(out, d.list)
	return out
}

func (d *Dependencies) Len() int { return len(d.list) }

// DependencyThis records that this value, as a whole, was read. Reading a
// collection wholesale reads every element wholesale, so object elements
// register through the recursion.
func (v Value) DependencyThis(deps *Dependencies) {
	switch v.Type {
	case TypeObject:
		deps.Add(Dependency{Owner: v.Data.(ObjectLike).Identity()})
	case TypeCollection:
		it := v.Data.(CollectionLike).MakeIterator()
		for {
			item, ok := it.Next(nil, nil)
			if !ok {
				break
			}
			item.DependencyThis(deps)
		}
	}
}

// DependencyMember is the abstract counterpart of GetMember. For host
// objects it records (owner, name) and returns an abstract stand-in for the
// member: object and collection members come back as themselves so chained
// access keeps registering, anything else becomes a dummy (dependency
// analysis never exposes real field data). For other values it falls back to
// DependencyName double-dispatch on the member.
func (v Value) DependencyMember(name string, deps *Dependencies) Value {
	switch v.Type {
	case TypeObject:
		o := v.Data.(ObjectLike)
		deps.Add(Dependency{Owner: o.Identity(), Field: name})
		if m, ok := o.GetMember(name); ok {
			return abstractOf(m)
		}
		return Dummy
	case TypeCollection:
		if m, ok := v.Data.(CollectionLike).GetKey(name); ok {
			return m.DependencyName(v, deps)
		}
		return Dummy
	case TypeError:
		return v
	default:
		return v.GetMember(name).DependencyName(v, deps)
	}
}

// DependencyName lets a value describe itself as a named member of a
// container. Values whose payload knows its own field name register against
// the container's identity; everything else registers nothing and returns
// its abstract form.
func (v Value) DependencyName(container Value, deps *Dependencies) Value {
	if nm, ok := v.Data.(namedMember); ok && nm.MemberName() != "" && container.Type == TypeObject {
		deps.Add(Dependency{
			Owner: container.Data.(ObjectLike).Identity(),
			Field: nm.MemberName(),
		})
	}
	return abstractOf(v)
}

// abstractOf is the placeholder shape of a value inside the abstract pass:
// structure-bearing values keep their structure, data becomes a dummy.
func abstractOf(v Value) Value {
	switch v.Type {
	case TypeObject, TypeCollection, TypeFunction, TypeError:
		return v
	default:
		return Dummy
	}
}
