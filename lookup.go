package funcadapt

import (
	"reflect"
	"strings"
)

// SearchFlags selects the member categories BindMember searches.
type SearchFlags uint

const (
	SearchMethods SearchFlags = 1 << iota
	SearchProperties
	SearchFields
	SearchIgnoreCase

	SearchAll = SearchMethods | SearchProperties | SearchFields
)

func searchFlags(flags []SearchFlags) SearchFlags {
	var f SearchFlags
	for _, x := range flags {
		f |= x
	}
	if f&SearchAll == 0 {
		f |= SearchAll
	}
	return f
}

// Introspector enumerates the callables named name on owner, in priority order: methods, then
// properties (GetX/SetX), then fields. Returned descriptors must be stable across calls so
// adapters built from them are cached.
type Introspector interface {
	Lookup(owner reflect.Type, name string, flags SearchFlags) ([]*CallableDescriptor, error)
}

type lookupKey struct {
	owner reflect.Type
	name  string
	flags SearchFlags
}

// reflectionIntrospector is the default Introspector, backed by reflect and memoised.
type reflectionIntrospector struct {
	cache onceMap[lookupKey, []*CallableDescriptor]
}

var reflectIntrospector Introspector = &reflectionIntrospector{}

func (r *reflectionIntrospector) Lookup(owner reflect.Type, name string, flags SearchFlags) ([]*CallableDescriptor, error) {
	return r.cache.get(lookupKey{owner: owner, name: name, flags: flags}, func() ([]*CallableDescriptor, error) {
		return lookupMembers(owner, name, flags)
	})
}

func lookupMembers(owner reflect.Type, name string, flags SearchFlags) ([]*CallableDescriptor, error) {
	fold := flags&SearchIgnoreCase != 0
	var out []*CallableDescriptor
	add := func(host reflect.Type, m reflect.Method, kind MemberKind) error {
		c, err := newMethodDescriptor(host, m, kind)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	}
	if flags&SearchMethods != 0 {
		for _, hm := range methodsNamed(owner, name, fold) {
			if err := add(hm.host, hm.m, KindMethod); err != nil {
				return nil, err
			}
		}
	}
	if flags&SearchProperties != 0 {
		for _, hm := range methodsNamed(owner, "Get"+name, fold) {
			if hm.m.Type.NumOut() > 0 {
				if err := add(hm.host, hm.m, KindPropertyGetter); err != nil {
					return nil, err
				}
			}
		}
		for _, hm := range methodsNamed(owner, "Set"+name, fold) {
			if err := add(hm.host, hm.m, KindPropertySetter); err != nil {
				return nil, err
			}
		}
	}
	if flags&SearchFields != 0 {
		st := owner
		if st.Kind() == reflect.Pointer {
			st = st.Elem()
		}
		if st.Kind() == reflect.Struct {
			if fi := defaultMetadata.get(st).field(name, fold); fi != nil {
				out = append(out, newFieldDescriptor(st, fi, KindFieldGetter), newFieldDescriptor(st, fi, KindFieldSetter))
			}
		}
	}
	return out, nil
}

type hostedMethod struct {
	host reflect.Type
	m    reflect.Method
}

// methodsNamed finds name in owner's method set, falling back to *owner's, optionally
// ignoring case.
func methodsNamed(owner reflect.Type, name string, fold bool) []hostedMethod {
	if !fold {
		if m, host, ok := findMethod(owner, name); ok {
			return []hostedMethod{{host: host, m: m}}
		}
		return nil
	}
	hosts := []reflect.Type{owner}
	if owner.Kind() != reflect.Pointer && owner.Kind() != reflect.Interface {
		hosts = append(hosts, reflect.PointerTo(owner))
	}
	var out []hostedMethod
	seen := make(map[string]bool)
	for _, host := range hosts {
		for i := 0; i < host.NumMethod(); i++ {
			m := host.Method(i)
			if seen[m.Name] || !strings.EqualFold(m.Name, name) {
				continue
			}
			seen[m.Name] = true
			out = append(out, hostedMethod{host: host, m: m})
		}
	}
	return out
}
