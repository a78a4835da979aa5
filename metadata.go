package funcadapt

import (
	"reflect"
	"strings"
	"sync"
)

type fieldInfo struct {
	index    []int
	name     string
	jsonName string
	typ      reflect.Type
	ignore   bool
}

type structMetadata struct {
	fields           []fieldInfo
	fieldsByName     map[string]*fieldInfo
	fieldsByJSONName map[string]*fieldInfo
}

// field finds a bindable field by Go name, then by json name.
func (m *structMetadata) field(name string, ignoreCase bool) *fieldInfo {
	if fi, ok := m.fieldsByName[name]; ok && !fi.ignore {
		return fi
	}
	if fi, ok := m.fieldsByJSONName[name]; ok && !fi.ignore {
		return fi
	}
	if !ignoreCase {
		return nil
	}
	for i := range m.fields {
		fi := &m.fields[i]
		if fi.ignore {
			continue
		}
		if strings.EqualFold(fi.name, name) || (fi.jsonName != "" && strings.EqualFold(fi.jsonName, name)) {
			return fi
		}
	}
	return nil
}

type metadataCache struct {
	m sync.Map // map[reflect.Type]*structMetadata
}

var defaultMetadata = &metadataCache{}

func (c *metadataCache) get(typ reflect.Type) *structMetadata {
	if cached, ok := c.m.Load(typ); ok {
		return cached.(*structMetadata)
	}
	fc := countFields(typ)
	meta := &structMetadata{fields: make([]fieldInfo, 0, fc), fieldsByName: make(map[string]*fieldInfo, fc), fieldsByJSONName: make(map[string]*fieldInfo, fc)}
	buildFieldMetadata(typ, meta, nil)
	for i := range meta.fields {
		fi := &meta.fields[i]
		// Shallower fields shadow promoted ones, as in Go selector rules.
		if prev, ok := meta.fieldsByName[fi.name]; !ok || len(fi.index) < len(prev.index) {
			meta.fieldsByName[fi.name] = fi
		}
		if fi.jsonName != "" {
			if prev, ok := meta.fieldsByJSONName[fi.jsonName]; !ok || len(fi.index) < len(prev.index) {
				meta.fieldsByJSONName[fi.jsonName] = fi
			}
		}
	}
	actual, _ := c.m.LoadOrStore(typ, meta)
	return actual.(*structMetadata)
}

func countFields(typ reflect.Type) int {
	c := 0
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				c += countFields(ft)
				continue
			}
		}
		if f.PkgPath != "" {
			continue
		}
		c++
	}
	return c
}

// buildFieldMetadata flattens embedded structs (including pointer embeds) so promoted fields
// are addressable by name.
func buildFieldMetadata(typ reflect.Type, meta *structMetadata, prefix []int) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		idx := append(append([]int(nil), prefix...), i)
		if f.Anonymous {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				buildFieldMetadata(ft, meta, idx)
				continue
			}
		}
		if f.PkgPath != "" {
			continue
		}
		tag := f.Tag.Get("bind")
		ignore := tag == "ignore" || tag == "-"
		jsonName := ""
		if jt, ok := f.Tag.Lookup("json"); ok {
			if j := strings.IndexByte(jt, ','); j >= 0 {
				jt = jt[:j]
			}
			if jt != "-" {
				jsonName = jt
			}
		}
		meta.fields = append(meta.fields, fieldInfo{index: idx, name: f.Name, jsonName: jsonName, typ: f.Type, ignore: ignore})
	}
}

// safeFieldByIndex walks index through embedded pointers, reporting false on a nil one.
func safeFieldByIndex(val reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && val.Kind() == reflect.Pointer {
			if val.IsNil() {
				return reflect.Value{}, false
			}
			val = val.Elem()
		}
		val = val.Field(x)
	}
	return val, true
}
