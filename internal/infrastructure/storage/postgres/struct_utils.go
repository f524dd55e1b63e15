package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// column is one db-tagged field, addressed by its index path so that fields
// promoted from embedded structs (entity.BaseEntity, entity.SoftDelete) are
// reached directly.
type column struct {
	name  string
	index []int
}

var columnCache sync.Map // reflect.Type -> []column

// columnsOf returns the db columns of struct type t in declaration order,
// embedded structs expanded in place. Fields tagged "-" or untagged are skipped.
func columnsOf(t reflect.Type) []column {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}

	var cols []column
	if t.Kind() == reflect.Struct {
		cols = appendColumns(cols, t, nil)
	}
	columnCache.Store(t, cols)
	return cols
}

func appendColumns(cols []column, t reflect.Type, prefix []int) []column {
	for i := range t.NumField() {
		f := t.Field(i)
		path := append(slices.Clone(prefix), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			cols = appendColumns(cols, f.Type, path)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, column{name: tag, index: path})
	}
	return cols
}

// ExtractDBColumns lists the columns of T. Repositories call it once at
// construction.
//
//	ExtractDBColumns[customer.Customer]()
//	// ["id", "version", "created_at", "updated_at", "deleted", "deleted_at", "name", ...]
func ExtractDBColumns[T any]() []string {
	cols := columnsOf(reflect.TypeFor[T]())
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// StructToMap maps column names to the field values of v, a struct or a
// pointer to one.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	cols := columnsOf(rv.Type())
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		out[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return out
}

// WithoutColumns returns cols minus the excluded names, preserving order.
func WithoutColumns(cols []string, exclude ...string) []string {
	return slices.DeleteFunc(slices.Clone(cols), func(c string) bool {
		return slices.Contains(exclude, c)
	})
}
