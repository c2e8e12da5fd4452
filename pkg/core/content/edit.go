package content

import (
	"fmt"

	"github.com/matzehuels/pagesmith/pkg/errors"
)

// Path addresses a value inside one section's payload.
type Path struct {
	// Field names a record field. For item paths an empty field addresses
	// the whole element.
	Field string `json:"field,omitempty"`
	// Index is the list element, used only when Item is set.
	Index int  `json:"index,omitempty"`
	Item  bool `json:"item,omitempty"`
}

// Field addresses field f of a record payload.
func Field(f string) Path { return Path{Field: f} }

// Item addresses field f of list element i. An empty f replaces the element.
func Item(i int, f string) Path { return Path{Index: i, Field: f, Item: true} }

func (p Path) String() string {
	if p.Item {
		if p.Field == "" {
			return fmt.Sprintf("[%d]", p.Index)
		}
		return fmt.Sprintf("[%d].%s", p.Index, p.Field)
	}
	return p.Field
}

// ApplyEdit writes value at path inside the payload for typ and returns the
// updated store. Sibling fields and list elements are preserved. Lists grow
// as needed, filling new slots from the section's item defaults or with
// empty records. An edit whose path does not match the payload shape fails
// with an INVALID_EDIT error and current is returned unchanged.
func ApplyEdit(current Store, typ string, path Path, value any) (Store, error) {
	if err := errors.ValidateSectionType(typ); err != nil {
		return current, err
	}
	if err := errors.ValidateField(path.Field); err != nil {
		return current, err
	}

	var (
		next any
		err  error
	)
	if path.Item {
		next, err = editList(current[typ], typ, path, value)
	} else {
		next, err = editRecord(current[typ], typ, path.Field, value)
	}
	if err != nil {
		return current, err
	}

	out := copyStore(current)
	out[typ] = next
	return out, nil
}

func editRecord(payload any, typ, field string, value any) (any, error) {
	if field == "" {
		return nil, errors.New(errors.ErrCodeInvalidEdit, "edit of %q needs a field name", typ)
	}
	var rec Record
	switch t := payload.(type) {
	case nil:
		rec = Record{}
	case map[string]any:
		rec = make(Record, len(t)+1)
		for k, v := range t {
			rec[k] = v
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidEdit,
			"cannot set field %q: %q holds a %s", field, typ, ShapeOf(payload))
	}
	rec[field] = cloneValue(value)
	return rec, nil
}

func editList(payload any, typ string, path Path, value any) (any, error) {
	if path.Index < 0 {
		return nil, errors.New(errors.ErrCodeInvalidEdit, "negative index %d for %q", path.Index, typ)
	}
	const maxIndex = 1024
	if path.Index > maxIndex {
		return nil, errors.New(errors.ErrCodeInvalidEdit, "index %d out of range for %q", path.Index, typ)
	}

	var list List
	switch t := payload.(type) {
	case nil:
		list = ItemDefaults(typ)
	case []any:
		if len(t) == 0 {
			list = ItemDefaults(typ)
		} else {
			list = make(List, len(t), max(len(t), path.Index+1))
			copy(list, t)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidEdit,
			"cannot edit item %d: %q holds a %s", path.Index, typ, ShapeOf(payload))
	}
	for len(list) <= path.Index {
		list = append(list, itemDefault(typ, len(list)))
	}

	if path.Field == "" {
		list[path.Index] = cloneValue(value)
		return list, nil
	}

	var item Record
	switch t := list[path.Index].(type) {
	case nil:
		item = Record{}
	case map[string]any:
		item = make(Record, len(t)+1)
		for k, v := range t {
			item[k] = v
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidEdit,
			"cannot set field %q on item %d of %q: element is a %s", path.Field, path.Index, typ, ShapeOf(t))
	}
	item[path.Field] = cloneValue(value)
	list[path.Index] = item
	return list, nil
}
