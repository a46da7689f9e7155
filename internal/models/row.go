package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Row is one data record. Unlike a map it remembers column order, which
// drives table headers and CSV export.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow builds a row from alternating key, value arguments.
func NewRow(kv ...any) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return r
}

func (r *Row) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the column names in insertion order.
func (r Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r Row) Len() int { return len(r.keys) }

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("row must be a json object")
	}
	*r = rowFromResult(res)
	return nil
}

func rowFromResult(res gjson.Result) Row {
	var r Row
	res.ForEach(func(k, v gjson.Result) bool {
		r.Set(k.String(), v.Value())
		return true
	})
	return r
}

// Dataset is the payload of a widget data response. Most widgets carry an
// ordered sequence of rows; some statistical charts (confusion matrix, ROC)
// carry a single object instead.
type Dataset struct {
	Rows   []Row
	Object *Row
}

func RowsDataset(rows ...Row) Dataset {
	if rows == nil {
		rows = []Row{}
	}
	return Dataset{Rows: rows}
}

func ObjectDataset(obj Row) Dataset {
	return Dataset{Object: &obj}
}

// IsSequence is false for object-shaped payloads.
func (d Dataset) IsSequence() bool { return d.Object == nil }

func (d Dataset) Len() int {
	if d.Object != nil {
		return 1
	}
	return len(d.Rows)
}

func (d Dataset) MarshalJSON() ([]byte, error) {
	if d.Object != nil {
		return d.Object.MarshalJSON()
	}
	rows := d.Rows
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(rows)
}

func (d *Dataset) UnmarshalJSON(data []byte) error {
	ds, err := ParseDataset(data)
	if err != nil {
		return err
	}
	*d = ds
	return nil
}

// ParseDataset decodes a JSON array of objects or a single JSON object,
// preserving key order.
func ParseDataset(data []byte) (Dataset, error) {
	if !gjson.ValidBytes(data) {
		return Dataset{}, fmt.Errorf("dataset is not valid json")
	}
	res := gjson.ParseBytes(data)
	switch {
	case res.Type == gjson.Null:
		return RowsDataset(), nil
	case res.IsObject():
		return ObjectDataset(rowFromResult(res)), nil
	case res.IsArray():
		rows := []Row{}
		var err error
		res.ForEach(func(_, item gjson.Result) bool {
			if !item.IsObject() {
				err = fmt.Errorf("dataset rows must be json objects")
				return false
			}
			rows = append(rows, rowFromResult(item))
			return true
		})
		if err != nil {
			return Dataset{}, err
		}
		return Dataset{Rows: rows}, nil
	default:
		return Dataset{}, fmt.Errorf("dataset must be an array or an object")
	}
}
