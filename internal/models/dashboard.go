package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
)

// Dashboard is the full configuration snapshot of one dashboard.
type Dashboard struct {
	ID            string        `firestore:"id" json:"id"`
	Title         string        `firestore:"title" json:"title"`
	Description   string        `firestore:"description,omitempty" json:"description,omitempty"`
	Category      string        `firestore:"category,omitempty" json:"category,omitempty"`
	GlobalFilters GlobalFilters `firestore:"globalFilters" json:"globalFilters"`
	Layout        []Widget      `firestore:"-" json:"layout"`
	CreatedAt     time.Time     `firestore:"createdAt" json:"createdAt,omitempty"`
	UpdatedAt     time.Time     `firestore:"updatedAt" json:"updatedAt,omitempty"`
}

// Validate checks the construction invariants: widget IDs are present and
// unique, and every layout rect is well formed.
func (d *Dashboard) Validate() error {
	seen := make(map[string]struct{}, len(d.Layout))
	for i := range d.Layout {
		w := &d.Layout[i]
		if w.ID == "" {
			return errs.NewValidationError(fmt.Sprintf("widget at position %d has no id", i))
		}
		if _, dup := seen[w.ID]; dup {
			return errs.NewValidationError("duplicate widget id: " + w.ID)
		}
		seen[w.ID] = struct{}{}
		if err := w.LayoutRect.Validate(); err != nil {
			return errs.NewValidationError("widget " + w.ID + ": " + err.Error())
		}
	}
	return d.GlobalFilters.validate()
}

func (d *Dashboard) Widget(id string) (*Widget, bool) {
	for i := range d.Layout {
		if d.Layout[i].ID == id {
			return &d.Layout[i], true
		}
	}
	return nil, false
}

// NextY is the first grid row below every placed widget.
func (d *Dashboard) NextY() int {
	next := 0
	for _, w := range d.Layout {
		if w.LayoutRect.Appending() {
			continue
		}
		if bottom := w.LayoutRect.Y + w.LayoutRect.Height; bottom > next {
			next = bottom
		}
	}
	return next
}

// FilterDef is one dashboard-wide filter and its allowed option values.
type FilterDef struct {
	Name    string   `firestore:"name" json:"name"`
	Options []string `firestore:"options" json:"options"`
}

// GlobalFilters keeps declaration order. On the wire it is a JSON object
// whose key order is the display order.
type GlobalFilters []FilterDef

func (g GlobalFilters) Names() []string {
	out := make([]string, len(g))
	for i, f := range g {
		out[i] = f.Name
	}
	return out
}

func (g GlobalFilters) Has(name string) bool {
	for _, f := range g {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (g GlobalFilters) validate() error {
	seen := make(map[string]struct{}, len(g))
	for _, f := range g {
		if _, dup := seen[f.Name]; dup {
			return errs.NewValidationError("duplicate global filter: " + f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func (g GlobalFilters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		opts := f.Options
		if opts == nil {
			opts = []string{}
		}
		v, err := json.Marshal(opts)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (g *GlobalFilters) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		*g = nil
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("globalFilters must be an object")
	}
	out := GlobalFilters{}
	var err error
	res.ForEach(func(k, v gjson.Result) bool {
		if out.Has(k.String()) {
			err = fmt.Errorf("duplicate global filter: %s", k.String())
			return false
		}
		def := FilterDef{Name: k.String(), Options: []string{}}
		v.ForEach(func(_, opt gjson.Result) bool {
			def.Options = append(def.Options, opt.String())
			return true
		})
		out = append(out, def)
		return true
	})
	if err != nil {
		return err
	}
	*g = out
	return nil
}
