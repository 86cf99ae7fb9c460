package metric

import (
	"encoding/json"
	"fmt"
)

// Collection maps file paths to records and remembers insertion order.
// It is filled by the engine and read-only afterwards.
type Collection struct {
	order   []string
	records map[string]*Record
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{records: make(map[string]*Record)}
}

// Add stores r under r.Name, replacing any record with the same name.
func (c *Collection) Add(r *Record) {
	if c.records == nil {
		c.records = make(map[string]*Record)
	}
	if _, ok := c.records[r.Name]; !ok {
		c.order = append(c.order, r.Name)
	}
	c.records[r.Name] = r
}

// Get returns the record for path.
func (c *Collection) Get(path string) (*Record, bool) {
	if c == nil {
		return nil, false
	}
	r, ok := c.records[path]
	return r, ok
}

// Len returns the number of records.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Paths returns the record names in insertion order.
func (c *Collection) Paths() []string {
	if c == nil {
		return []string{}
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// All returns the records in insertion order.
func (c *Collection) All() []*Record {
	if c == nil {
		return []*Record{}
	}
	out := make([]*Record, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.records[name])
	}
	return out
}

// MarshalJSON encodes the collection as an ordered array of records.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.All())
}

// UnmarshalJSON decodes an array of records.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	c.order = nil
	c.records = make(map[string]*Record, len(records))
	for i, r := range records {
		if r == nil {
			return fmt.Errorf("record %d is null", i)
		}
		c.Add(r)
	}
	return nil
}
