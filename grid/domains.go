package grid

import "fmt"

// Tag is the small integer used in place of a domain name.
type Tag uint32

// Domains is a bidirectional, append-only mapping between domain names and tags.
// The first time a name is seen it gets the next tag.  A Domains table lives for a
// whole processing session and is only used by the goroutine reading and writing
// records, so it is not safe for concurrent use.
type Domains struct {
	names []string
	tags  map[string]Tag
}

// NewDomains returns an empty registry.
func NewDomains() *Domains {
	return &Domains{tags: make(map[string]Tag)}
}

// Tag returns the tag for a domain name, registering the name if it is new.
func (d *Domains) Tag(name string) Tag {
	if tag, found := d.tags[name]; found {
		return tag
	}
	if d.tags == nil {
		d.tags = make(map[string]Tag)
	}
	tag := Tag(len(d.names))
	d.names = append(d.names, name)
	d.tags[name] = tag
	return tag
}

// Lookup returns the tag for a name without registering it.
func (d *Domains) Lookup(name string) (Tag, bool) {
	tag, found := d.tags[name]
	return tag, found
}

// Name returns the domain name for a tag.
func (d *Domains) Name(tag Tag) (string, error) {
	if !d.Valid(tag) {
		return "", fmt.Errorf("domain tag %d not registered (%d domains)", tag, len(d.names))
	}
	return d.names[tag], nil
}

// Valid returns true if 0 <= tag < Len().
func (d *Domains) Valid(tag Tag) bool {
	return int(tag) < len(d.names)
}

// Len returns the number of registered domains.
func (d *Domains) Len() int {
	return len(d.names)
}

// Names returns a copy of all names in tag order.
func (d *Domains) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Since returns the names registered after the first n, in tag order.
func (d *Domains) Since(n int) []string {
	if n >= len(d.names) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, len(d.names)-n)
	copy(out, d.names[n:])
	return out
}
