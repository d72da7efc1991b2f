package grid

import "testing"

func TestDomains(t *testing.T) {
	d := NewDomains()
	if d.Len() != 0 {
		t.Fatalf("Expected empty registry, got %d names\n", d.Len())
	}
	names := []string{"granite", "shale", "granite", "water", "shale"}
	expected := []Tag{0, 1, 0, 2, 1}
	for i, name := range names {
		if tag := d.Tag(name); tag != expected[i] {
			t.Errorf("Tag(%q) = %d, expected %d\n", name, tag, expected[i])
		}
	}
	if d.Len() != 3 {
		t.Errorf("Expected 3 domains, got %d\n", d.Len())
	}
	for tag, name := range []string{"granite", "shale", "water"} {
		got, err := d.Name(Tag(tag))
		if err != nil || got != name {
			t.Errorf("Name(%d) = %q, %v; expected %q\n", tag, got, err, name)
		}
	}
	if _, err := d.Name(3); err == nil {
		t.Errorf("Expected error for unregistered tag 3\n")
	}
	if d.Valid(3) || !d.Valid(2) {
		t.Errorf("Bad Valid results\n")
	}
	if _, found := d.Lookup("basalt"); found {
		t.Errorf("Lookup should not find basalt\n")
	}
	if d.Len() != 3 {
		t.Errorf("Lookup must not register names\n")
	}
	if since := d.Since(1); len(since) != 2 || since[0] != "shale" || since[1] != "water" {
		t.Errorf("Bad Since(1): %v\n", since)
	}
	if since := d.Since(3); len(since) != 0 {
		t.Errorf("Expected nothing new since 3, got %v\n", since)
	}
	all := d.Names()
	all[0] = "changed"
	if name, _ := d.Name(0); name != "granite" {
		t.Errorf("Names must return a copy\n")
	}
}

func TestDomainsZeroValue(t *testing.T) {
	var d Domains
	if tag := d.Tag("first"); tag != 0 {
		t.Errorf("Expected tag 0 from zero-value registry, got %d\n", tag)
	}
	if tag, found := d.Lookup("first"); !found || tag != 0 {
		t.Errorf("Expected to find first at 0\n")
	}
}
