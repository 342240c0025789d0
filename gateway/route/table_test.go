package route

import "testing"

func TestTableLookup(t *testing.T) {
	tbl := NewTable(map[string]string{
		"a.test": "127.0.0.1:9001",
		"B.test": "127.0.0.1:9002",
	})

	addr, ok := tbl.Lookup("a.test")
	if !ok || addr != "127.0.0.1:9001" {
		t.Fatalf("Lookup(a.test) = %q, %v", addr, ok)
	}

	// Keys are normalized at construction; lookups are exact.
	addr, ok = tbl.Lookup("b.test")
	if !ok || addr != "127.0.0.1:9002" {
		t.Fatalf("Lookup(b.test) = %q, %v", addr, ok)
	}

	if _, ok := tbl.Lookup("c.test"); ok {
		t.Error("Lookup(c.test) unexpectedly found a backend")
	}
}

func TestTableNoFallback(t *testing.T) {
	tbl := NewTable(map[string]string{"a.test": "127.0.0.1:9001"})

	// No wildcard or suffix matching of any kind.
	for _, key := range []string{"sub.a.test", "test", "*.test", ""} {
		if _, ok := tbl.Lookup(key); ok {
			t.Errorf("Lookup(%q) unexpectedly found a backend", key)
		}
	}
}

func TestTableTrailingDotKey(t *testing.T) {
	tbl := NewTable(map[string]string{"a.test.": "127.0.0.1:9001"})

	if _, ok := tbl.Lookup("a.test"); !ok {
		t.Error("trailing dot in config key not normalized")
	}
}

func TestTableHosts(t *testing.T) {
	tbl := NewTable(map[string]string{
		"a.test": "127.0.0.1:9001",
		"b.test": "127.0.0.1:9002",
	})

	if tbl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tbl.Len())
	}
	hosts := tbl.Hosts()
	if len(hosts) != 2 {
		t.Fatalf("Hosts returned %d entries, want 2", len(hosts))
	}
	seen := map[string]bool{}
	for _, h := range hosts {
		seen[h] = true
	}
	if !seen["a.test"] || !seen["b.test"] {
		t.Errorf("Hosts = %v", hosts)
	}
}
