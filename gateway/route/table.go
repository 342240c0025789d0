// Package route holds the immutable hostname to backend-address table.
package route

import "strings"

// Table maps lowercase hostnames to backend "host:port" addresses. It is
// built once at startup and shared read-only across all connection
// goroutines; with no writer after construction it needs no locking.
type Table struct {
	backends map[string]string
}

// NewTable builds a Table from a hostname -> backend address map.
// Keys are normalized to lowercase with a single trailing dot stripped.
func NewTable(backends map[string]string) *Table {
	m := make(map[string]string, len(backends))
	for host, addr := range backends {
		m[normalizeKey(host)] = addr
	}
	return &Table{backends: m}
}

// Lookup returns the backend address for a routing key. Exact match only:
// no wildcard, suffix, or default-backend fallback.
func (t *Table) Lookup(key string) (string, bool) {
	addr, ok := t.backends[key]
	return addr, ok
}

// Len returns the number of configured routes.
func (t *Table) Len() int {
	return len(t.backends)
}

// Hosts returns the configured hostnames.
func (t *Table) Hosts() []string {
	hosts := make([]string, 0, len(t.backends))
	for host := range t.backends {
		hosts = append(hosts, host)
	}
	return hosts
}

func normalizeKey(host string) string {
	return strings.TrimSuffix(strings.ToLower(host), ".")
}
