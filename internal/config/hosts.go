package config

import "strings"

// HostList is a set of site hostnames. An entry also covers its
// subdomains, so "example.com" admits "www.example.com".
type HostList []string

// Normalize lowercases entries and strips wildcard prefixes, trailing dots
// and blanks.
func (l HostList) Normalize() HostList {
	out := make(HostList, 0, len(l))
	seen := make(map[string]bool, len(l))
	for _, h := range l {
		h = strings.ToLower(strings.TrimSpace(h))
		h = strings.TrimPrefix(h, "*.")
		h = strings.Trim(h, ".")
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

// Allows reports whether host is an entry or a subdomain of one. An empty
// list allows every host.
func (l HostList) Allows(host string) bool {
	if len(l) == 0 {
		return true
	}
	host = strings.Trim(strings.ToLower(host), ".")
	for _, entry := range l {
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
