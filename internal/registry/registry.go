// Package registry carries the static anchor tables used by the
// heuristic matcher: manufacturer domains and the canonical name list.
package registry

import (
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Registry holds the domain anchor table and the known-manufacturer
// list. Both are data loaded once at startup and read-only after.
type Registry struct {
	domains       map[string]string
	manufacturers []string
}

// New builds a registry from explicit tables.
func New(domains map[string]string, manufacturers []string) *Registry {
	normalized := make(map[string]string, len(domains))
	for d, m := range domains {
		normalized[strings.ToLower(strings.TrimPrefix(d, "www."))] = m
	}
	return &Registry{domains: normalized, manufacturers: manufacturers}
}

// Default returns the built-in tables.
func Default() *Registry {
	return New(defaultDomains, defaultManufacturers)
}

type registryFile struct {
	Domains       map[string]string `yaml:"domains"`
	Manufacturers []string          `yaml:"manufacturers"`
}

// LoadFile reads a YAML override file with `domains` and
// `manufacturers` keys. Entries extend the built-in tables; a domain
// already present is replaced.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read file")
	}

	var f registryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrap(err, "registry: parse yaml")
	}

	domains := make(map[string]string, len(defaultDomains)+len(f.Domains))
	for d, m := range defaultDomains {
		domains[d] = m
	}
	for d, m := range f.Domains {
		domains[d] = m
	}

	names := append([]string{}, defaultManufacturers...)
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[strings.ToLower(n)] = struct{}{}
	}
	for _, n := range f.Manufacturers {
		if _, ok := seen[strings.ToLower(n)]; !ok {
			names = append(names, n)
		}
	}

	return New(domains, names), nil
}

// ManufacturerForURL resolves a URL's hostname against the domain
// table, matching the exact registered domain or any subdomain of it.
func (r *Registry) ManufacturerForURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))

	if m, ok := r.domains[host]; ok {
		return m, true
	}
	for domain, m := range r.domains {
		if strings.HasSuffix(host, "."+domain) {
			return m, true
		}
	}
	return "", false
}

// Manufacturers returns the canonical name list.
func (r *Registry) Manufacturers() []string {
	return r.manufacturers
}
