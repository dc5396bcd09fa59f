package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourcePriorities maps source domains to priority weights used by the
// value assessor. Domains not listed fall back to Default.
type SourcePriorities struct {
	Default float64            `yaml:"default"`
	Domains map[string]float64 `yaml:"domains"`
}

// DefaultSourcePriority is used when no priority file is configured.
const DefaultSourcePriority = 0.5

// NewSourcePriorities returns a table where every domain resolves to the
// default weight.
func NewSourcePriorities() *SourcePriorities {
	return &SourcePriorities{Default: DefaultSourcePriority}
}

// LoadSourcePriorities reads a YAML priority table from path.
func LoadSourcePriorities(path string) (*SourcePriorities, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source priorities: %w", err)
	}

	sp := SourcePriorities{Default: DefaultSourcePriority}
	if err := yaml.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("parse source priorities: %w", err)
	}
	if sp.Default < 0 || sp.Default > 1 {
		return nil, fmt.Errorf("default priority %v out of range [0,1]", sp.Default)
	}
	for domain, weight := range sp.Domains {
		if weight < 0 || weight > 1 {
			return nil, fmt.Errorf("priority %v for %q out of range [0,1]", weight, domain)
		}
	}
	return &sp, nil
}

// PriorityFor resolves the priority weight for a document URL. Subdomains
// inherit the weight of the closest configured parent domain.
func (sp *SourcePriorities) PriorityFor(rawURL string) float64 {
	if sp == nil {
		return DefaultSourcePriority
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return sp.Default
	}

	host := strings.ToLower(u.Hostname())
	for host != "" {
		if w, ok := sp.Domains[host]; ok {
			return w
		}
		idx := strings.Index(host, ".")
		if idx < 0 {
			break
		}
		host = host[idx+1:]
	}
	return sp.Default
}
