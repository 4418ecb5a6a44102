package recovery

import (
	"delivery-manifest-service/internal/domain"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry holds the compiled layout profiles by name.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewRegistry compiles the built-in profiles.
func NewRegistry() (*Registry, error) {
	r := &Registry{profiles: make(map[string]*Profile)}
	for _, lp := range BuiltinProfiles() {
		if err := r.Add(lp); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Add(lp LayoutProfile) error {
	p, err := Compile(lp)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[lp.Name] = p
	return nil
}

func (r *Registry) Get(name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("layout %q: %w", name, domain.ErrUnknownLayout)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type profileFile struct {
	Profiles []yaml.Node `yaml:"profiles"`
}

// LoadFile adds the profiles declared in a YAML file:
//
//	profiles:
//	  - name: travel-log-2025
//	    extends: whitespace-joined
//	    labels:
//	      driver: "Condutor:"
//
// A profile with "extends" starts from a copy of that profile; fields it sets replace the base values.
func (r *Registry) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load layouts: read %q: %w", path, err)
	}
	return r.Load(b)
}

func (r *Registry) Load(b []byte) error {
	var file profileFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return fmt.Errorf("load layouts: parse yaml: %w", err)
	}

	for i := range file.Profiles {
		node := &file.Profiles[i]

		var head struct {
			Name    string `yaml:"name"`
			Extends string `yaml:"extends"`
		}
		if err := node.Decode(&head); err != nil {
			return fmt.Errorf("load layouts: profile #%d: %w", i+1, err)
		}

		lp := baseProfile()
		if head.Extends != "" {
			base, err := r.Get(head.Extends)
			if err != nil {
				return fmt.Errorf("load layouts: profile %q: extends: %w", head.Name, err)
			}
			lp = base.LayoutProfile
			lp.Cities = append([]string(nil), lp.Cities...)
			lp.Products = append([]string(nil), lp.Products...)
			lp.DateLayouts = append([]string(nil), lp.DateLayouts...)
			lp.Markers = append([]string(nil), lp.Markers...)
		}

		if err := node.Decode(&lp); err != nil {
			return fmt.Errorf("load layouts: profile %q: %w", head.Name, err)
		}
		if err := r.Add(lp); err != nil {
			return fmt.Errorf("load layouts: %w", err)
		}
	}

	return nil
}
