package collision

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadDescriptor reads a collision model from a YAML file:
//
//	bodies:
//	  - kind: box
//	    position: [0, 0.5, 0]
//	    half_extents: [1, 0.5, 1]
//	  - kind: capsule
//	    radius: 0.3
//	    height: 1.2
//	    axis: y
func LoadDescriptor(path string) (*Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("collision: load %s: %w", path, err)
	}
	c, err := ParseDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("collision: unmarshal %s: %w", path, err)
	}
	return c, nil
}

// ParseDescriptor decodes and validates a YAML collision model. Unknown keys
// are rejected.
func ParseDescriptor(data []byte) (*Composition, error) {
	var c Composition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	for i := range c.Bodies {
		if err := c.Bodies[i].Validate(); err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
	}
	return &c, nil
}

// SaveDescriptor writes c to path as YAML.
func SaveDescriptor(path string, c *Composition) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("collision: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("collision: write %s: %w", path, err)
	}
	return nil
}
