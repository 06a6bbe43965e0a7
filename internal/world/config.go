package world

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"physworld/internal/physics"
)

// Config is a world config file.
//
//	scene = "scenes/demo.yaml"
//	descriptor-dirs = ["assets/collision"]
//
//	[physics]
//	tick-rate = 120
type Config struct {
	Scene          string         `toml:"scene"`
	DescriptorDirs []string       `toml:"descriptor-dirs"`
	Physics        physics.Config `toml:"physics"`
}

func DefaultConfig() Config {
	return Config{Physics: physics.DefaultConfig()}
}

// LoadConfig reads a TOML file over DefaultConfig. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("world: unmarshal %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		var unknown physics.ErrUnknownConfig
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		return Config{}, fmt.Errorf("world: unmarshal %s: %w", path, unknown)
	}
	if err := c.Physics.Validate(); err != nil {
		return Config{}, fmt.Errorf("world: %s: %w", path, err)
	}
	return c, nil
}
