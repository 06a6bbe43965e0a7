package world

import (
	"bytes"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"physworld/internal/engine"
)

// SceneFile is the YAML form of a scene:
//
//	actors:
//	  - name: floor
//	    position: [0, -0.5, 0]
//	    components:
//	      - type: PhysicalBody
//	        props:
//	          collision:
//	            bodies:
//	              - kind: box
//	                half_extents: [20, 0.5, 20]
type SceneFile struct {
	Actors []ActorDef `yaml:"actors"`
}

type ActorDef struct {
	Name       string         `yaml:"name"`
	GUID       string         `yaml:"guid,omitempty"`
	Tags       []string       `yaml:"tags,omitempty"`
	Position   [3]float32     `yaml:"position"`
	Rotation   [3]float32     `yaml:"rotation"`
	Scale      [3]float32     `yaml:"scale"`
	Components []ComponentDef `yaml:"components,omitempty"`
	Children   []ActorDef     `yaml:"children,omitempty"`
}

type ComponentDef struct {
	Type  string         `yaml:"type"`
	Props map[string]any `yaml:"props,omitempty"`
}

// Runtime actors carrying this tag are not saved.
const transientTag = "projectile"

// LoadScene adds the actors of a scene file to the world. Components of
// unknown types are skipped with a warning.
func (w *World) LoadScene(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("world: load scene %s: %w", path, err)
	}
	var sf SceneFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return fmt.Errorf("world: unmarshal %s: %w", path, err)
	}
	for _, def := range sf.Actors {
		a, err := w.buildActor(def)
		if err != nil {
			return fmt.Errorf("world: scene %s: %w", path, err)
		}
		w.spawnTree(a)
	}
	w.logger.Info("scene loaded", zap.String("path", path), zap.Int("actors", len(w.Scene.Actors)))
	return nil
}

func (w *World) buildActor(def ActorDef) (*engine.Actor, error) {
	a := engine.NewActor(def.Name)
	if def.GUID != "" {
		id, err := uuid.Parse(def.GUID)
		if err != nil {
			return nil, fmt.Errorf("actor %q: %w", def.Name, err)
		}
		a.GUID = id
	}
	a.Tags = def.Tags
	a.Transform.Position = vec(def.Position)
	a.Transform.Rotation = vec(def.Rotation)
	if def.Scale != [3]float32{} {
		a.Transform.Scale = vec(def.Scale)
	}
	for _, cd := range def.Components {
		c := engine.CreateComponent(cd.Type, cd.Props)
		if c == nil {
			w.logger.Warn("unknown component type", zap.String("actor", def.Name), zap.String("type", cd.Type))
			continue
		}
		a.AddComponent(c)
	}
	for _, childDef := range def.Children {
		child, err := w.buildActor(childDef)
		if err != nil {
			return nil, err
		}
		a.AddChild(child)
	}
	return a, nil
}

func (w *World) spawnTree(a *engine.Actor) {
	w.Spawn(a)
	for _, child := range a.Children {
		w.spawnTree(child)
	}
}

// SaveScene writes every root actor and its children to path.
func (w *World) SaveScene(path string) error {
	var sf SceneFile
	for _, a := range w.Scene.Actors {
		if a.Parent != nil || a.HasTag(transientTag) {
			continue
		}
		sf.Actors = append(sf.Actors, actorDef(a))
	}
	data, err := yaml.Marshal(&sf)
	if err != nil {
		return fmt.Errorf("world: marshal scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("world: save scene %s: %w", path, err)
	}
	return nil
}

func actorDef(a *engine.Actor) ActorDef {
	def := ActorDef{
		Name:     a.Name,
		GUID:     a.GUID.String(),
		Tags:     a.Tags,
		Position: arr(a.Transform.Position),
		Rotation: arr(a.Transform.Rotation),
		Scale:    arr(a.Transform.Scale),
	}
	for _, c := range a.Components() {
		if name, props, ok := engine.SerializeComponent(c); ok {
			def.Components = append(def.Components, ComponentDef{Type: name, Props: props})
		}
	}
	for _, child := range a.Children {
		if !child.HasTag(transientTag) {
			def.Children = append(def.Children, actorDef(child))
		}
	}
	return def
}

func vec(v [3]float32) rl.Vector3 { return rl.Vector3{X: v[0], Y: v[1], Z: v[2]} }
func arr(v rl.Vector3) [3]float32 { return [3]float32{v.X, v.Y, v.Z} }
