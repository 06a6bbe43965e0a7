package components

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"physworld/internal/collision"
	"physworld/internal/dynamics"
	"physworld/internal/engine"
	"physworld/internal/mathutil"
	"physworld/internal/physics"
)

func init() {
	engine.RegisterComponent("PhysicalBody", func(props map[string]any) engine.Component {
		b := NewPhysicalBody()
		b.Deserialize(props)
		return b
	}, func(c engine.Component) map[string]any {
		if b, ok := c.(*PhysicalBody); ok {
			return b.Serialize()
		}
		return nil
	})
}

// MotionBehavior selects how a body moves.
type MotionBehavior int

const (
	// MotionStatic bodies never move.
	MotionStatic MotionBehavior = iota
	// MotionDynamic bodies are moved by the simulation.
	MotionDynamic
	// MotionKinematic bodies follow their actor and push dynamic bodies.
	MotionKinematic
)

var motionNames = [...]string{"static", "dynamic", "kinematic"}

func (m MotionBehavior) String() string {
	if m < 0 || int(m) >= len(motionNames) {
		return fmt.Sprintf("MotionBehavior(%d)", int(m))
	}
	return motionNames[m]
}

func ParseMotionBehavior(s string) (MotionBehavior, error) {
	for i, name := range motionNames {
		if name == s {
			return MotionBehavior(i), nil
		}
	}
	return 0, fmt.Errorf("unknown motion behavior %q", s)
}

// PhysicalBody gives its actor a rigid body in the physics world.
type PhysicalBody struct {
	engine.BaseComponent

	MotionBehavior MotionBehavior
	Mass           float32
	Friction       float32
	Restitution    float32
	LinearDamping  float32
	DisableGravity bool

	// CollisionGroup of 0 picks a group from the motion behavior.
	CollisionGroup        int
	CollisionMask         int
	Trigger               bool
	DispatchContactEvents bool
	DispatchOverlapEvents bool
	GenerateContactPoints bool

	CollisionModel *collision.Composition
	// Descriptor is the file CollisionModel was loaded from, if any.
	Descriptor string

	world *physics.PhysicsWorld
	proxy *physics.HitProxy
	body  *dynamics.RigidBody
	// com is the scaled center of mass in actor space.
	com mgl64.Vec3
}

func NewPhysicalBody() *PhysicalBody {
	return &PhysicalBody{
		MotionBehavior:        MotionStatic,
		Mass:                  1,
		Friction:              0.5,
		CollisionMask:         physics.CollisionMaskAll,
		DispatchContactEvents: true,
		DispatchOverlapEvents: true,
	}
}

func (b *PhysicalBody) HitProxy() *physics.HitProxy    { return b.proxy }
func (b *PhysicalBody) RigidBody() *dynamics.RigidBody { return b.body }

func (b *PhysicalBody) Start() {
	actor := b.GetActor()
	b.world = physicsOf(actor)
	if b.world == nil || b.body != nil {
		return
	}
	if b.CollisionModel == nil {
		b.world.Logger().Warn("physical body without collision model", zap.String("actor", actor.Name))
		return
	}
	scale := mathutil.Vec3(actor.WorldScale())
	shape := b.CollisionModel.NativeShape(scale)
	if shape == nil {
		b.world.Logger().Warn("physical body with empty collision model", zap.String("actor", actor.Name))
		return
	}
	com := b.CollisionModel.CenterOfMass()
	b.com = mgl64.Vec3{com[0] * scale[0], com[1] * scale[1], com[2] * scale[2]}

	var mass float64
	if b.MotionBehavior == MotionDynamic {
		mass = float64(b.Mass)
	}
	b.body = dynamics.NewRigidBody(mass, shape, b.actorTransform())
	if b.MotionBehavior == MotionKinematic {
		b.body.SetKinematic(true)
	}
	b.body.SetFriction(float64(b.Friction))
	b.body.SetRestitution(float64(b.Restitution))
	b.body.SetLinearDamping(float64(b.LinearDamping))
	if b.DisableGravity {
		b.body.SetGravity(mgl64.Vec3{})
	}
	flags := b.body.Flags() | dynamics.FlagCustomMaterialCallback
	if b.Trigger {
		flags |= dynamics.FlagNoContactResponse
	}
	b.body.SetFlags(flags)

	b.proxy = physics.NewHitProxy(b, b.body)
	b.proxy.CollisionGroup = b.collisionGroup()
	b.proxy.CollisionMask = b.CollisionMask
	b.proxy.Trigger = b.Trigger
	b.proxy.DispatchContactEvents = b.DispatchContactEvents
	b.proxy.DispatchOverlapEvents = b.DispatchOverlapEvents
	b.proxy.GenerateContactPoints = b.GenerateContactPoints
	b.proxy.Model = b.CollisionModel
	b.proxy.ModelScale = scale

	b.world.AddHitProxy(b.proxy)
	b.world.AddTickListener(b)
}

func (b *PhysicalBody) collisionGroup() int {
	switch {
	case b.CollisionGroup != 0:
		return b.CollisionGroup
	case b.Trigger:
		return physics.CollisionGroupTrigger
	case b.MotionBehavior == MotionStatic:
		return physics.CollisionGroupStatic
	case b.MotionBehavior == MotionKinematic:
		return physics.CollisionGroupKinematic
	}
	return physics.CollisionGroupDefault
}

// actorTransform is where the body's center of mass sits for the actor's
// current transform.
func (b *PhysicalBody) actorTransform() dynamics.Transform {
	actor := b.GetActor()
	rot := mathutil.Quat(actor.WorldRotationQuaternion())
	origin := mathutil.Vec3(actor.WorldPosition()).Add(rot.Rotate(b.com))
	return dynamics.NewTransform(origin, rot)
}

// PrePhysics moves kinematic bodies to their actor and derives the velocity
// the solver sees from the motion.
func (b *PhysicalBody) PrePhysics(timeStep float64) {
	if b.MotionBehavior != MotionKinematic || b.body == nil {
		return
	}
	target := b.actorTransform()
	prev := b.body.WorldTransform().Origin
	if timeStep > 0 {
		b.body.SetLinearVelocity(target.Origin.Sub(prev).Mul(1 / timeStep))
	}
	b.body.SetWorldTransform(target)
}

// PostPhysics writes dynamic bodies back to their actor.
func (b *PhysicalBody) PostPhysics(float64) {
	if b.MotionBehavior != MotionDynamic || b.body == nil {
		return
	}
	t := b.body.WorldTransform()
	actor := b.GetActor()
	actor.SetWorldPosition(mathutil.Vector3(t.Origin.Sub(t.Basis.Rotate(b.com))))
}

func (b *PhysicalBody) OnDestroy() {
	if b.world == nil {
		return
	}
	b.world.RemoveTickListener(b)
	b.world.RemoveHitProxy(b.proxy)
	if b.proxy != nil {
		b.proxy.Release()
	}
}

// SetCollisionModel swaps the collision model. A started body is rebuilt in
// place and keeps its velocity and ignore list.
func (b *PhysicalBody) SetCollisionModel(model *collision.Composition) {
	b.CollisionModel = model
	if b.body == nil {
		return
	}
	velocity := b.LinearVelocity()
	ignored := slices.Clone(b.proxy.IgnoreList())

	b.OnDestroy()
	b.body, b.proxy = nil, nil
	b.Start()

	if b.body == nil {
		return
	}
	if b.MotionBehavior == MotionDynamic {
		b.SetLinearVelocity(velocity)
	}
	for _, a := range ignored {
		b.proxy.AddToIgnoreList(a)
	}
}

func (b *PhysicalBody) ApplyCentralImpulse(impulse rl.Vector3) {
	if b.body != nil {
		b.body.ApplyCentralImpulse(mathutil.Vec3(impulse))
	}
}

func (b *PhysicalBody) SetLinearVelocity(v rl.Vector3) {
	if b.body != nil {
		b.body.SetLinearVelocity(mathutil.Vec3(v))
	}
}

func (b *PhysicalBody) LinearVelocity() rl.Vector3 {
	if b.body == nil {
		return rl.Vector3{}
	}
	return mathutil.Vector3(b.body.LinearVelocity())
}

// AddToIgnoreList stops this body from colliding with a. It has no effect
// before the body has started.
func (b *PhysicalBody) AddToIgnoreList(a *engine.Actor) {
	if b.proxy != nil {
		b.proxy.AddToIgnoreList(a)
	}
}

func (b *PhysicalBody) RemoveFromIgnoreList(a *engine.Actor) {
	if b.proxy != nil {
		b.proxy.RemoveFromIgnoreList(a)
	}
}

func (b *PhysicalBody) Serialize() map[string]any {
	props := map[string]any{
		"motion":                b.MotionBehavior.String(),
		"mass":                  b.Mass,
		"friction":              b.Friction,
		"restitution":           b.Restitution,
		"linearDamping":         b.LinearDamping,
		"disableGravity":        b.DisableGravity,
		"collisionGroup":        b.CollisionGroup,
		"collisionMask":         b.CollisionMask,
		"trigger":               b.Trigger,
		"dispatchContactEvents": b.DispatchContactEvents,
		"dispatchOverlapEvents": b.DispatchOverlapEvents,
		"generateContactPoints": b.GenerateContactPoints,
	}
	switch {
	case b.Descriptor != "":
		props["descriptor"] = b.Descriptor
	case b.CollisionModel != nil:
		if model, err := compositionProps(b.CollisionModel); err == nil {
			props["collision"] = model
		}
	}
	return props
}

func (b *PhysicalBody) Deserialize(props map[string]any) {
	if m, err := ParseMotionBehavior(propString(props, "motion")); err == nil {
		b.MotionBehavior = m
	}
	b.Mass = propFloat(props, "mass", b.Mass)
	b.Friction = propFloat(props, "friction", b.Friction)
	b.Restitution = propFloat(props, "restitution", b.Restitution)
	b.LinearDamping = propFloat(props, "linearDamping", b.LinearDamping)
	b.DisableGravity = propBool(props, "disableGravity", b.DisableGravity)
	b.CollisionGroup = propInt(props, "collisionGroup", b.CollisionGroup)
	b.CollisionMask = propInt(props, "collisionMask", b.CollisionMask)
	b.Trigger = propBool(props, "trigger", b.Trigger)
	b.DispatchContactEvents = propBool(props, "dispatchContactEvents", b.DispatchContactEvents)
	b.DispatchOverlapEvents = propBool(props, "dispatchOverlapEvents", b.DispatchOverlapEvents)
	b.GenerateContactPoints = propBool(props, "generateContactPoints", b.GenerateContactPoints)

	if path := propString(props, "descriptor"); path != "" {
		model, err := collision.LoadDescriptor(path)
		if err != nil {
			zap.L().Named("components").Warn("physical body descriptor", zap.Error(err))
			return
		}
		b.Descriptor = path
		b.CollisionModel = model
		return
	}
	if raw, ok := props["collision"]; ok {
		model, err := parseCompositionProps(raw)
		if err != nil {
			zap.L().Named("components").Warn("physical body collision", zap.Error(err))
			return
		}
		b.CollisionModel = model
	}
}

// compositionProps converts c to the generic form scene files use.
func compositionProps(c *collision.Composition) (map[string]any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if err := yaml.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	return props, nil
}

func parseCompositionProps(raw any) (*collision.Composition, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return collision.ParseDescriptor(data)
}
