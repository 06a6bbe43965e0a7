package components

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"physworld/internal/collision"
	"physworld/internal/dynamics"
	"physworld/internal/engine"
	"physworld/internal/mathutil"
	"physworld/internal/physics"
)

func init() {
	engine.RegisterComponent("CharacterController", func(props map[string]any) engine.Component {
		c := NewCharacterController()
		c.Deserialize(props)
		return c
	}, func(c engine.Component) map[string]any {
		if cc, ok := c.(*CharacterController); ok {
			return cc.Serialize()
		}
		return nil
	})
}

const (
	slideMoveIterations = 4
	maxClipPlanes       = 5
	overbounce          = 1.0003

	// Normals closer than this are treated as the same plane.
	sameNormalDot = 0.99
	// nudge pushes the velocity off a plane that keeps being hit.
	nudge = 0.01

	recoverFraction = 0.2
	groundProbe     = 0.05
	// Overbounce leaves a small upward speed after landing on a floor. Rising
	// slower than this still probes for ground.
	groundedMaxRise = 0.1
)

// CharacterControllerTrace is the result of sweeping the controller shape.
// Position is where the shape stops; Fraction is 1 when nothing was hit.
type CharacterControllerTrace struct {
	Proxy    *physics.HitProxy
	Position rl.Vector3
	Normal   rl.Vector3
	Fraction float32
}

func (t CharacterControllerTrace) Hit() bool {
	return t.Fraction < 1
}

type SlideMoveResult struct {
	FinalPos rl.Vector3
	FinalVel rl.Vector3
	Clipped  bool
}

// characterTracer sweeps the controller shape through the world.
type characterTracer interface {
	TraceSelf(start, end rl.Vector3) CharacterControllerTrace
}

// CharacterController moves its actor with swept collision, sliding along
// what it hits. The actor position is the center of the collision shape.
type CharacterController struct {
	engine.BaseComponent

	Height     float32 // Total height of the capsule
	Radius     float32
	StepHeight float32 // Max height of steps to climb
	SlopeLimit float32 // Steepest walkable slope in degrees

	UseGravity bool
	Gravity    float32 // Positive is down
	JumpSpeed  float32

	// UseCylinder sweeps a cylinder instead of a capsule.
	UseCylinder         bool
	MaxPenetrationDepth float32
	RecoverIterations   int

	world *physics.PhysicsWorld
	ghost *dynamics.GhostObject
	proxy *physics.HitProxy

	moveVelocity rl.Vector3
	velocity     rl.Vector3
	grounded     bool
	jump         bool
}

func NewCharacterController() *CharacterController {
	return &CharacterController{
		Height:              1.8,
		Radius:              0.4,
		StepHeight:          0.4,
		SlopeLimit:          45,
		UseGravity:          true,
		Gravity:             20,
		JumpSpeed:           7,
		MaxPenetrationDepth: 0.02,
		RecoverIterations:   4,
	}
}

// shapeBody describes the controller volume centered on the actor.
func (c *CharacterController) shapeBody() collision.Body {
	if c.UseCylinder {
		return collision.Body{Kind: collision.KindCylinder, Radius: float64(c.Radius), Height: float64(c.Height)}
	}
	return collision.Body{
		Kind:   collision.KindCapsule,
		Radius: float64(c.Radius),
		Height: math.Max(0, float64(c.Height-2*c.Radius)),
	}
}

func (c *CharacterController) Start() {
	actor := c.GetActor()
	c.world = physicsOf(actor)
	if c.world == nil || c.ghost != nil {
		return
	}
	model := &collision.Composition{}
	model.AddBody(c.shapeBody())
	shape := model.NativeShape(mgl64.Vec3{1, 1, 1})
	c.ghost = dynamics.NewGhostObject(shape, c.transformAt(actor.WorldPosition()))
	c.ghost.SetFlags(c.ghost.Flags() | dynamics.FlagCharacterObject)

	c.proxy = physics.NewHitProxy(c, c.ghost)
	c.proxy.CollisionGroup = physics.CollisionGroupCharacter
	// Triggers overlap the character but never block its sweeps.
	c.proxy.CollisionMask = physics.CharacterCollisionMask | physics.CollisionGroupTrigger
	c.proxy.Model = model
	c.world.AddHitProxy(c.proxy)
}

func (c *CharacterController) OnDestroy() {
	if c.world == nil {
		return
	}
	c.world.RemoveHitProxy(c.proxy)
	if c.proxy != nil {
		c.proxy.Release()
	}
}

func (c *CharacterController) transformAt(p rl.Vector3) dynamics.Transform {
	return dynamics.NewTransform(mathutil.Vec3(p), mgl64.QuatIdent())
}

func (c *CharacterController) HitProxy() *physics.HitProxy { return c.proxy }
func (c *CharacterController) IsGrounded() bool            { return c.grounded }
func (c *CharacterController) Velocity() rl.Vector3        { return c.velocity }

// SetMoveVelocity sets the horizontal velocity used by Update.
func (c *CharacterController) SetMoveVelocity(v rl.Vector3) {
	c.moveVelocity = rl.Vector3{X: v.X, Z: v.Z}
}

// Jump makes the character jump on its next grounded Update.
func (c *CharacterController) Jump() {
	c.jump = true
}

// TraceSelf sweeps the controller shape from start to end. The controller
// itself and trigger bodies are never hit.
func (c *CharacterController) TraceSelf(start, end rl.Vector3) CharacterControllerTrace {
	miss := CharacterControllerTrace{Position: end, Fraction: 1}
	if c.world == nil {
		return miss
	}
	body := c.shapeBody()
	filter := physics.QueryFilter{
		IgnoreBodies:   []engine.Component{c},
		CollisionMask:  physics.CharacterCollisionMask,
		IgnoreTriggers: true,
	}
	if actor := c.GetActor(); actor != nil {
		filter.IgnoreActors = []*engine.Actor{actor}
	}
	hit, ok := c.world.TraceConvex(&body, rl.QuaternionIdentity(), start, end, filter)
	if !ok {
		return miss
	}
	return CharacterControllerTrace{
		Proxy:    hit.Proxy,
		Position: rl.Vector3Lerp(start, end, hit.Fraction),
		Normal:   hit.Normal,
		Fraction: hit.Fraction,
	}
}

// SlideMove moves from start along velocity for dt seconds, sliding along
// whatever the controller hits.
func (c *CharacterController) SlideMove(start, velocity rl.Vector3, dt float32) SlideMoveResult {
	return slideMove(c, start, velocity, dt)
}

func slideMove(tracer characterTracer, start, velocity rl.Vector3, dt float32) SlideMoveResult {
	res := SlideMoveResult{FinalPos: start, FinalVel: velocity}
	original := velocity
	timeLeft := dt
	var planes []rl.Vector3

	for i := 0; i < slideMoveIterations; i++ {
		end := rl.Vector3Add(res.FinalPos, rl.Vector3Scale(res.FinalVel, timeLeft))
		tr := tracer.TraceSelf(res.FinalPos, end)
		if !tr.Hit() {
			res.FinalPos = end
			break
		}
		if tr.Fraction > 0 {
			res.FinalPos = tr.Position
			planes = planes[:0]
		}
		timeLeft -= timeLeft * tr.Fraction

		repeated := false
		for _, n := range planes {
			if rl.Vector3DotProduct(tr.Normal, n) > sameNormalDot {
				res.FinalVel = rl.Vector3Add(res.FinalVel, rl.Vector3Scale(tr.Normal, nudge))
				repeated = true
				break
			}
		}
		if repeated {
			continue
		}

		res.Clipped = true
		if len(planes) >= maxClipPlanes {
			res.FinalVel = rl.Vector3{}
			break
		}
		planes = append(planes, tr.Normal)

		if !clipToPlanes(&res.FinalVel, planes) {
			if len(planes) != 2 {
				res.FinalVel = rl.Vector3{}
				break
			}
			crease := rl.Vector3Normalize(rl.Vector3CrossProduct(planes[0], planes[1]))
			res.FinalVel = rl.Vector3Scale(crease, rl.Vector3DotProduct(crease, res.FinalVel))
		}

		if rl.Vector3DotProduct(res.FinalVel, original) <= 0 {
			res.FinalVel = rl.Vector3{}
			break
		}
	}
	return res
}

// clipToPlanes clips vel against the first plane whose clipped velocity does
// not move into any other plane. It reports false when no plane works.
func clipToPlanes(vel *rl.Vector3, planes []rl.Vector3) bool {
	for i, n := range planes {
		clipped := ClipVelocity(*vel, n, overbounce)
		ok := true
		for j, other := range planes {
			if j != i && rl.Vector3DotProduct(clipped, other) < 0 {
				ok = false
				break
			}
		}
		if ok {
			*vel = clipped
			return true
		}
	}
	return false
}

// ClipVelocity removes the part of in that goes into the plane with the
// given normal, scaled by overbounce.
func ClipVelocity(in, normal rl.Vector3, overbounce float32) rl.Vector3 {
	backoff := rl.Vector3DotProduct(in, normal)
	if backoff < 0 {
		backoff *= overbounce
	} else {
		backoff /= overbounce
	}
	return rl.Vector3Subtract(in, rl.Vector3Scale(normal, backoff))
}

// RecoverFromPenetration pushes the controller out of the bodies it
// overlaps, at most maxIterations times. It reports whether the controller
// is still penetrating.
func (c *CharacterController) RecoverFromPenetration(maxIterations int) bool {
	if c.ghost == nil || !c.proxy.InWorld() {
		return false
	}
	for i := 0; i < maxIterations; i++ {
		push, penetrating := c.penetrationPush()
		if !penetrating {
			return false
		}
		t := c.ghost.WorldTransform()
		t.Origin = t.Origin.Add(push)
		c.ghost.SetWorldTransform(t)
	}
	if _, penetrating := c.penetrationPush(); penetrating {
		c.world.Diagnostics().Warn(physics.DiagRecoveryCap, "character still penetrating after recovery",
			zap.Int("iterations", maxIterations), zap.Uint64("proxy", c.proxy.Id))
		return true
	}
	return false
}

// penetrationPush sums the corrections for every contact deeper than
// MaxPenetrationDepth.
func (c *CharacterController) penetrationPush() (mgl64.Vec3, bool) {
	w := c.world.Dynamics()
	self := c.ghost.Collision()
	w.UpdateSingleAABB(self)

	var push mgl64.Vec3
	penetrating := false
	for _, m := range w.DispatchGhostPairs(c.ghost) {
		other := m.Body1
		if m.Body1 == self {
			other = m.Body0
		}
		if !other.HasContactResponse() || other.Group()&physics.CharacterCollisionMask == 0 {
			continue
		}
		// Normals point towards Body0.
		sign := 1.0
		if m.Body0 != self {
			sign = -1
		}
		for i := 0; i < m.NumContacts(); i++ {
			cp := m.ContactPoint(i)
			excess := -cp.Distance - float64(c.MaxPenetrationDepth)
			if excess <= 0 {
				continue
			}
			penetrating = true
			push = push.Add(cp.NormalWorldOnB.Mul(sign * excess * recoverFraction))
		}
	}
	return push, penetrating
}

// Move slides the character by displacement right away and returns how far
// it actually moved.
func (c *CharacterController) Move(displacement rl.Vector3) rl.Vector3 {
	actor := c.GetActor()
	if actor == nil {
		return rl.Vector3{}
	}
	start := actor.WorldPosition()
	res := c.SlideMove(start, displacement, 1)
	c.setPosition(res.FinalPos)
	return rl.Vector3Subtract(res.FinalPos, start)
}

func (c *CharacterController) setPosition(p rl.Vector3) {
	c.GetActor().SetWorldPosition(p)
	if c.ghost != nil {
		c.ghost.SetWorldTransform(c.transformAt(p))
	}
}

func (c *CharacterController) Update(deltaTime float32) {
	actor := c.GetActor()
	if c.ghost == nil || actor == nil || deltaTime <= 0 {
		return
	}
	c.ghost.SetWorldTransform(c.transformAt(actor.WorldPosition()))
	c.RecoverFromPenetration(c.RecoverIterations)
	pos := mathutil.Vector3(c.ghost.WorldTransform().Origin)

	if c.jump && c.grounded {
		c.velocity.Y = c.JumpSpeed
		c.grounded = false
	}
	c.jump = false
	if c.UseGravity && !c.grounded {
		c.velocity.Y -= c.Gravity * deltaTime
	}
	c.velocity.X, c.velocity.Z = c.moveVelocity.X, c.moveVelocity.Z

	up := rl.Vector3{Y: 1}
	var stepped float32
	if c.StepHeight > 0 && c.grounded {
		tr := c.TraceSelf(pos, rl.Vector3Add(pos, rl.Vector3Scale(up, c.StepHeight)))
		stepped = c.StepHeight * tr.Fraction
		pos = tr.Position
	}

	res := c.SlideMove(pos, c.velocity, deltaTime)
	pos = res.FinalPos
	c.velocity.Y = res.FinalVel.Y

	if stepped > 0 {
		tr := c.TraceSelf(pos, rl.Vector3Subtract(pos, rl.Vector3Scale(up, stepped+groundProbe)))
		if tr.Hit() {
			pos = tr.Position
		} else {
			pos = rl.Vector3Subtract(pos, rl.Vector3Scale(up, stepped))
		}
	}

	c.grounded = false
	if c.velocity.Y <= groundedMaxRise {
		tr := c.TraceSelf(pos, rl.Vector3Subtract(pos, rl.Vector3Scale(up, groundProbe)))
		if tr.Hit() && c.walkable(tr.Normal) {
			c.grounded = true
			c.velocity.Y = 0
		}
	}
	c.setPosition(pos)
}

// walkable reports whether a surface with normal n is within SlopeLimit.
func (c *CharacterController) walkable(n rl.Vector3) bool {
	limit := math.Cos(float64(c.SlopeLimit) * math.Pi / 180)
	return float64(n.Y) >= limit-1e-6
}

func (c *CharacterController) Serialize() map[string]any {
	return map[string]any{
		"height":              c.Height,
		"radius":              c.Radius,
		"stepHeight":          c.StepHeight,
		"slopeLimit":          c.SlopeLimit,
		"useGravity":          c.UseGravity,
		"gravity":             c.Gravity,
		"jumpSpeed":           c.JumpSpeed,
		"useCylinder":         c.UseCylinder,
		"maxPenetrationDepth": c.MaxPenetrationDepth,
		"recoverIterations":   c.RecoverIterations,
	}
}

func (c *CharacterController) Deserialize(props map[string]any) {
	c.Height = propFloat(props, "height", c.Height)
	c.Radius = propFloat(props, "radius", c.Radius)
	c.StepHeight = propFloat(props, "stepHeight", c.StepHeight)
	c.SlopeLimit = propFloat(props, "slopeLimit", c.SlopeLimit)
	c.UseGravity = propBool(props, "useGravity", c.UseGravity)
	c.Gravity = propFloat(props, "gravity", c.Gravity)
	c.JumpSpeed = propFloat(props, "jumpSpeed", c.JumpSpeed)
	c.UseCylinder = propBool(props, "useCylinder", c.UseCylinder)
	c.MaxPenetrationDepth = propFloat(props, "maxPenetrationDepth", c.MaxPenetrationDepth)
	c.RecoverIterations = propInt(props, "recoverIterations", c.RecoverIterations)
}
