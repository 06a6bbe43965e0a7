package components

import (
	"go.uber.org/zap"

	"physworld/internal/engine"
)

func init() {
	engine.RegisterComponent("Collectible", func(props map[string]any) engine.Component {
		c := NewCollectible()
		c.Points = propFloat(props, "points", c.Points)
		if tag := propString(props, "targetTag"); tag != "" {
			c.TargetTag = tag
		}
		if ref, err := engine.ParseActorRef(propString(props, "scoreboard")); err == nil {
			c.Scoreboard = ref
		} else {
			zap.L().Named("components").Warn("collectible scoreboard", zap.Error(err))
		}
		return c
	}, func(c engine.Component) map[string]any {
		col, ok := c.(*Collectible)
		if !ok {
			return nil
		}
		return map[string]any{
			"points":     col.Points,
			"targetTag":  col.TargetTag,
			"scoreboard": col.Scoreboard.String(),
		}
	})
	engine.RegisterComponent("Score", func(props map[string]any) engine.Component {
		return &Score{Total: propFloat(props, "total", 0)}
	}, func(c engine.Component) map[string]any {
		s, ok := c.(*Score)
		if !ok {
			return nil
		}
		return map[string]any{"total": s.Total}
	})
}

// Collectible removes its actor the first time an actor carrying TargetTag
// enters it. The actor needs a trigger PhysicalBody.
type Collectible struct {
	engine.BaseComponent
	Points     float32
	TargetTag  string
	Scoreboard engine.ActorRef // Optional actor with a Score component

	OnCollected engine.EventWithArg[*engine.Actor]

	collected bool
}

func NewCollectible() *Collectible {
	return &Collectible{Points: 10, TargetTag: "Player"}
}

func (c *Collectible) Start() {
	c.GetActor().Contacts.OnBeginOverlap.AddListener(c.onBeginOverlap)
}

func (c *Collectible) Collected() bool { return c.collected }

func (c *Collectible) onBeginOverlap(ev engine.OverlapEvent) {
	if c.collected || ev.OtherActor == nil || !ev.OtherActor.HasTag(c.TargetTag) {
		return
	}
	c.collected = true
	a := c.GetActor()
	if score := c.scoreboard(); score != nil {
		score.Total += c.Points
	}
	zap.L().Named("components").Debug("collected",
		zap.String("item", a.Name),
		zap.String("by", ev.OtherActor.Name),
		zap.Float32("points", c.Points))
	c.OnCollected.Invoke(ev.OtherActor)

	if a.Scene != nil && a.Scene.World != nil {
		a.Scene.World.Destroy(a)
	}
}

func (c *Collectible) scoreboard() *Score {
	board := c.Scoreboard.Get(c.GetActor().Scene)
	if board == nil {
		return nil
	}
	return engine.GetComponent[*Score](board)
}

// Score accumulates points from collectibles.
type Score struct {
	engine.BaseComponent
	Total float32
}
