package rover

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/logic/mathx"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

// Terrain is the surface the rover drives on.
type Terrain interface {
	EnsureResident(refX, refZ, near, far float64)
	Sample(x, z float64) (store.HeightSample, bool)
}

// Contact describes what happened to the rover during one Simulate call.
type Contact struct {
	Collisions int
	Landed     bool
	TookOff    bool
	Miss       bool
}

type Physics struct {
	cfg     Config
	terrain Terrain
	state   *State
}

func NewPhysics(cfg Config, terrain Terrain, state *State) (*Physics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if terrain == nil {
		return nil, errors.New("rover: nil terrain")
	}
	if state == nil {
		return nil, errors.New("rover: nil state")
	}
	if !(state.Mass > 0) {
		return nil, fmt.Errorf("rover: mass must be > 0, got %v", state.Mass)
	}
	return &Physics{cfg: cfg, terrain: terrain, state: state}, nil
}

func (p *Physics) State() *State  { return p.state }
func (p *Physics) Config() Config { return p.cfg }

// Simulate advances the rover by dt seconds. Constants are per nominal tick;
// dt = 1/TickRateHz applies each of them exactly once.
func (p *Physics) Simulate(dt float64, in Input) Contact {
	var c Contact
	ticks := dt * p.cfg.TickRateHz
	if !(ticks > 0) || math.IsInf(ticks, 0) {
		return c
	}
	st := p.state
	cfg := p.cfg
	wasGrounded := st.Grounded()

	p.terrain.EnsureResident(st.Position[0], st.Position[2], cfg.NearRadius, cfg.FarRadius)

	if in.Boost {
		st.BoostRemaining -= cfg.BoostDrain * ticks
	} else {
		st.BoostRemaining += cfg.BoostRecharge * ticks
	}
	st.BoostRemaining = mathx.Clamp(st.BoostRemaining, 0, cfg.MaxBoost)
	st.Boost = in.Boost && st.BoostRemaining > 0
	st.Turning = 0

	force := mgl64.Vec3{0, cfg.Gravity, 0}
	if st.SurfaceNormal != nil {
		force = force.Add(st.SurfaceNormal.Mul(-cfg.Gravity))
	}

	facing := mathx.SafeNormalize(st.Facing())
	idle := !in.Directional()
	// Direction of the thrust applied this tick; zero while coasting.
	var thrustDir mgl64.Vec3
	if !idle {
		speed := cfg.RotationSpeed
		if st.Boost {
			speed *= cfg.BoostRotationMultiplier
		} else {
			speed *= 1 - st.Velocity.Len()/cfg.MaxVelocity*cfg.VelocityRotationMultiplier
		}
		theta := (axis(in.Left) - axis(in.Right)) * speed * ticks
		if theta != 0 {
			st.Rotation = st.Rotation.Mul(mgl64.QuatRotate(theta, mathx.Up)).Normalize()
			if theta > 0 {
				st.Turning = 1
			} else {
				st.Turning = -1
			}
		}
		if st.SurfaceNormal != nil {
			thrust := cfg.MovementForce
			if st.Boost {
				thrust *= cfg.BoostForceMultiplier
			}
			thrustDir = facing.Mul(axis(in.Forward) - axis(in.Back))
			force = force.Add(thrustDir.Mul(thrust))
		}
	}
	st.Tilt += mathx.Ease(cfg.TiltRate, ticks) * (float64(-st.Turning) - st.Tilt)

	st.Velocity = st.Velocity.Add(force.Mul(ticks / st.Mass))

	if st.SurfaceNormal != nil {
		st.Velocity = st.Velocity.Mul(math.Pow(1-p.friction(thrustDir), ticks))
	}

	maxVelocity := cfg.MaxVelocity
	if st.Boost {
		maxVelocity = cfg.MaxBoostVelocity
	}
	if l := st.Velocity.Len(); l > maxVelocity {
		st.Velocity = st.Velocity.Mul(maxVelocity / l)
	}
	if idle && st.Velocity.Len() < cfg.MinVelocity {
		st.Velocity = mgl64.Vec3{}
	}

	st.Position = st.Position.Add(st.Velocity.Mul(ticks))

	hs, ok := p.terrain.Sample(st.Position[0], st.Position[2])
	if ok {
		c.Collisions = p.collide(hs.Chunk)
		if c.Collisions > 0 {
			hs, ok = p.terrain.Sample(st.Position[0], st.Position[2])
		}
	}
	if ok && st.Position[1] <= hs.Height {
		st.Position[1] = hs.Height
		target := mathx.SurfaceBasis(hs.Binormal, hs.Tangent, hs.Normal)
		st.SurfaceRotation = mathx.Slerp(st.SurfaceRotation, target, mathx.Ease(cfg.SurfaceBlend, ticks))
		n := hs.Normal
		st.SurfaceNormal = &n
	} else {
		st.SurfaceNormal = nil
	}
	c.Miss = !ok
	c.Landed = !wasGrounded && st.Grounded()
	c.TookOff = wasGrounded && !st.Grounded()
	return c
}

// collide pushes the rover out of any obstacle of ch it has entered and
// reflects its velocity along the contact normal.
func (p *Physics) collide(ch *store.Chunk) int {
	if ch == nil {
		return 0
	}
	st := p.state
	hits := 0
	for _, o := range ch.Obstacles {
		if st.Position.Sub(o.Position).Len() >= o.Radius {
			continue
		}
		hits++
		n := mathx.SafeNormalize(st.Position.Sub(o.Position))
		if n == (mgl64.Vec3{}) {
			n = mathx.Up
		}
		st.Position = o.Position.Add(n.Mul(o.Radius))
		st.Velocity = n.Mul(st.Velocity.Len() * p.cfg.ImpactElasticity)
	}
	return hits
}

func axis(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// friction is the per-tick ground friction factor: zero along the thrust and
// 2*GroundFriction against it or while coasting.
func (p *Physics) friction(thrustDir mgl64.Vec3) float64 {
	if thrustDir == (mgl64.Vec3{}) {
		return 2 * p.cfg.GroundFriction
	}
	return (1 - thrustDir.Dot(mathx.SafeNormalize(p.state.Velocity))) * p.cfg.GroundFriction
}
