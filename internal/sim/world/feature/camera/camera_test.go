package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"rovercraft.ai/internal/sim/world/feature/rover"
	"rovercraft.ai/internal/sim/world/terrain/noise"
	"rovercraft.ai/internal/sim/world/terrain/store"
)

const step = 1.0 / 60

func flatStore(t *testing.T) *store.Store {
	t.Helper()
	field, err := noise.NewField(noise.DefaultParams(), noise.Flat(0))
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	s, err := store.New(store.DefaultConfig(), field, 1)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	s.EnsureResident(0, 0, 32, 128)
	return s
}

func TestCameraRestsBehindRover(t *testing.T) {
	rv := rover.NewState(mgl64.Vec3{0, 0, 0}, rover.DefaultConfig())
	rig, err := NewRig(DefaultConfig(), flatStore(t), &rv)
	if err != nil {
		t.Fatalf("NewRig: %v", err)
	}
	rig.Simulate(step)
	st := rig.State()
	if !st.Position.ApproxEqualThreshold(mgl64.Vec3{0, 2, 7}, 1e-9) {
		t.Fatalf("position=%v want (0,2,7)", st.Position)
	}
	if st.FocalPoint != rv.Position {
		t.Fatalf("focal point=%v", st.FocalPoint)
	}

	rv.Position = mgl64.Vec3{0, 0, -10}
	for i := 0; i < 400; i++ {
		rig.Simulate(step)
	}
	st = rig.State()
	if !st.Position.ApproxEqualThreshold(mgl64.Vec3{0, 2, -3}, 1e-3) {
		t.Fatalf("position=%v want near (0,2,-3)", st.Position)
	}
	view := rig.View()
	eye := view.Mul4x1(mgl64.Vec4{st.FocalPoint[0], st.FocalPoint[1], st.FocalPoint[2], 1})
	if eye[2] >= 0 {
		t.Fatalf("rover not in front of the camera: %v", eye)
	}
}

func TestCameraNeverBelowMinHeight(t *testing.T) {
	rv := rover.NewState(mgl64.Vec3{0, 0, 0}, rover.DefaultConfig())
	rv.Velocity = mgl64.Vec3{0, 0, -0.44}
	rig, _ := NewRig(DefaultConfig(), flatStore(t), &rv)
	rig.Simulate(step)
	if y := rig.State().Position[1]; math.Abs(y-0.5) > 1e-12 {
		t.Fatalf("y=%v want min height 0.5", y)
	}
}

func TestCameraTiltsWhileTurning(t *testing.T) {
	rv := rover.NewState(mgl64.Vec3{0, 0, 0}, rover.DefaultConfig())
	rv.Velocity = mgl64.Vec3{0, 0, -0.2}
	rig, _ := NewRig(DefaultConfig(), flatStore(t), &rv)
	rig.Simulate(step)
	rv.Turning = 1
	for i := 0; i < 10; i++ {
		rig.Simulate(step)
	}
	up := rig.State().Up
	if up[0] >= 0 {
		t.Fatalf("up=%v should lean away from the turn", up)
	}
	if math.Abs(up.Len()-1) > 1e-9 {
		t.Fatalf("up not unit: %v", up)
	}
}
