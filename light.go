package volumetric

import (
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type LightId string

// LightComponent describes one scene light. Angles are full cone angles in degrees.
type LightComponent struct {
	Type           core.LightType `json:"type"`
	Color          [3]float32     `json:"color"` // RGB
	Intensity      float32        `json:"intensity"`
	Range          float32        `json:"range"`            // For point/spot
	ConeAngle      float32        `json:"cone_angle"`       // Spot outer cone
	InnerConeAngle float32        `json:"inner_cone_angle"` // Spot full-intensity cone
	Enabled        bool           `json:"enabled"`
}

// SceneLight is a registered light and its transform. It satisfies core.LightHandle.
type SceneLight struct {
	Id        LightId
	Light     LightComponent
	Transform core.Transform
}

func (l *SceneLight) Type() core.LightType    { return l.Light.Type }
func (l *SceneLight) Position() mgl32.Vec3    { return l.Transform.Position }
func (l *SceneLight) Forward() mgl32.Vec3     { return l.Transform.Forward() }
func (l *SceneLight) Range() float32          { return l.Light.Range }
func (l *SceneLight) Color() [3]float32       { return l.Light.Color }
func (l *SceneLight) Intensity() float32      { return l.Light.Intensity }
func (l *SceneLight) SpotAngle() float32      { return l.Light.ConeAngle }
func (l *SceneLight) InnerSpotAngle() float32 { return l.Light.InnerConeAngle }

// SceneLights is the light registry the froxel renderer queries each frame.
// Enumeration follows insertion order.
type SceneLights struct {
	lights map[LightId]*SceneLight
	order  []LightId
}

func NewSceneLights() *SceneLights {
	return &SceneLights{lights: make(map[LightId]*SceneLight)}
}

func (s *SceneLights) Add(light LightComponent, transform core.Transform) LightId {
	id := LightId(uuid.NewString())
	s.lights[id] = &SceneLight{Id: id, Light: light, Transform: transform}
	s.order = append(s.order, id)
	return id
}

// AddSpot registers an enabled spot light at pos aimed along dir.
func (s *SceneLights) AddSpot(pos, dir mgl32.Vec3, color [3]float32, intensity, rng, coneAngle, innerConeAngle float32) LightId {
	t := core.NewTransform()
	t.Position = pos
	t.LookTowards(dir)
	return s.Add(LightComponent{
		Type:           core.LightTypeSpot,
		Color:          color,
		Intensity:      intensity,
		Range:          rng,
		ConeAngle:      coneAngle,
		InnerConeAngle: innerConeAngle,
		Enabled:        true,
	}, *t)
}

func (s *SceneLights) AddPreset(p LightPreset) LightId {
	t := core.NewTransform()
	t.Position = p.Position
	t.LookTowards(p.Direction)
	return s.Add(p.Light, *t)
}

func (s *SceneLights) Remove(id LightId) bool {
	if _, ok := s.lights[id]; !ok {
		return false
	}
	delete(s.lights, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *SceneLights) Get(id LightId) (*SceneLight, bool) {
	l, ok := s.lights[id]
	return l, ok
}

func (s *SceneLights) SetEnabled(id LightId, enabled bool) bool {
	l, ok := s.lights[id]
	if ok {
		l.Light.Enabled = enabled
	}
	return ok
}

func (s *SceneLights) Len() int {
	return len(s.order)
}

// EnumerateActivePointLights returns the enabled point and spot lights.
func (s *SceneLights) EnumerateActivePointLights() []core.LightHandle {
	out := make([]core.LightHandle, 0, len(s.order))
	for _, id := range s.order {
		l := s.lights[id]
		if !l.Light.Enabled {
			continue
		}
		if l.Light.Type != core.LightTypePoint && l.Light.Type != core.LightTypeSpot {
			continue
		}
		out = append(out, l)
	}
	return out
}
