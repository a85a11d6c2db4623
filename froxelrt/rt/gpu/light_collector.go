package gpu

import (
	"github.com/gekko3d/volumetric"
	"github.com/gekko3d/volumetric/froxelrt/rt/core"
)

// LightCollector gathers the active spot lights each frame and keeps the
// device-side SpotLight array sized to match.
type LightCollector struct {
	buffer *DynamicBuffer
	lights []core.SpotLight
	log    volumetric.Logger
}

func NewLightCollector(device Device, logger volumetric.Logger) *LightCollector {
	return &LightCollector{
		buffer: NewDynamicBuffer(device, "Spot Light Parameters", core.SpotLightSize),
		log:    volumetric.OrNop(logger),
	}
}

// Collect rebuilds the spot light records from registry and uploads them. A nil
// registry or a scene without spot lights yields an empty, valid buffer.
func (c *LightCollector) Collect(registry core.LightRegistry) ([]core.SpotLight, error) {
	c.lights = c.lights[:0]
	if registry != nil {
		for _, h := range registry.EnumerateActivePointLights() {
			if h == nil || h.Type() != core.LightTypeSpot {
				continue
			}
			c.lights = append(c.lights, core.SpotLightFromHandle(h))
		}
	}

	recreated, err := c.buffer.Sync(len(c.lights), core.MarshalSpotLights(c.lights))
	if err != nil {
		return nil, err
	}
	if recreated {
		c.log.Debugf("spot light buffer reallocated for %d lights", len(c.lights))
	}
	return c.lights, nil
}

func (c *LightCollector) Lights() []core.SpotLight {
	return c.lights
}

func (c *LightCollector) Count() int {
	return c.buffer.Count()
}

func (c *LightCollector) Buffer() Buffer {
	return c.buffer.Buffer()
}

func (c *LightCollector) Reallocations() int {
	return c.buffer.Reallocations()
}

func (c *LightCollector) Release() {
	c.buffer.Release()
	c.lights = nil
}
