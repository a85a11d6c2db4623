package gpu

// Kernel entry points of the froxel compute program and the blend program.
const (
	KernelLightInjection  = "light_injection"
	KernelLightScattering = "light_scattering"
	BlendVertexEntry      = "vs_main"
	BlendFragmentEntry    = "fs_main"
)

// Binding names shared by the recorder and the device backends.
const (
	BindingParams                = "params"
	BindingLightInjectionVolume  = "light_injection_volume"
	BindingLightScatteringVolume = "light_scattering_volume"
	BindingSpotLights            = "spot_lights"
	BindingShadowMatrices        = "shadow_matrices"
	BindingShadowTexture         = "shadow_texture"
	BindingSourceColor           = "source_color"
	BindingSceneDepth            = "scene_depth"
	BindingBlendOutput           = "blend_output"
)

type bindingKind int

const (
	bindUniform bindingKind = iota
	bindStorageVolume
	bindReadOnlyStorage
	bindTexture2D
	bindDepthTexture2D
	bindTexture3D
	bindColorAttachment
)

type bindingSlot struct {
	Name string
	Slot uint32
	Kind bindingKind
}

// kernelBindings is the group(0) layout of each entry point, matching the WGSL.
var kernelBindings = map[string][]bindingSlot{
	KernelLightInjection: {
		{BindingParams, 0, bindUniform},
		{BindingLightInjectionVolume, 1, bindStorageVolume},
		{BindingSpotLights, 2, bindReadOnlyStorage},
		{BindingShadowMatrices, 3, bindReadOnlyStorage},
		{BindingShadowTexture, 4, bindDepthTexture2D},
	},
	KernelLightScattering: {
		{BindingParams, 0, bindUniform},
		{BindingLightInjectionVolume, 5, bindTexture3D},
		{BindingLightScatteringVolume, 6, bindStorageVolume},
	},
	BlendFragmentEntry: {
		{BindingParams, 0, bindUniform},
		{BindingSourceColor, 1, bindTexture2D},
		{BindingLightScatteringVolume, 2, bindTexture3D},
		{BindingSceneDepth, 3, bindDepthTexture2D},
		{BindingBlendOutput, 0, bindColorAttachment},
	},
}
