package volumetric

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gekko3d/volumetric/froxelrt/rt/core"
	"github.com/gekko3d/volumetric/froxelrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

type LightPreset struct {
	Position  mgl32.Vec3     `json:"position"`
	Direction mgl32.Vec3     `json:"direction"`
	Light     LightComponent `json:"light"`
}

// Settings configures the froxel renderer. Empty program paths select the
// embedded WGSL.
type Settings struct {
	Grid               core.GridDescriptor `json:"grid"`
	Media              core.Media          `json:"media"`
	ShadowBias         float32             `json:"shadow_bias"`
	ComputeProgramPath string              `json:"compute_program,omitempty"`
	BlendProgramPath   string              `json:"blend_program,omitempty"`
	Debug              bool                `json:"debug"`
	LogPrefix          string              `json:"log_prefix"`
	Lights             []LightPreset       `json:"lights,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		Grid:       core.DefaultGrid(),
		Media:      core.DefaultMedia(),
		ShadowBias: 0.002,
		LogPrefix:  "froxel",
	}
}

// LoadSettings reads a JSON settings file. Fields missing from the file keep
// their defaults.
func LoadSettings(filename string) (Settings, error) {
	s := DefaultSettings()
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(bytes, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", filename, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

func (s Settings) Save(filename string) error {
	bytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bytes, 0644)
}

func (s Settings) Validate() error {
	if err := s.Grid.Validate(); err != nil {
		return err
	}
	if s.Media.Scattering < 0 || s.Media.Absorption < 0 {
		return fmt.Errorf("media coefficients must be non-negative, got scattering %g absorption %g",
			s.Media.Scattering, s.Media.Absorption)
	}
	if s.Media.Anisotropy <= -1 || s.Media.Anisotropy >= 1 {
		return fmt.Errorf("anisotropy %g outside (-1, 1)", s.Media.Anisotropy)
	}
	if s.ShadowBias < 0 {
		return fmt.Errorf("negative shadow bias %g", s.ShadowBias)
	}
	return nil
}

func (s Settings) ComputeSource() (string, error) {
	return readProgram(s.ComputeProgramPath, shaders.FroxelWGSL)
}

func (s Settings) BlendSource() (string, error) {
	return readProgram(s.BlendProgramPath, shaders.BlendVolumetricWGSL)
}

func readProgram(path, builtin string) (string, error) {
	if path == "" {
		return builtin, nil
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read program: %w", err)
	}
	return string(bytes), nil
}

// NewLogger builds the default logger described by s.
func (s Settings) NewLogger() Logger {
	return NewDefaultLogger(s.LogPrefix, s.Debug)
}

// PopulateScene registers every light preset in lights.
func (s Settings) PopulateScene(lights *SceneLights) []LightId {
	ids := make([]LightId, 0, len(s.Lights))
	for _, p := range s.Lights {
		ids = append(ids, lights.AddPreset(p))
	}
	return ids
}
