package evaluation

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// WinScore marks a proven win. Evaluate never returns a value this large.
const WinScore = 100000

var ErrInvalidParams = errors.New("invalid evaluation params")

// Params are the tunable weights of the evaluation formula. Files written
// by the parameter tuner are flat JSON objects with these keys.
type Params struct {
	MaterialWeight  float64 `yaml:"material_weight" json:"material_weight" mapstructure:"material_weight" validate:"gte=0"`
	GuardianAdvance float64 `yaml:"guardian_advance" json:"guardian_advance" mapstructure:"guardian_advance" validate:"gte=0"`
	GuardianSafety  float64 `yaml:"guardian_safety" json:"guardian_safety" mapstructure:"guardian_safety" validate:"gte=0"`
	CenterControl   float64 `yaml:"center_control" json:"center_control" mapstructure:"center_control" validate:"gte=0"`
	TowerHeight     float64 `yaml:"tower_height" json:"tower_height" mapstructure:"tower_height" validate:"gte=0"`
	Aggression      float64 `yaml:"aggression" json:"aggression" mapstructure:"aggression" validate:"gte=0"`
	Mobility        float64 `yaml:"mobility" json:"mobility" mapstructure:"mobility" validate:"gte=0"`
	Positioning     float64 `yaml:"positioning" json:"positioning" mapstructure:"positioning" validate:"gte=0"`
	Tempo           float64 `yaml:"tempo" json:"tempo" mapstructure:"tempo" validate:"gte=0"`
	WinBonus        float64 `yaml:"win_bonus" json:"win_bonus" mapstructure:"win_bonus" validate:"gt=0,lt=100000"`
}

var paramsValidate *validator.Validate

func init() {
	paramsValidate = validator.New()
}

func DefaultParams() *Params {
	return &Params{
		MaterialWeight:  80,
		GuardianAdvance: 40,
		GuardianSafety:  200,
		CenterControl:   25,
		TowerHeight:     20,
		Aggression:      50,
		Mobility:        10,
		Positioning:     10,
		Tempo:           20,
		WinBonus:        10000,
	}
}

func (p *Params) Validate() error {
	if err := paramsValidate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// Named is a weight with its key, for display.
type Named struct {
	Name  string
	Value float64
}

// List returns the weights in a fixed order.
func (p *Params) List() []Named {
	return []Named{
		{"material_weight", p.MaterialWeight},
		{"guardian_advance", p.GuardianAdvance},
		{"guardian_safety", p.GuardianSafety},
		{"center_control", p.CenterControl},
		{"tower_height", p.TowerHeight},
		{"aggression", p.Aggression},
		{"mobility", p.Mobility},
		{"positioning", p.Positioning},
		{"tempo", p.Tempo},
		{"win_bonus", p.WinBonus},
	}
}

// Deviation is how far one weight moved from its default, in percent.
type Deviation struct {
	Name    string
	Default float64
	Value   float64
	Percent float64
}

// Deviations lists weights that differ from the defaults, biggest relative
// change first.
func (p *Params) Deviations() []Deviation {
	defs := DefaultParams().List()
	var devs []Deviation
	for i, n := range p.List() {
		d := defs[i].Value
		if n.Value == d {
			continue
		}
		pct := 100.0
		if d != 0 {
			pct = (n.Value - d) / d * 100
		}
		devs = append(devs, Deviation{Name: n.Name, Default: d, Value: n.Value, Percent: pct})
	}
	sort.SliceStable(devs, func(i, j int) bool {
		return abs(devs[i].Percent) > abs(devs[j].Percent)
	})
	return devs
}

const (
	majorChangePercent = 50
	majorChangeCount   = 3
)

// MajorDeviations are the few biggest changes from the defaults, counting
// only weights moved by more than half their default value.
func (p *Params) MajorDeviations() []Deviation {
	var major []Deviation
	for _, d := range p.Deviations() {
		if abs(d.Percent) <= majorChangePercent {
			break
		}
		major = append(major, d)
		if len(major) == majorChangeCount {
			break
		}
	}
	return major
}

// LoadParams reads a YAML or JSON weights file. Keys missing from the file
// keep their default values.
func LoadParams(path string) (*Params, error) {
	bts, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := DefaultParams()
	if err := yaml.Unmarshal(bts, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Msg("loaded-params")
	return p, nil
}

// LoadParamsOrDefault is LoadParams, falling back to the defaults if the
// file can't be used. An empty path means defaults.
func LoadParamsOrDefault(path string) *Params {
	if path == "" {
		return DefaultParams()
	}
	p, err := LoadParams(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("using-default-params")
		return DefaultParams()
	}
	return p
}

func SaveParams(p *Params, path string) error {
	bts, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bts, 0o644)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
