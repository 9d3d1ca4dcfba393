// Package config loads diagram settings from TOML files.
//
// A config file only needs the keys it changes; everything else keeps the
// defaults from [Default]:
//
//	cell_size = 120
//	grid_cells = 12
//	show_internal_attributes = true
//
//	[collection]
//	hmargin = 12
//	vmargin = 8
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/gps"
	"github.com/matzehuels/memviz/pkg/scene"
)

var validate = validator.New()

// Margins are the horizontal and vertical padding of a framed shape.
type Margins struct {
	H float64 `toml:"hmargin" json:"hmargin" validate:"gte=0"`
	V float64 `toml:"vmargin" json:"vmargin" validate:"gte=0"`
}

// Config holds every recognized setting.
type Config struct {
	CellSize     float64 `toml:"cell_size" json:"cell_size" validate:"gt=0"`
	GridCells    int     `toml:"grid_cells" json:"grid_cells" validate:"min=2,max=512"`
	CornerRadius float64 `toml:"corner_radius" json:"corner_radius" validate:"gte=0"`
	ValuePadding float64 `toml:"value_padding" json:"value_padding" validate:"gte=0"`

	Collection Margins `toml:"collection" json:"collection"`
	Container  Margins `toml:"container" json:"container"`

	ShowInternalAttributes bool     `toml:"show_internal_attributes" json:"show_internal_attributes"`
	PrimitiveEra           bool     `toml:"primitive_era" json:"primitive_era"`
	Blacklist              []string `toml:"blacklist" json:"blacklist,omitempty" validate:"omitempty,dive,required"`

	// FixedFrames lists frames whose binding order --reorder may not change.
	FixedFrames []string `toml:"fixed_frames" json:"fixed_frames,omitempty" validate:"omitempty,dive,oneof=globals locals"`

	// Format is the default output format for the CLI.
	Format string `toml:"format" json:"format,omitempty" validate:"omitempty,oneof=json svg png dot graphviz"`
}

// Default returns the stock configuration.
func Default() Config {
	so := scene.DefaultOptions()
	lo := gps.DefaultOptions()
	return Config{
		CellSize:     so.CellSize,
		GridCells:    lo.GridCells,
		CornerRadius: so.CornerRadius,
		ValuePadding: so.ValuePadding,
		Collection:   Margins{H: so.CollectionHMargin, V: so.CollectionVMargin},
		Container:    Margins{H: so.ContainerHMargin, V: so.ContainerVMargin},
		PrimitiveEra: so.PrimitiveEra,
		Format:       "svg",
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse decodes TOML over the defaults and validates the result. Unknown
// keys are rejected so typos do not silently fall back to defaults.
func Parse(data string) (Config, error) {
	c := Default()
	md, err := toml.Decode(data, &c)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks field ranges and the combinations the builder and layout
// engine require.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if err := c.SceneOptions().Validate(); err != nil {
		return err
	}
	return c.LayoutOptions().Validate()
}

// SceneOptions converts the config for the scene builder.
func (c Config) SceneOptions() scene.Options {
	return scene.Options{
		CellSize:          c.CellSize,
		CollectionHMargin: c.Collection.H,
		CollectionVMargin: c.Collection.V,
		ContainerHMargin:  c.Container.H,
		ContainerVMargin:  c.Container.V,
		CornerRadius:      c.CornerRadius,
		ValuePadding:      c.ValuePadding,
		ShowInternal:      c.ShowInternalAttributes,
		PrimitiveEra:      c.PrimitiveEra,
		Blacklist:         c.Blacklist,
		FixedFrames:       c.FixedFrames,
	}
}

// LayoutOptions converts the config for the layout engine.
func (c Config) LayoutOptions() gps.Options {
	return gps.Options{CellSize: c.CellSize, GridCells: c.GridCells}
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
	}
	e := verrs[0]
	switch e.Tag() {
	case "oneof":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: must be one of [%s], got %v", e.Namespace(), e.Param(), e.Value())
	case "required":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: must not be empty", e.Namespace())
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "%s: failed %s=%s, got %v", e.Namespace(), e.Tag(), e.Param(), e.Value())
	}
}
