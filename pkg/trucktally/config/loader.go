package config

import (
	"fmt"

	"github.com/foodsec/trucktally/pkg/trucktally/match"
	"github.com/foodsec/trucktally/pkg/trucktally/normalize"
	"github.com/foodsec/trucktally/pkg/trucktally/reference"
	"github.com/foodsec/trucktally/pkg/trucktally/resolve"
)

// Loader loads the configuration file and constructs pipeline components.
type Loader struct {
	ConfigPath string // optional; defaults apply when empty
}

// Components holds the constructed pipeline stages.
type Components struct {
	Config     Config
	Normalizer *normalize.Normalizer
	Matcher    *match.Matcher
	Resolver   *resolve.Resolver
}

// Load reads the configuration and assembles components around the given
// reference table.
func (l *Loader) Load(ref *reference.Table) (*Components, error) {
	cfg, err := LoadFile(l.ConfigPath)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, fmt.Errorf("config loader: nil reference table")
	}

	return &Components{
		Config: cfg,
		Normalizer: normalize.New(normalize.Options{
			Renames:           cfg.Renames,
			PalletQuantityMax: cfg.Weights.PalletQuantityMax,
		}),
		Matcher: match.New(match.Options{
			Reference:   ref,
			NonFood:     cfg.Match.NonFood,
			Aliases:     cfg.Match.Aliases,
			FuzzyCutoff: cfg.Match.FuzzyCutoff,
		}),
		Resolver: resolve.New(resolve.Weights{
			DefaultPalletKg: cfg.Weights.DefaultPalletKg,
			TruckloadKg:     cfg.Weights.TruckloadKg,
			KgPerTon:        cfg.Weights.KgPerTon,
		}, ref),
	}, nil
}
