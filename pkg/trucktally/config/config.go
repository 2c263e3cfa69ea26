// Package config holds the run configuration: unit-conversion constants,
// matcher tuning, and the curated alias and non-food term lists. Built-in
// defaults cover the curated data; a YAML file overrides them.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/foodsec/trucktally/pkg/trucktally/internalerr"
)

// Config is the full run configuration.
type Config struct {
	Weights Weights           `yaml:"weights"`
	Match   Match             `yaml:"match"`
	Renames map[string]string `yaml:"renames,omitempty"`
}

// Weights holds the unit-conversion constants.
type Weights struct {
	DefaultPalletKg   float64 `yaml:"default_pallet_kg"`
	TruckloadKg       float64 `yaml:"truckload_kg"`
	KgPerTon          float64 `yaml:"kg_per_ton"`
	PalletQuantityMax float64 `yaml:"pallet_quantity_max"`
}

// Match holds the matcher tuning and curated term lists. An alias with a
// null target marks the key as known non-food.
type Match struct {
	FuzzyCutoff float64            `yaml:"fuzzy_cutoff"`
	NonFood     []string           `yaml:"non_food"`
	Aliases     map[string]*string `yaml:"aliases"`
}

func strptr(s string) *string { return &s }

// Default returns the built-in configuration, including the curated
// non-food terms and alias corrections observed in the manifest data.
func Default() Config {
	return Config{
		Weights: Weights{
			DefaultPalletKg:   637.5,
			TruckloadKg:       14000,
			KgPerTon:          1000,
			PalletQuantityMax: 40,
		},
		Match: Match{
			FuzzyCutoff: 0.85,
			NonFood: []string{
				"mats", "tents", "blankets", "medicines", "tarpaulins",
				"clothes", "shoes", "hygiene kits", "jerry cans",
				"kitchen sets", "soap", "diapers", "mattresses",
				"medical supplies", "winter kits", "plastic sheets",
			},
			Aliases: map[string]*string{
				"lentis":       strptr("lentils"),
				"lentels":      strptr("lentils"),
				"vermicelli":   strptr("noodles"),
				"maccaroni":    strptr("pasta"),
				"weat flour":   strptr("wheat flour"),
				"canned meet":  strptr("canned meat"),
				"date bars":    strptr("date snacks"),
				"baby formula": strptr("infant formula"),
				// Known non-food cargo that is not in the non-food set.
				"school supplies":    nil,
				"water pipes":        nil,
				"generator":          nil,
				"cleaning materials": nil,
			},
		},
	}
}

// LoadFile reads a YAML file over the defaults. Missing file is an error;
// an empty path returns the defaults unchanged.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the tunables are usable.
func (c Config) Validate() error {
	if c.Match.FuzzyCutoff <= 0 || c.Match.FuzzyCutoff > 1 {
		return fmt.Errorf("%w: fuzzy_cutoff %v outside (0, 1]", internalerr.ErrInvalidConfig, c.Match.FuzzyCutoff)
	}
	if c.Weights.DefaultPalletKg <= 0 {
		return fmt.Errorf("%w: default_pallet_kg must be positive", internalerr.ErrInvalidConfig)
	}
	if c.Weights.TruckloadKg <= 0 {
		return fmt.Errorf("%w: truckload_kg must be positive", internalerr.ErrInvalidConfig)
	}
	if c.Weights.KgPerTon <= 0 {
		return fmt.Errorf("%w: kg_per_ton must be positive", internalerr.ErrInvalidConfig)
	}
	if c.Weights.PalletQuantityMax <= 0 {
		return fmt.Errorf("%w: pallet_quantity_max must be positive", internalerr.ErrInvalidConfig)
	}
	return nil
}
