// Package config handles ohmu.toml runtime configuration: the tunables
// that control buffer sizing and diagnostics without touching code.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/yazici/ohmu/pkg/bitstream"
	"github.com/yazici/ohmu/pkg/codec"
)

// Profile is a named set of codec runtime tunables. The atom size
// itself is not one of them: it is a wire-format constant
// (bitstream.MaxAtomSize), and a profile that changed it would produce
// streams no other build could read.
type Profile struct {
	// BufferMultiplier is passed to bitstream.WithBufferMultiplier.
	BufferMultiplier int `toml:"buffer-multiplier"`

	// Debug turns on verbose diagnostic logging in pkg/diag.
	Debug bool `toml:"debug"`

	// Dir is the directory containing the loaded ohmu.toml (set at load
	// time, not read from the file).
	Dir string `toml:"-"`
}

// Default returns the profile the codec uses when no ohmu.toml is
// present: bitstream's own defaults, diagnostics off.
func Default() *Profile {
	return &Profile{
		BufferMultiplier: bitstream.DefaultBufferMultiplier,
		Debug:            false,
	}
}

// Load parses an ohmu.toml file from dir.
func Load(dir string) (*Profile, error) {
	path := filepath.Join(dir, "ohmu.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	p := Default()
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	p.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if p.BufferMultiplier < 2 {
		return nil, fmt.Errorf("%s: buffer-multiplier must be at least 2, got %d", path, p.BufferMultiplier)
	}

	return p, nil
}

// FindAndLoad walks up from startDir looking for an ohmu.toml file. It
// returns the default profile, not an error, if none is found.
func FindAndLoad(startDir string) (*Profile, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "ohmu.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// CodecOptions returns the codec.Option set implied by p, ready to pass
// to codec.NewWriter or codec.NewReader.
func (p *Profile) CodecOptions() []codec.Option {
	return []codec.Option{codec.WithBufferMultiplier(p.BufferMultiplier)}
}
