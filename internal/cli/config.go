package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/pipeline"
)

// fileConfig is the layout of config.toml:
//
//	[convert]
//	scale = 1.0
//	format = "xml"
//	compressor = "zlib"
//	endian = "little-endian"
//	resolution = 8
type fileConfig struct {
	Convert convertConfig `toml:"convert"`
}

// convertConfig holds defaults for convert flags. Nil fields are unset.
type convertConfig struct {
	Scale        *float64 `toml:"scale"`
	NoError      *bool    `toml:"no_error"`
	Absolute     *bool    `toml:"absolute"`
	Resolution   *int     `toml:"resolution"`
	Unstructured *bool    `toml:"unstructured"`
	Output       *string  `toml:"output"`
	Format       *string  `toml:"format"`
	ASCII        *bool    `toml:"ascii"`
	Endian       *string  `toml:"endian"`
	Compressor   *string  `toml:"compressor"`
	Combine      *bool    `toml:"combine"`
	Jobs         *int     `toml:"jobs"`
}

// loadConfig reads the config file at path. An empty path means the default
// location, which may be absent; an explicit path must exist.
func loadConfig(path string) (*fileConfig, error) {
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return &fileConfig{}, nil
		}
		path = filepath.Join(dir, configFile)
	}

	var cfg fileConfig
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return &cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeConfiguration,
			"config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// apply copies every set field into opts unless the matching flag was given
// on the command line.
func (c convertConfig) apply(opts *pipeline.Options, changed func(flag string) bool) {
	set(&opts.Scale, c.Scale, !changed("scale"))
	set(&opts.ExcludeErrors, c.NoError, !changed("no-error"))
	set(&opts.Absolute, c.Absolute, !changed("absolute"))
	set(&opts.Resolution, c.Resolution, !changed("resolution"))
	set(&opts.Unstructured, c.Unstructured, !changed("unstructured"))
	set(&opts.Output, c.Output, !changed("output"))
	set(&opts.Format, c.Format, !changed("format"))
	set(&opts.ASCII, c.ASCII, !changed("ascii"))
	set(&opts.ByteOrder, c.Endian, !changed("endian"))
	set(&opts.Compressor, c.Compressor, !changed("compressor"))
	set(&opts.Combine, c.Combine, !changed("combine"))
	set(&opts.Workers, c.Jobs, !changed("jobs"))
}

func set[T any](dst, v *T, ok bool) {
	if v != nil && ok {
		*dst = *v
	}
}
