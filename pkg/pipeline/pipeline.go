// Package pipeline provides the core conversion pipeline for mesh2vtk.
//
// This package implements the complete select → scale → geometry → assemble →
// write pipeline that the CLI (and any other caller) uses.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Select: Resolve energy/time filters into (energy, time) pairs
//  2. Geometry: Build the rectilinear grid or hexahedral tessellation
//  3. Assemble: Attach scaled, replicated results to the shared geometry
//  4. Write: Name the outputs and hand each frame to a writer
//
// Options are validated in full before the first stage runs, so a bad scale
// factor or output encoding never costs a geometry build.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Energy = []string{"1.0", "20.0"}
//	opts.Absolute = true
//	result, err := runner.Execute(ctx, m, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Files)
package pipeline

import (
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mesh2vtk/pkg/dispatch"
	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/geometry"
	"github.com/matzehuels/mesh2vtk/pkg/scaler"
	"github.com/matzehuels/mesh2vtk/pkg/selector"
	"github.com/matzehuels/mesh2vtk/pkg/vtk"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and library callers
// =============================================================================

const (
	// DefaultScale leaves results unchanged.
	DefaultScale = scaler.Default

	// DefaultResolution performs no angular subdivision.
	DefaultResolution = geometry.DefaultResolution

	// DefaultOutput is the output base name.
	DefaultOutput = dispatch.DefaultOutput

	// DefaultFormat is binary XML.
	DefaultFormat = vtk.FormatXML

	// DefaultByteOrder is big-endian, the order every VTK reader accepts.
	DefaultByteOrder = "big-endian"

	// DefaultCompressor gives the smallest files.
	DefaultCompressor = "lzma"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one conversion.
type Options struct {
	// Selection options
	Energy   []string `json:"energy,omitempty"`
	Time     []string `json:"time,omitempty"`
	Absolute bool     `json:"absolute,omitempty"` // Treat filters as values instead of indices
	Total    bool     `json:"total,omitempty"`    // Only the Total energy and time groups

	// Data options
	Scale         float64 `json:"scale"`
	ExcludeErrors bool    `json:"exclude_errors,omitempty"`

	// Geometry options
	Resolution   int  `json:"resolution,omitempty"`
	Unstructured bool `json:"unstructured,omitempty"`

	// Output options
	Output     string `json:"output,omitempty"`
	Format     string `json:"format,omitempty"`
	ASCII      bool   `json:"ascii,omitempty"`
	ByteOrder  string `json:"byte_order,omitempty"`
	Compressor string `json:"compressor,omitempty"`
	Combine    bool   `json:"combine,omitempty"`

	// Workers bounds parallel dataset assembly (default: GOMAXPROCS).
	Workers int `json:"workers,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// resolved by ValidateAndSetDefaults
	scaler    scaler.Scaler
	validated bool
}

// DefaultOptions returns options that convert every group with no scaling.
func DefaultOptions() Options {
	return Options{
		Scale:      DefaultScale,
		Resolution: DefaultResolution,
		Output:     DefaultOutput,
		Format:     DefaultFormat,
		ByteOrder:  DefaultByteOrder,
		Compressor: DefaultCompressor,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Pairs is the resolved selection in output order.
	Pairs []selector.Pair

	// Files lists the written paths in order.
	Files []string

	// Encoding is the encoding every file was written with.
	Encoding vtk.Encoding

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Voxels       int
	Cells        int
	Points       int
	Datasets     int
	SelectTime   time.Duration
	GeometryTime time.Duration
	AssembleTime time.Duration
	WriteTime    time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every option and applies defaults for the
// full pipeline. The scale factor is checked first. This method is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForData(); err != nil {
		return err
	}
	if err := o.ValidateForSelect(); err != nil {
		return err
	}
	if err := o.ValidateForGeometry(); err != nil {
		return err
	}
	if err := o.ValidateForOutput(); err != nil {
		return err
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateForData checks the scale factor. Unlike the other options a zero
// scale is an error rather than a request for the default.
func (o *Options) ValidateForData() error {
	s, err := scaler.New(o.Scale)
	if err != nil {
		return err
	}
	o.scaler = s
	return nil
}

// ValidateForSelect checks that the filters are consistent.
func (o *Options) ValidateForSelect() error {
	if o.Total && (len(o.Energy) > 0 || len(o.Time) > 0) {
		return errors.New(errors.ErrCodeConfiguration, "total cannot be combined with energy or time filters")
	}
	return nil
}

// ValidateForGeometry sets the resolution default and checks it.
func (o *Options) ValidateForGeometry() error {
	if o.Resolution == 0 {
		o.Resolution = DefaultResolution
	}
	if o.Resolution < 1 {
		return errors.New(errors.ErrCodeConfiguration, "resolution must be at least 1, got %d", o.Resolution)
	}
	return nil
}

// ValidateForOutput sets output defaults and checks the encoding and name.
func (o *Options) ValidateForOutput() error {
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.ByteOrder == "" {
		o.ByteOrder = DefaultByteOrder
	}
	if o.Compressor == "" {
		o.Compressor = DefaultCompressor
	}
	if _, err := o.DispatchOptions().Encoding(); err != nil {
		return err
	}
	return errors.ValidateOutputName(o.Output)
}

// Filters returns the energy and time filters the options describe.
func (o *Options) Filters() (ef, tf selector.Filter) {
	if o.Total {
		return selector.TotalOnly(), selector.TotalOnly()
	}
	return selector.FromTokens(o.Energy, o.Absolute), selector.FromTokens(o.Time, o.Absolute)
}

// GeometryOptions returns the geometry builder options.
func (o *Options) GeometryOptions() geometry.Options {
	return geometry.Options{Resolution: o.Resolution, Unstructured: o.Unstructured}
}

// DispatchOptions returns the output dispatcher options.
func (o *Options) DispatchOptions() dispatch.Options {
	return dispatch.Options{
		Output:     o.Output,
		Format:     o.Format,
		ASCII:      o.ASCII,
		ByteOrder:  o.ByteOrder,
		Compressor: o.Compressor,
		Combine:    o.Combine,
	}
}

// Scaler returns the validated scaler. It is the identity before
// ValidateAndSetDefaults succeeds.
func (o *Options) Scaler() scaler.Scaler {
	return o.scaler
}
