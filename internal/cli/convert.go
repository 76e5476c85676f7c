package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
	"github.com/matzehuels/mesh2vtk/pkg/meshio"
	"github.com/matzehuels/mesh2vtk/pkg/observability"
	"github.com/matzehuels/mesh2vtk/pkg/pipeline"
	"github.com/matzehuels/mesh2vtk/pkg/vtk"
)

// convertCommand creates the convert command, the main entry point of the tool.
func (c *CLI) convertCommand() *cobra.Command {
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "convert [file] [id]",
		Short: "Convert a mesh tally into VTK datasets",
		Long: `Convert one mesh tally of a document into VTK datasets.

One dataset is written per selected (energy, time) group. Energy and time
filters take group indices, or values with --absolute, and the keyword
"total" selects the Total group. With --combine all groups are written as
separate arrays of a single dataset.

Cylindrical meshes are tessellated into hexahedra; --resolution subdivides
every theta bin to smooth the curved faces.

Output files are named <output>_<id>[_e<E>][_t<T>] with an extension chosen
by the format: .vtr/.vtu for XML and .vtk for legacy.`,
		Example: `  mesh2vtk convert meshtal.json 104
  mesh2vtk convert meshtal.yaml 14 -e 0,total --resolution 8
  mesh2vtk convert meshtal.json 104 -a -e 1.0,20.0 -s 6.24e12 -o out/dose`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMeshID(args[1])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			cfg.Convert.apply(&opts, cmd.Flags().Changed)
			if opts.Resolution < 1 {
				return errors.New(errors.ErrCodeConfiguration,
					"resolution must be at least 1, got %d", opts.Resolution)
			}
			return c.runConvert(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], id, opts)
		},
	}

	// Selection flags
	cmd.Flags().StringSliceVarP(&opts.Energy, "energy", "e", nil, "energy groups to convert: indices, values with --absolute, or total")
	cmd.Flags().StringSliceVarP(&opts.Time, "time", "t", nil, "time groups to convert: indices, values with --absolute, or total")
	cmd.Flags().BoolVarP(&opts.Absolute, "absolute", "a", false, "treat --energy and --time as group values instead of indices")
	cmd.Flags().BoolVar(&opts.Total, "total", false, "only convert the Total energy and time groups")
	cmd.MarkFlagsMutuallyExclusive("total", "energy")
	cmd.MarkFlagsMutuallyExclusive("total", "time")

	// Data flags
	cmd.Flags().Float64VarP(&opts.Scale, "scale", "s", opts.Scale, "multiply every value by this factor")
	cmd.Flags().BoolVar(&opts.ExcludeErrors, "no-error", false, "do not write relative error arrays")

	// Geometry flags
	cmd.Flags().IntVar(&opts.Resolution, "resolution", opts.Resolution, "angular subdivisions per theta bin (cylindrical)")
	cmd.Flags().BoolVar(&opts.Unstructured, "unstructured", false, "write rectangular meshes as unstructured grids")

	// Output flags
	cmd.Flags().StringVarP(&opts.Output, "output", "o", opts.Output, "output base name, optionally with a directory")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", opts.Format, "output format: xml (default), legacy-ascii, legacy-binary")
	cmd.Flags().BoolVar(&opts.ASCII, "ascii", false, "write XML data arrays as ascii instead of binary")
	cmd.Flags().StringVar(&opts.ByteOrder, "endian", opts.ByteOrder, "byte order of XML binary data: big-endian (default), little-endian")
	cmd.Flags().StringVar(&opts.Compressor, "compressor", opts.Compressor, "XML binary compressor: lzma (default), lz4, zlib, none")
	cmd.Flags().BoolVar(&opts.Combine, "combine", false, "write all groups into a single dataset")
	cmd.Flags().IntVarP(&opts.Workers, "jobs", "j", 0, "datasets assembled in parallel (default: number of CPUs)")

	_ = cmd.RegisterFlagCompletionFunc("format", fixedCompletion(vtk.FormatXML, vtk.FormatLegacyASCII, vtk.FormatLegacyBinary))
	_ = cmd.RegisterFlagCompletionFunc("endian", fixedCompletion("big-endian", "little-endian"))
	_ = cmd.RegisterFlagCompletionFunc("compressor", fixedCompletion("lzma", "lz4", "zlib", "none"))

	return cmd
}

// runConvert reads the target mesh and runs the pipeline on it.
// A spinner is drawn on errOut while the pipeline runs, unless errOut is not
// a terminal or debug logging is on.
func (c *CLI) runConvert(ctx context.Context, out, errOut io.Writer, path string, id uint32, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)
	logger.Debug("Using config", "path", configPathForDisplay(c.configPath))

	m, err := readTarget(ctx, path, id)
	if err != nil {
		return err
	}
	logger.Debug("Loaded mesh", "id", m.ID, "geometry", m.Geometry, "format", m.Format, "voxels", m.VoxelCount())

	prog := newProgress(logger)
	opts.Logger = logger

	var spinner *Spinner
	if isTerminal(errOut) && logger.GetLevel() > LogDebug {
		spinner = newSpinnerWithContext(ctx, errOut, fmt.Sprintf("Converting mesh %d...", m.ID))
		spinner.Start()
	}
	result, err := c.newRunner(logger).Execute(ctx, m, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	prog.done(fmt.Sprintf("Converted mesh %d", m.ID))

	printSuccess(out, "Converted mesh %d", m.ID)
	for _, f := range result.Files {
		printFile(out, f)
	}
	printStats(out,
		fmt.Sprintf("%d datasets", result.Stats.Datasets),
		fmt.Sprintf("%d cells", result.Stats.Cells),
		fmt.Sprintf("%d points", result.Stats.Points),
		result.Encoding.String())
	if m.Geometry == mesh.Cylindrical && !m.FullRevolution() {
		printWarning(out, "theta bins do not span a full revolution")
	}
	return nil
}

// readTarget loads one mesh and reports the read to the source hooks.
func readTarget(ctx context.Context, path string, id uint32) (*mesh.Mesh, error) {
	hooks := observability.Source()
	start := time.Now()
	hooks.OnReadStart(ctx, path)
	m, err := meshio.ReadTarget(path, id)
	n := 0
	if m != nil {
		n = 1
	}
	hooks.OnReadComplete(ctx, path, n, time.Since(start), err)
	return m, err
}

func parseMeshID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid mesh id %q: must be a non-negative integer", s)
	}
	return uint32(id), nil
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
