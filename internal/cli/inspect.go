package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mesh2vtk/pkg/dispatch"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
	"github.com/matzehuels/mesh2vtk/pkg/meshio"
	"github.com/matzehuels/mesh2vtk/pkg/observability"
)

// inspectCommand creates the inspect command for listing the meshes of a document.
func (c *CLI) inspectCommand() *cobra.Command {
	var detail bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Summarize the mesh tallies of a document",
		Long: `Summarize every mesh tally of a document: geometry, voxel shape,
energy and time groups, and whether it can be converted.

Use the listed ids with 'mesh2vtk convert'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), cmd.OutOrStdout(), args[0], detail)
		},
	}

	cmd.Flags().BoolVar(&detail, "detail", false, "print group bounds of every mesh")

	return cmd
}

func runInspect(ctx context.Context, out io.Writer, path string, detail bool) error {
	hooks := observability.Source()
	start := time.Now()
	hooks.OnReadStart(ctx, path)
	meshes, err := meshio.List(path)
	hooks.OnReadComplete(ctx, path, len(meshes), time.Since(start), err)
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("Read document", "path", path, "meshes", len(meshes))

	fmt.Fprintln(out, meshTable(meshes))
	for _, m := range meshes {
		if err := dispatch.CheckFormat(m); err != nil {
			printWarning(out, "mesh %d is not convertible: %v", m.ID, err)
		}
		if m.Geometry == mesh.Cylindrical && !m.FullRevolution() {
			printWarning(out, "mesh %d: theta bins do not span a full revolution", m.ID)
		}
	}

	if detail {
		for _, m := range meshes {
			printNewline(out)
			printMesh(out, m)
		}
	}
	return nil
}

// meshTable renders one row per mesh.
func meshTable(meshes []*mesh.Mesh) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	idStyle := cellStyle.Foreground(colorCyan)

	rows := make([][]string, len(meshes))
	for i, m := range meshes {
		ni, nj, nk := m.Shape()
		cuv := "-"
		if m.CUV != nil {
			cuv = strconv.Itoa(m.CUV.Len())
		}
		rows[i] = []string{
			strconv.FormatUint(uint64(m.ID), 10),
			m.Geometry.String(),
			m.Format.String(),
			fmt.Sprintf("%d x %d x %d", ni, nj, nk),
			strconv.Itoa(m.Energy.Len()),
			strconv.Itoa(m.Time.Len()),
			cuv,
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Geometry", "Format", "Voxels", "Energy", "Time", "CUV").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return idStyle
			default:
				return cellStyle
			}
		}).
		String()
}

func printMesh(out io.Writer, m *mesh.Mesh) {
	printTitle(out, "Mesh %d", m.ID)
	printKeyValue(out, "Voxels", StyleNumber.Render(strconv.Itoa(m.VoxelCount())))
	printKeyValue(out, "Energy", m.Energy.String())
	printKeyValue(out, "Time", m.Time.String())
	printKeyValue(out, "Results", fmt.Sprintf("%d groups", len(m.Groups)))
	if m.Geometry == mesh.Cylindrical {
		printKeyValue(out, "Origin", fmt.Sprintf("%g %g %g", m.Origin.X, m.Origin.Y, m.Origin.Z))
	}
}
