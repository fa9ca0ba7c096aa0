package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dopesheet/application/services"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/infrastructure/di"
)

const defaultDemoScene = "configs/scenes/demo.yaml"

func newDemoCommand(opts *rootOptions) *cobra.Command {
	var dt float64
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted editing session on a scene and print the dope sheet",
		Example: `
dopesheetd demo
dopesheetd demo --scene my-scene.yaml --dt 12
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.scene == "" {
				opts.scene = defaultDemoScene
			}
			_, cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			cfg.Logging.Level = "error"

			container, cleanup, err := di.InitializeContainer(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			return runDemo(cmd.Context(), cmd.OutOrStdout(), container.DopeSheet, dt)
		},
	}
	cmd.Flags().Float64Var(&dt, "dt", 5, "frames the selection is moved by")
	return cmd
}

func runDemo(ctx context.Context, w io.Writer, ds *services.DopeSheet, dt float64) error {
	fmt.Fprintln(w, "== scene")
	printRows(w, ds)

	ds.SelectAll()
	ds.MoveSelectedKeysAndNodes(ctx, dt)
	fmt.Fprintf(w, "\n== move everything by %g\n", dt)
	printRows(w, ds)

	if reader := firstReader(ds); reader != nil {
		knobs := ds.Config().Knobs
		first := reader.Node().KnobByName(knobs.FirstFrame)
		last := reader.Node().KnobByName(knobs.LastFrame)
		if first != nil && last != nil {
			ds.TrimReaderLeft(ctx, reader, first.Value(0)+10)
			ds.TrimReaderRight(ctx, reader, last.Value(0)-10)
			fmt.Fprintf(w, "\n== trim %s by 10 frames on each side\n", reader.Label())
			printRows(w, ds)
		}
		if ds.CanSlipReader(reader) {
			ds.SlipReader(ctx, reader, -5)
			fmt.Fprintf(w, "\n== slip %s by -5\n", reader.Label())
			printRows(w, ds)
		}
	}

	ds.Undo(ctx)
	fmt.Fprintf(w, "\n== undo\n")
	printRows(w, ds)

	fmt.Fprintln(w, "\n== history")
	stack := ds.Stack()
	for i, name := range stack.Names() {
		marker := " "
		if i < stack.Index() {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, name)
	}
	return nil
}

func firstReader(ds *services.DopeSheet) *entities.NodeContext {
	for _, nc := range ds.NodeContexts() {
		if nc.ItemType() == valueobjects.ItemTypeReader {
			return nc
		}
	}
	return nil
}

func printRows(w io.Writer, ds *services.DopeSheet) {
	for _, row := range ds.Rows() {
		indent := strings.Repeat("  ", row.Depth)
		switch row.Kind {
		case services.RowKindNode:
			line := fmt.Sprintf("%s%s (%s)", indent, row.Node.Label(), row.Node.ItemType())
			if row.Node.IsRangeDrawingEnabled() {
				if r, ok := ds.Range(row.Node); ok {
					line += fmt.Sprintf(" [%g, %g)", r.Start, r.End)
				}
			}
			fmt.Fprintln(w, line)
		case services.RowKindKnob:
			times := make([]string, 0)
			for _, k := range row.Knob.KeyFrames() {
				times = append(times, fmt.Sprintf("%g", k.Time))
			}
			fmt.Fprintf(w, "%s%s: %s\n", indent, row.Knob.Knob().Name(), strings.Join(times, " "))
		}
	}
}
