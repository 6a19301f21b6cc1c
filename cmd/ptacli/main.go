// Command ptacli is a thin harness around the pta analysis library: it
// loads a YAML-described VM image (see yamlvm.go), runs Analyse, and
// prints a summary report. It is not part of the analysis core — a real
// deployment would swap yamlVMImage for an actual bytecode loader.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jitana-go/pta"
)

var (
	vmPath     string
	entryFlag  uint32
	entrySet   bool
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ptacli",
		Short: "Run the points-to analysis against a YAML-described VM image",
	}
	root.AddCommand(newAnalyseCmd())
	return root
}

func newAnalyseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyse",
		Short: "Build and solve the points-to graph for one entry method",
		RunE:  runAnalyse,
	}
	cmd.Flags().StringVar(&vmPath, "vm", "", "path to the YAML VM description (required)")
	cmd.Flags().Uint32Var(&entryFlag, "entry", 0, "entry method handle, overrides the file's entry")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug-level solver/translator logging")
	_ = cmd.MarkFlagRequired("vm")
	return cmd
}

func runAnalyse(cmd *cobra.Command, args []string) error {
	entrySet = cmd.Flags().Changed("entry")

	doc, err := loadYAMLDoc(vmPath)
	if err != nil {
		return err
	}
	vm, err := doc.VM.build()
	if err != nil {
		return fmt.Errorf("building VM image: %w", err)
	}

	entry := pta.MethodHdl(doc.Entry)
	if entrySet {
		entry = pta.MethodHdl(entryFlag)
	}

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	entryLog := logrus.NewEntry(log)

	cfg := pta.Config{
		OnTheFlyCallGraph: doc.Config.OnTheFlyCallGraph,
		ProgressPeriod:    doc.Config.ProgressPeriod,
	}

	res, err := pta.Analyse(context.Background(), vm, entry, cfg, entryLog)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	stats := res.Stats()
	fmt.Printf("vertices=%d edges=%d iterations=%d\n", stats.Vertices, stats.Edges, stats.Iterations)
	for _, d := range res.Diagnostics() {
		fmt.Printf("diagnostic: %s: %s\n", d.Insn, d.Message)
	}
	return nil
}
