// Command scmcc drives the SCM analysis pipeline from the command line:
// parse a header, disassemble the main segment and its missions, build the
// control-flow graph, and either report on it or emit native code for the
// main procedure against a caller-supplied import table. The CLI itself is
// intentionally thin; all the real work lives in internal/pipeline and
// internal/codegen.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scmcc/internal/cmddb"
	"scmcc/internal/codegen"
	"scmcc/internal/flow"
	"scmcc/internal/header"
	"scmcc/internal/pipeline"
	"scmcc/log"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "scmcc",
		Short: "SCM bytecode analyzer and native recompiler",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		versionFlag string
		debug       string
	)
	rootCmd.PersistentFlags().StringVar(&versionFlag, "version", "liberty", "header layout: liberty or miami")
	rootCmd.PersistentFlags().StringVar(&debug, "debug", "", "log level: trace, debug, info, warn, error")

	var analyzeCmd = &cobra.Command{
		Use:   "analyze [file]",
		Short: "Disassemble and build the control-flow graph for an SCM image",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			log.InitLogger(orDefault(debug, "info"))

			v, err := parseVersion(versionFlag)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			buf, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Printf("reading %s: %v\n", args[0], err)
				os.Exit(1)
			}

			res, err := pipeline.Analyze(buf, v, cmddb.Default())
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			fmt.Printf("models:      %d\n", len(res.Header.Models))
			fmt.Printf("main size:   %d bytes\n", res.Header.MainSize)
			fmt.Printf("missions:    %d\n", len(res.Missions))
			fmt.Printf("blocks:      %d\n", len(res.Blocks.Blocks))
			fmt.Printf("procedures:  %d\n", len(res.Blocks.Procs))
			fmt.Printf("statement trees: %d\n", len(res.Trees))

			if adv := res.Main.Advisories(); len(adv) > 0 {
				fmt.Printf("main segment advisories: %d\n", len(adv))
				for _, a := range adv {
					fmt.Printf("  %s\n", a)
				}
			}
		},
	}

	var (
		outPath string
		imports string
	)
	var compileCmd = &cobra.Command{
		Use:   "compile [file]",
		Short: "Emit native code for the main segment's procedures",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			log.InitLogger(orDefault(debug, "info"))

			v, err := parseVersion(versionFlag)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			buf, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Printf("reading %s: %v\n", args[0], err)
				os.Exit(1)
			}

			res, err := pipeline.Analyze(buf, v, cmddb.Default())
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			tbl, err := parseImports(imports)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			cg := codegen.New(cmddb.Default(), res.Main.GetData(), tbl)
			for _, proc := range res.Blocks.Procs {
				if !proc.Type.Has(flow.ProcMain) {
					continue
				}
				start := res.Blocks.Blocks[proc.Entry].Start.DataIndex
				if err := cg.Generate(start); err != nil {
					fmt.Printf("generating main procedure %d: %v\n", proc.ID, err)
					os.Exit(1)
				}
			}

			size, err := cg.Link()
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			out := make([]byte, size)
			if err := cg.Encode(out); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}

			if outPath == "" {
				outPath = args[0] + ".bin"
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				fmt.Printf("writing %s: %v\n", outPath, err)
				os.Exit(1)
			}

			fmt.Printf("wrote %d bytes of native code to %s\n", size, outPath)
			if adv := cg.Advisories(); len(adv) > 0 {
				fmt.Printf("codegen advisories: %d\n", len(adv))
			}
		},
	}
	compileCmd.Flags().StringVarP(&outPath, "out", "o", "", "output path for the generated code (default: <input>.bin)")
	compileCmd.Flags().StringVar(&imports, "imports", "", "comma-separated name=hexaddr pairs for host runtime functions")

	rootCmd.AddCommand(analyzeCmd, compileCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func parseVersion(s string) (header.Version, error) {
	switch strings.ToLower(s) {
	case "liberty", "":
		return header.Liberty, nil
	case "miami":
		return header.Miami, nil
	default:
		return 0, fmt.Errorf("unknown --version %q (want liberty or miami)", s)
	}
}

// parseImports parses "name=hexaddr,name=hexaddr" into the address table
// codegen.ResolveExtern consults.
func parseImports(s string) (map[string]uint32, error) {
	tbl := make(map[string]uint32)
	if s == "" {
		return tbl, nil
	}
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed --imports entry %q (want name=hexaddr)", pair)
		}
		addr, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed address in --imports entry %q: %w", pair, err)
		}
		tbl[parts[0]] = uint32(addr)
	}
	return tbl, nil
}
