package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/syou6162/git-line-stage/internal/executor"
	"github.com/syou6162/git-line-stage/internal/git"
	"github.com/syou6162/git-line-stage/internal/stager"
	"github.com/syou6162/git-line-stage/internal/unstack"
	"github.com/syou6162/git-line-stage/internal/validator"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nLine-level git staging and commit unstacking.\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  list      List changed files with numbered changes\n")
	fmt.Fprintf(os.Stderr, "  diff      Show the full numbered diff for one file\n")
	fmt.Fprintf(os.Stderr, "  apply     Stage selected change numbers for one file\n")
	fmt.Fprintf(os.Stderr, "  unstack   Replay commit sets onto a parent as new branches\n")
	fmt.Fprintf(os.Stderr, "  organize  Show recent commits and all changes for commit planning\n")
	fmt.Fprintf(os.Stderr, "\nExample:\n")
	fmt.Fprintf(os.Stderr, "  %s apply -path scripts/run-db-seeder.sh -numbers 0001,0004,0010-0015\n", os.Args[0])
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	ctx := context.Background()
	exec := executor.NewRealCommandExecutor()
	v := validator.NewValidator(exec)
	if err := v.CheckDependencies(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Dependency check failed: %v\n", err)
		return 1
	}

	backend, err := git.NewCLIBackend(exec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	switch args[0] {
	case "list":
		return runList(ctx, backend, v, args[1:])
	case "diff":
		return runDiff(ctx, backend, args[1:])
	case "apply":
		return runApply(ctx, backend, v, args[1:])
	case "unstack":
		return runUnstack(ctx, backend, v, args[1:])
	case "organize":
		return runOrganize(ctx, backend)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		usage()
		return 2
	}
}

func runList(ctx context.Context, backend git.Backend, v *validator.Validator, args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	paths := fs.String("paths", "", "Comma-separated paths to include (default: all)")
	pageToken := fs.String("page-token", "", "Opaque paging token from a previous page")
	pageSizeFiles := fs.Int("page-size-files", stager.PageSizeFilesDefault, "Max files per page")
	pageSizeBytes := fs.Int("page-size-bytes", stager.PageSizeBytesDefault, "Max bytes per page")
	unified := fs.Int("unified", stager.UnifiedListDefault, "Context lines around changes")
	fs.Parse(args)

	if err := v.ValidateListArgs(*pageSizeFiles, *pageSizeBytes, *unified); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	result, err := stager.NewStager(backend).ListChanges(ctx, splitPaths(*paths), *pageToken, *pageSizeFiles, *pageSizeBytes, *unified)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(result)
}

func runDiff(ctx context.Context, backend git.Backend, args []string) int {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	path := fs.String("path", "", "File path to show")
	unified := fs.Int("unified", stager.UnifiedListDefault, "Context lines around changes")
	fs.Parse(args)

	if *path == "" {
		fmt.Fprintln(os.Stderr, "Error: -path is required")
		return 2
	}

	result, err := stager.NewStager(backend).DiffFile(ctx, *path, *unified)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(result)
}

func runApply(ctx context.Context, backend git.Backend, v *validator.Validator, args []string) int {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	path := fs.String("path", "", "File path to apply changes to")
	numbers := fs.String("numbers", "", "Change numbers, e.g. 0001,0004,0010-0015")
	fs.Parse(args)

	parsed, err := v.ValidateApplyArgs(*path, *numbers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	result, err := stager.NewStager(backend).ApplyChanges(ctx, *path, parsed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(result)
}

// unstackRequest is the JSON shape of the -spec file
type unstackRequest struct {
	Parent   string              `json:"parent,omitempty"`
	Branches []unstack.BranchSpec `json:"branches"`
}

func runUnstack(ctx context.Context, backend git.Backend, v *validator.Validator, args []string) int {
	fs := flag.NewFlagSet("unstack", flag.ExitOnError)
	specFile := fs.String("spec", "", "Path to a JSON branch specification file")
	parent := fs.String("parent", "", "Default parent revision for branches without one")
	fs.Parse(args)

	if *specFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -spec is required")
		return 2
	}
	payload, err := os.ReadFile(*specFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read spec file: %v\n", err)
		return 2
	}
	var req unstackRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid spec file: %v\n", err)
		return 2
	}
	defaultParent := req.Parent
	if *parent != "" {
		defaultParent = *parent
	}

	if err := v.ValidateBranchSpecs(req.Branches, defaultParent); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	results := unstack.NewAnalyzer(backend).Run(ctx, req.Branches, defaultParent)
	return printJSON(results)
}

func runOrganize(ctx context.Context, backend git.Backend) int {
	result, err := stager.NewStager(backend).Organize(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return printJSON(result)
}

func splitPaths(paths string) []string {
	if paths == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(paths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v interface{}) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to encode result: %v\n", err)
		return 1
	}
	return 0
}
