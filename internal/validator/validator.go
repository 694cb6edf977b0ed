package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/syou6162/git-line-stage/internal/executor"
	"github.com/syou6162/git-line-stage/internal/stager"
	"github.com/syou6162/git-line-stage/internal/unstack"
)

// Validator handles dependency checks and argument validation for
// git-line-stage. It ensures that required external commands are
// available and that arguments are valid before any mutation is
// attempted.
type Validator struct {
	executor executor.CommandExecutor
}

// NewValidator creates a new Validator instance with the provided command executor.
func NewValidator(exec executor.CommandExecutor) *Validator {
	return &Validator{
		executor: exec,
	}
}

// CheckDependencies checks if required external commands (git) are available.
// Returns an error if any dependency is missing.
func (v *Validator) CheckDependencies(ctx context.Context) error {
	if _, err := v.executor.Execute(ctx, "git", "--version"); err != nil {
		return errors.New("git command not found")
	}

	return nil
}

// ValidateApplyArgs validates the apply subcommand arguments. The change
// numbers are parsed with the same rules the stager uses, so a malformed
// token fails here, before any backend call.
func (v *Validator) ValidateApplyArgs(path, numbers string) ([]int, error) {
	if path == "" {
		return nil, errors.New("path cannot be empty")
	}
	if numbers == "" {
		return nil, errors.New("change numbers cannot be empty")
	}

	parsed, err := stager.ParseChangeNumbers(numbers)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, errors.New("no change numbers given")
	}
	return parsed, nil
}

// ValidateListArgs validates the list subcommand arguments
func (v *Validator) ValidateListArgs(pageSizeFiles, pageSizeBytes, unified int) error {
	if pageSizeFiles <= 0 {
		return fmt.Errorf("page size files must be positive: %d", pageSizeFiles)
	}
	if pageSizeBytes <= 0 {
		return fmt.Errorf("page size bytes must be positive: %d", pageSizeBytes)
	}
	if unified < 0 {
		return fmt.Errorf("unified context width cannot be negative: %d", unified)
	}
	return nil
}

// ValidateBranchSpecs validates an unstack request
func (v *Validator) ValidateBranchSpecs(specs []unstack.BranchSpec, defaultParent string) error {
	return unstack.ValidateSpecs(specs, defaultParent)
}
