package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"jumble.dev/pkg/jumble/internal/adapter"
	"jumble.dev/pkg/jumble/internal/controller"
	m "jumble.dev/pkg/jumble/internal/model"
)

// ListArgs contains the arguments for class discovery.
type ListArgs struct {
	SearchPath m.SearchPath
	// Packages restricts discovery. Empty means all packages; an empty
	// string element selects the default package.
	Packages []string
	// Parallel bounds how many package scans run at once.
	Parallel int
	// Diagnostics receives non-fatal scan and resolution notices. Nil
	// discards them.
	Diagnostics *slog.Logger
}

// DerivedArgs contains the arguments for listing derived classes.
type DerivedArgs struct {
	ListArgs
	Ancestor m.ClassName
	// BootPath is searched after SearchPath when resolving superclasses
	// and interfaces. It does not contribute candidates.
	BootPath         m.SearchPath
	ShowUndetermined bool
}

// Workflow ties discovery, ancestry filtering and display together.
type Workflow interface {
	Discover(ctx context.Context, args ListArgs) (m.ClassNameSet, error)
	ListClasses(ctx context.Context, args ListArgs) error
	ListDerived(ctx context.Context, args DerivedArgs) error
}

type workflow struct {
	adapter.ClasspathFSAdapter
	controller.UI
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(fsAdapter adapter.ClasspathFSAdapter, ui controller.UI) Workflow {
	return &workflow{
		ClasspathFSAdapter: fsAdapter,
		UI:                 ui,
	}
}

// Discover scans the search path once per requested package. Scans run
// concurrently, each into its own set, and are unioned afterwards.
func (w *workflow) Discover(ctx context.Context, args ListArgs) (m.ClassNameSet, error) {
	scanner := NewPathScanner(w.ClasspathFSAdapter, args.Diagnostics)

	if len(args.Packages) == 0 {
		return scanner.Discover(ctx, args.SearchPath, m.AllPackages())
	}

	results := make([]m.ClassNameSet, len(args.Packages))

	group, gctx := errgroup.WithContext(ctx)
	if args.Parallel > 0 {
		group.SetLimit(args.Parallel)
	}

	for i, pkg := range args.Packages {
		group.Go(func() error {
			found, err := scanner.Discover(gctx, args.SearchPath, m.InPackage(pkg))
			if err != nil {
				return fmt.Errorf("package %s: %w", m.InPackage(pkg), err)
			}

			results[i] = found

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	classes := make(m.ClassNameSet)
	for _, found := range results {
		classes.AddAll(found)
	}

	return classes, nil
}

func (w *workflow) ListClasses(ctx context.Context, args ListArgs) error {
	classes, err := w.Discover(ctx, args)
	if err != nil {
		slog.Error("Failed to discover classes", "error", err)
		return fmt.Errorf("discover classes: %w", err)
	}

	slog.Info("Discovered classes", "count", classes.Len(), "entries", len(args.SearchPath))

	if err := w.DisplayClasses(ctx, classes); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

func (w *workflow) ListDerived(ctx context.Context, args DerivedArgs) (err error) {
	if args.Ancestor == "" {
		return errors.New("ancestor class name is required")
	}

	candidates, err := w.Discover(ctx, args.ListArgs)
	if err != nil {
		slog.Error("Failed to discover classes", "error", err)
		return fmt.Errorf("discover classes: %w", err)
	}

	repo := adapter.NewClasspathRepository(ctx, w.ClasspathFSAdapter, args.SearchPath.Concat(args.BootPath))

	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close class repository", "error", closeErr)

			if err == nil {
				err = fmt.Errorf("close repository: %w", closeErr)
			}
		}
	}()

	resolver := NewAncestryResolver(repo, args.Diagnostics)

	results, err := resolver.Classify(ctx, candidates, args.Ancestor)
	if err != nil {
		return fmt.Errorf("filter by ancestor: %w", err)
	}

	results = withoutClass(results, args.Ancestor)

	slog.Info("Resolved derived classes", "ancestor", args.Ancestor, "candidates", candidates.Len())

	if err := w.DisplayDerived(ctx, args.Ancestor, results, args.ShowUndetermined); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

func withoutClass(results []m.AncestryResult, name m.ClassName) []m.AncestryResult {
	out := results[:0]

	for _, r := range results {
		if r.Class != name {
			out = append(out, r)
		}
	}

	return out
}
