package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"jumble.dev/pkg/jumble/internal/adapter"
	m "jumble.dev/pkg/jumble/internal/model"
)

// ErrAncestorUnresolved is returned when the ancestor itself has no metadata.
var ErrAncestorUnresolved = errors.New("ancestor class cannot be resolved")

// ErrCyclicHierarchy is returned when a superclass chain loops.
var ErrCyclicHierarchy = errors.New("cyclic class hierarchy")

// AncestryResolver filters class names by a common ancestor.
type AncestryResolver interface {
	// FilterByAncestor returns the candidates derived from ancestor. The
	// ancestor is never part of the result. Candidates that cannot be
	// resolved are left out.
	FilterByAncestor(ctx context.Context, candidates m.ClassNameSet, ancestor m.ClassName) (m.ClassNameSet, error)
	// Classify returns one verdict per candidate, sorted by class name.
	Classify(ctx context.Context, candidates m.ClassNameSet, ancestor m.ClassName) ([]m.AncestryResult, error)
	// Check reports whether a derives from b. A non-nil error means the
	// answer could not be determined.
	Check(ctx context.Context, a, b m.ClassMetadata) (bool, error)
	// IsDerivedFrom is Check with undetermined answers reported as false.
	IsDerivedFrom(ctx context.Context, a, b m.ClassMetadata) bool
}

type ancestryResolver struct {
	provider adapter.ClassMetadataProvider
	diag     *slog.Logger
}

// NewAncestryResolver creates a resolver that looks classes up through
// provider. Resolution noise goes to diag; a nil diag discards it.
func NewAncestryResolver(provider adapter.ClassMetadataProvider, diag *slog.Logger) AncestryResolver {
	return &ancestryResolver{
		provider: provider,
		diag:     orDiscard(diag),
	}
}

func (r *ancestryResolver) FilterByAncestor(ctx context.Context, candidates m.ClassNameSet, ancestor m.ClassName) (m.ClassNameSet, error) {
	results, err := r.Classify(ctx, candidates, ancestor)
	if err != nil {
		return nil, err
	}

	derived := make(m.ClassNameSet)

	for _, result := range results {
		if result.Verdict == m.Derived {
			derived.Add(result.Class)
		}
	}

	derived.Remove(ancestor)

	return derived, nil
}

func (r *ancestryResolver) Classify(ctx context.Context, candidates m.ClassNameSet, ancestor m.ClassName) ([]m.AncestryResult, error) {
	ancestorMeta, err := r.provider.Lookup(ctx, ancestor)
	if err != nil {
		slog.Error("Failed to resolve ancestor", "ancestor", ancestor, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrAncestorUnresolved, ancestor, err)
	}

	results := make([]m.AncestryResult, 0, len(candidates))

	for _, name := range candidates.Sorted() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results = append(results, r.classifyOne(ctx, name, ancestorMeta))
	}

	slog.Debug("Classified candidates", "ancestor", ancestor, "count", len(results))

	return results, nil
}

func (r *ancestryResolver) classifyOne(ctx context.Context, name m.ClassName, ancestor m.ClassMetadata) m.AncestryResult {
	meta, err := r.provider.Lookup(ctx, name)
	if err != nil {
		r.diag.DebugContext(ctx, "cannot resolve candidate", "class", name, "error", err)
		return m.AncestryResult{Class: name, Verdict: m.Undetermined, Err: err}
	}

	derived, err := r.Check(ctx, meta, ancestor)
	if err != nil {
		r.diag.DebugContext(ctx, "cannot check ancestry", "class", name, "ancestor", ancestor.Name, "error", err)
		return m.AncestryResult{Class: name, Verdict: m.Undetermined, Err: err}
	}

	if derived {
		return m.AncestryResult{Class: name, Verdict: m.Derived}
	}

	return m.AncestryResult{Class: name, Verdict: m.NotDerived}
}

func (r *ancestryResolver) IsDerivedFrom(ctx context.Context, a, b m.ClassMetadata) bool {
	derived, err := r.Check(ctx, a, b)
	if err != nil {
		r.diag.DebugContext(ctx, "checking ancestry failed", "class", a.Name, "ancestor", b.Name, "error", err)
		return false
	}

	return derived
}

func (r *ancestryResolver) Check(ctx context.Context, a, b m.ClassMetadata) (bool, error) {
	if a.Name == b.Name {
		return true, nil
	}

	if !b.IsInterface {
		return r.extendsClass(ctx, a, b.Name)
	}

	interfaces, err := r.allInterfaces(ctx, a)
	if err != nil {
		return false, err
	}

	for _, name := range interfaces {
		if name == b.Name {
			return true, nil
		}
	}

	return false, nil
}

// extendsClass walks the superclass chain of c, nearest first, and stops at
// ancestor. Links above ancestor are never looked up, so only the part of the
// chain below it has to resolve.
func (r *ancestryResolver) extendsClass(ctx context.Context, c m.ClassMetadata, ancestor m.ClassName) (bool, error) {
	seen := map[m.ClassName]bool{c.Name: true}

	for current := c; current.HasSuper(); {
		if current.SuperName == ancestor {
			return true, nil
		}

		next, err := r.provider.Lookup(ctx, current.SuperName)
		if err != nil {
			return false, fmt.Errorf("superclass of %s: %w", current.Name, err)
		}

		if seen[next.Name] {
			return false, fmt.Errorf("%w: %s", ErrCyclicHierarchy, next.Name)
		}

		seen[next.Name] = true
		current = next
	}

	return false, nil
}

// allInterfaces returns every interface c implements, directly or through
// its superclasses and superinterfaces. Every visited type must resolve.
func (r *ancestryResolver) allInterfaces(ctx context.Context, c m.ClassMetadata) ([]m.ClassName, error) {
	var interfaces []m.ClassName

	queue := []m.ClassMetadata{c}
	seen := map[m.ClassName]bool{c.Name: true}

	enqueue := func(from m.ClassName, name m.ClassName) error {
		if seen[name] {
			return nil
		}

		seen[name] = true

		meta, err := r.provider.Lookup(ctx, name)
		if err != nil {
			return fmt.Errorf("ancestor %s of %s: %w", name, from, err)
		}

		queue = append(queue, meta)

		return nil
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.IsInterface {
			interfaces = append(interfaces, current.Name)
		} else if current.HasSuper() {
			if err := enqueue(current.Name, current.SuperName); err != nil {
				return nil, err
			}
		}

		for _, iface := range current.Interfaces {
			if err := enqueue(current.Name, iface); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(interfaces, func(i, j int) bool {
		return interfaces[i] < interfaces[j]
	})

	return interfaces, nil
}
