package annotate

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/infofrac/internal/vcf"
)

// Annotator runs a set of InfoAnnotators over variant sites.
type Annotator struct {
	annotators []InfoAnnotator
	keys       []string
	workers    int
	strict     bool
	logger     *zap.Logger
}

// NewAnnotator creates an annotator running the given InfoAnnotators in order.
// Two annotators producing the same INFO key is an error.
func NewAnnotator(annotators ...InfoAnnotator) (*Annotator, error) {
	seen := make(map[string]string)
	var keys []string
	for _, ia := range annotators {
		for _, k := range ia.Keys() {
			if owner, dup := seen[k]; dup {
				return nil, fmt.Errorf("INFO key %s produced by both %s and %s", k, owner, ia.Name())
			}
			seen[k] = ia.Name()
			keys = append(keys, k)
		}
	}

	return &Annotator{
		annotators: annotators,
		keys:       keys,
		logger:     zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for warning and info messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// SetWorkers sets the number of annotation workers. Zero or less means
// runtime.NumCPU().
func (a *Annotator) SetWorkers(n int) {
	a.workers = n
}

// SetStrict configures whether a failed site aborts AnnotateAll. When false,
// the failure is logged and the site is written without the failed values.
func (a *Annotator) SetStrict(strict bool) {
	a.strict = strict
}

// Annotators returns the registered InfoAnnotators.
func (a *Annotator) Annotators() []InfoAnnotator {
	return a.annotators
}

// Keys returns every INFO key produced, in registration order.
func (a *Annotator) Keys() []string {
	return a.keys
}

// HeaderLines returns the ##INFO lines of all registered annotators.
func (a *Annotator) HeaderLines() []string {
	var lines []string
	for _, ia := range a.annotators {
		lines = append(lines, ia.HeaderLines()...)
	}
	return lines
}

// Annotate runs every annotator on v. The returned site always holds the
// values of the annotators that succeeded; failures are joined into err.
func (a *Annotator) Annotate(v *vcf.Variant) (*SiteAnnotation, error) {
	site := &SiteAnnotation{
		Variant: v,
		Values:  make(map[string]float64, len(a.keys)),
	}

	var errs []error
	for _, ia := range a.annotators {
		vals, err := ia.Annotate(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ia.Name(), err))
			continue
		}
		for k, val := range vals {
			site.Values[k] = val
		}
	}

	return site, errors.Join(errs...)
}

// AnnotateAll annotates every site from parser and writes them in input order.
func (a *Annotator) AnnotateAll(ctx context.Context, parser vcf.VariantParser, writer SiteWriter) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := a.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make(chan WorkItem, 2*workers)
	var parseErr error
	var stats Stats

	go func() {
		defer close(items)
		seq := 0
		for {
			v, err := parser.Next()
			if err != nil {
				parseErr = fmt.Errorf("read variant: %w", err)
				return
			}
			if v == nil {
				return
			}

			select {
			case items <- WorkItem{Seq: seq, Variant: v}:
				seq++
			case <-ctx.Done():
				return
			}
		}
	}()

	results := a.ParallelAnnotate(ctx, items, workers)

	if err := OrderedCollect(ctx, results, func(r WorkResult) error {
		stats.SitesRead++
		if r.Err != nil {
			stats.SitesFailed++
			if a.strict {
				cancel()
				return fmt.Errorf("annotate %s:%d: %w", r.Variant.Chrom, r.Variant.Pos, r.Err)
			}
			a.logger.Warn("failed to annotate site",
				zap.String("chrom", r.Variant.Chrom),
				zap.Int64("pos", r.Variant.Pos),
				zap.Error(r.Err))
		} else {
			stats.SitesAnnotated++
		}
		if err := writer.Write(r.Site); err != nil {
			cancel()
			return fmt.Errorf("write site: %w", err)
		}
		return nil
	}); err != nil {
		return stats, err
	}

	if parseErr != nil {
		return stats, parseErr
	}
	// Only the caller's context can be done here; cancel has not run yet.
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if stats.SitesRead == 0 {
		a.logger.Info("0 sites processed")
	} else {
		a.logger.Info("annotation complete",
			zap.Int("sites", stats.SitesRead),
			zap.Int("annotated", stats.SitesAnnotated),
			zap.Int("failed", stats.SitesFailed))
	}

	return stats, writer.Flush()
}

// SiteWriter defines the interface for writing annotated sites.
type SiteWriter interface {
	WriteHeader() error
	Write(site *SiteAnnotation) error
	Flush() error
}
