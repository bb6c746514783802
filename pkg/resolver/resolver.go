package resolver

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	bmerrors "github.com/arpanauts/biomapper/pkg/errors"
	"github.com/arpanauts/biomapper/pkg/logging"
	"github.com/arpanauts/biomapper/pkg/observability"
	"github.com/arpanauts/biomapper/pkg/provenance"
)

const (
	// DefaultBatchSize is the number of identifiers sent per service call.
	DefaultBatchSize = 100

	// DefaultBatchTimeout bounds each service call. A timed-out batch is
	// recorded as an error outcome for its members; other batches proceed.
	DefaultBatchTimeout = 30 * time.Second
)

// Resolver drives batched historical-identifier resolution against an
// injected Service, with optional caching and concurrent batches.
type Resolver struct {
	service         Service
	cache           Cache
	logger          logging.Logger
	tracer          *observability.Tracer
	batchSize       int
	batchTimeout    time.Duration
	includeObsolete bool
	concurrency     int
	ontology        string
	stage           int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache enables resolution caching.
func WithCache(cache Cache) Option {
	return func(r *Resolver) { r.cache = cache }
}

// WithBatchSize sets the identifiers-per-call batch size.
func WithBatchSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithBatchTimeout sets the per-batch timeout.
func WithBatchTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.batchTimeout = d
		}
	}
}

// WithIncludeObsolete forwards obsolete identifiers into the output instead
// of dropping them. Provenance is recorded either way.
func WithIncludeObsolete(include bool) Option {
	return func(r *Resolver) { r.includeObsolete = include }
}

// WithConcurrency sets the number of batches resolved in parallel.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithOntology sets the ontology name stamped on provenance records.
func WithOntology(name string) Option {
	return func(r *Resolver) { r.ontology = name }
}

// WithStage sets the pipeline stage number stamped on provenance records.
func WithStage(stage int) Option {
	return func(r *Resolver) { r.stage = stage }
}

// WithTracer enables a span per service batch.
func WithTracer(tracer *observability.Tracer) Option {
	return func(r *Resolver) { r.tracer = tracer }
}

// WithResolverLogger sets the logger.
func WithResolverLogger(logger logging.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// New creates a Resolver around the given service.
func New(service Service, opts ...Option) *Resolver {
	r := &Resolver{
		service:      service,
		logger:       logging.NewNopLogger(),
		batchSize:    DefaultBatchSize,
		batchTimeout: DefaultBatchTimeout,
		concurrency:  1,
		stage:        3,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome is the aggregate result of resolving a set of identifiers.
type Outcome struct {
	// Resolved holds the current identifiers produced by resolution, in
	// first-seen order of the inputs that produced them, deduplicated.
	Resolved []string

	// Resolutions maps each input identifier to its outcome. Inputs the
	// service does not recognize are present with type unknown.
	Resolutions map[string]Resolution

	// Records holds one provenance entry per (input, output) pair,
	// including obsolete and failed inputs that produced no output.
	Records []provenance.Record
}

// ResolveAll resolves every identifier, batching service calls and
// tolerating per-batch failures. The only returned error is context
// cancellation of the whole run; individual batch errors become error
// resolutions for their members.
func (r *Resolver) ResolveAll(ctx context.Context, ids []string) (*Outcome, error) {
	unique := dedupe(ids)

	resolutions := make(map[string]Resolution, len(unique))
	pending := make([]string, 0, len(unique))

	for _, id := range unique {
		if r.cache != nil {
			if res, ok, err := r.cache.Get(ctx, id); err == nil && ok {
				resolutions[id] = res
				continue
			} else if err != nil {
				r.logger.Warn("resolution cache read failed",
					logging.F("identifier", id), logging.Err(err))
			}
		}
		pending = append(pending, id)
	}

	if err := r.resolveBatches(ctx, pending, resolutions); err != nil {
		return nil, err
	}

	// Inputs the service omitted score as unknown.
	for _, id := range unique {
		if _, ok := resolutions[id]; !ok {
			resolutions[id] = Resolution{InputID: id, Type: ResolutionUnknown}
		}
	}

	return r.assemble(unique, resolutions), nil
}

// resolveBatches runs the service over pending identifiers in batches,
// merging results into resolutions. With concurrency above one, batches run
// in parallel and merges are serialized.
func (r *Resolver) resolveBatches(ctx context.Context, pending []string, resolutions map[string]Resolution) error {
	var batches [][]string
	for start := 0; start < len(pending); start += r.batchSize {
		end := start + r.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batches = append(batches, pending[start:end])
	}

	var mu sync.Mutex
	merge := func(batch []string, got map[string]Resolution, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			perr := bmerrors.ClassifyError(err, "historical_resolution")
			r.logger.Warn("resolution batch failed",
				logging.F("batch_size", len(batch)),
				logging.F("code", string(perr.Code)),
				logging.F("timeout", bmerrors.IsTimeout(perr)),
				logging.F("retryable", bmerrors.IsErrorRetryable(perr)),
				logging.Err(err))
			for _, id := range batch {
				resolutions[id] = Resolution{InputID: id, Type: ResolutionError}
			}
			return
		}
		for _, id := range batch {
			res, ok := got[id]
			if !ok {
				continue
			}
			if res.InputID == "" {
				res.InputID = id
			}
			resolutions[id] = res
			if r.cache != nil && res.Type != ResolutionError {
				if cerr := r.cache.Set(ctx, id, res); cerr != nil {
					r.logger.Warn("resolution cache write failed",
						logging.F("identifier", id), logging.Err(cerr))
				}
			}
		}
	}

	if r.concurrency <= 1 || len(batches) <= 1 {
		for _, batch := range batches {
			if err := ctx.Err(); err != nil {
				return bmerrors.ClassifyError(err, "historical_resolution")
			}
			got, err := r.callBatch(ctx, batch)
			merge(batch, got, err)
		}
		return ctx.Err()
	}

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for _, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(batch []string) {
			defer wg.Done()
			defer func() { <-sem }()
			got, err := r.callBatch(ctx, batch)
			merge(batch, got, err)
		}(batch)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return bmerrors.ClassifyError(err, "historical_resolution")
	}
	return nil
}

func (r *Resolver) callBatch(ctx context.Context, batch []string) (map[string]Resolution, error) {
	batchCtx, cancel := context.WithTimeout(ctx, r.batchTimeout)
	defer cancel()

	var span trace.Span
	if r.tracer != nil {
		batchCtx, span = r.tracer.StartResolutionSpan(batchCtx, len(batch))
		defer span.End()
	}

	start := time.Now()
	got, err := r.service.Resolve(batchCtx, batch)
	if err != nil {
		// A timed-out batch is a batch failure, not a run failure, unless
		// the parent context itself is done.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if span != nil {
			perr := bmerrors.ClassifyError(err, "historical_resolution")
			observability.NewSpanHelper(span).SetError(err, string(perr.Code), bmerrors.IsErrorRetryable(perr))
		}
		return nil, err
	}
	if span != nil {
		observability.NewSpanHelper(span).SetSuccess()
	}

	r.logger.Debug("resolved batch",
		logging.F("batch_size", len(batch)),
		logging.F("duration", time.Since(start).String()))
	return got, nil
}

// assemble builds the outcome in input order so that concurrent batch
// completion order never changes the output.
func (r *Resolver) assemble(unique []string, resolutions map[string]Resolution) *Outcome {
	out := &Outcome{Resolutions: resolutions}
	seen := make(map[string]struct{})

	for _, id := range unique {
		res := resolutions[id]
		conf := res.Type.Confidence()

		switch res.Type {
		case ResolutionPrimary, ResolutionSecondary, ResolutionDemerged:
			targets := res.PrimaryIDs
			if res.Type == ResolutionPrimary && len(targets) == 0 {
				targets = []string{id}
			}
			for _, target := range targets {
				out.Records = append(out.Records, provenance.New(
					"historical_resolution", id, r.ontology, target, r.ontology,
					"historical_resolution", conf, r.stage))
				if _, ok := seen[target]; ok {
					continue
				}
				seen[target] = struct{}{}
				out.Resolved = append(out.Resolved, target)
			}
		case ResolutionObsolete:
			out.Records = append(out.Records, provenance.New(
				"historical_resolution", id, r.ontology, "", r.ontology,
				"obsolete", conf, r.stage))
			if r.includeObsolete {
				if _, ok := seen[id]; !ok {
					seen[id] = struct{}{}
					out.Resolved = append(out.Resolved, id)
				}
			}
		default:
			out.Records = append(out.Records, provenance.New(
				"historical_resolution", id, r.ontology, "", r.ontology,
				string(res.Type), conf, r.stage))
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
