package optim

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/born-ml/born-optim/internal/gradclip"
	"github.com/born-ml/born-optim/internal/nn"
	"github.com/born-ml/born-optim/internal/parallel"
	"github.com/born-ml/born-optim/internal/record"
	"github.com/born-ml/born-optim/internal/tensor"
)

// adaptorOptions collects Option settings.
type adaptorOptions struct {
	clipping *gradclip.GradientClipping
	parallel parallel.Config
	logger   *slog.Logger
}

// Option configures an Adaptor.
type Option func(*adaptorOptions)

// WithGradClipping clips every gradient before the update rule sees it.
func WithGradClipping(clip *gradclip.GradientClipping) Option {
	return func(o *adaptorOptions) {
		o.clipping = clip
	}
}

// WithParallel sets how per-parameter work is fanned out.
func WithParallel(cfg parallel.Config) Option {
	return func(o *adaptorOptions) {
		o.parallel = cfg
	}
}

// WithLogger sets the logger for step diagnostics (debug level).
func WithLogger(logger *slog.Logger) Option {
	return func(o *adaptorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Adaptor applies a SimpleOptimizer to every parameter of a module and owns
// the per-parameter states.
//
// Step, ToRecord, LoadRecord, ToDevice and Prune are mutually exclusive.
type Adaptor[T tensor.Float, B tensor.Backend, S any] struct {
	mu       sync.Mutex
	optim    SimpleOptimizer[T, B, S]
	registry *Registry[S]
	backend  B
	clipping *gradclip.GradientClipping
	parallel parallel.Config
	logger   *slog.Logger
}

// NewAdaptor wraps a SimpleOptimizer. The backend rebuilds states loaded
// from records.
func NewAdaptor[T tensor.Float, B tensor.Backend, S any](optim SimpleOptimizer[T, B, S], backend B, opts ...Option) *Adaptor[T, B, S] {
	o := adaptorOptions{
		parallel: parallel.DefaultConfig(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Adaptor[T, B, S]{
		optim:    optim,
		registry: NewRegistry[S](),
		backend:  backend,
		clipping: o.clipping,
		parallel: o.parallel,
		logger:   o.logger,
	}
}

// newConfiguredAdaptor installs clipping from a config ahead of opts.
func newConfiguredAdaptor[T tensor.Float, B tensor.Backend, S any](
	rule SimpleOptimizer[T, B, S],
	backend B,
	clip *gradclip.Config,
	opts []Option,
) (*Adaptor[T, B, S], error) {
	if clip != nil {
		c, err := clip.Init()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		opts = append([]Option{WithGradClipping(c)}, opts...)
	}
	return NewAdaptor(rule, backend, opts...), nil
}

// Name returns the wrapped optimizer's name.
func (a *Adaptor[T, B, S]) Name() string {
	return a.optim.Name()
}

// State returns the stored state for a parameter.
func (a *Adaptor[T, B, S]) State(id nn.ParamID) (*S, bool) {
	return a.registry.Get(id)
}

// Len returns the number of stored states.
func (a *Adaptor[T, B, S]) Len() int {
	return a.registry.Len()
}

// IDs returns the identities that have a stored state.
func (a *Adaptor[T, B, S]) IDs() []nn.ParamID {
	return a.registry.IDs()
}

type stepJob[T tensor.Float, B tensor.Backend] struct {
	param *nn.Parameter[T, B]
	grad  *tensor.Tensor[T, B]
}

type stepResult[T tensor.Float, B tensor.Backend, S any] struct {
	value *tensor.Tensor[T, B]
	state *S
	err   error
}

// Step updates every parameter of module that has a gradient in grads.
//
// The work runs in two phases. Every update is computed first, in parallel,
// against the current states. Only if all of them succeed are the new
// parameter values and states written back; otherwise nothing is written and
// the joined per-parameter errors are returned.
func (a *Adaptor[T, B, S]) Step(lr LearningRate, module nn.Module[T, B], grads *GradientsParams[T, B]) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	params := module.Parameters()
	jobs := make([]stepJob[T, B], 0, len(params))
	seen := make(map[nn.ParamID]struct{}, len(params))
	for _, param := range params {
		if param == nil {
			continue
		}
		if _, dup := seen[param.ID()]; dup {
			continue
		}
		seen[param.ID()] = struct{}{}

		if grads == nil {
			continue
		}
		grad, ok := grads.Get(param.ID())
		if !ok || grad == nil {
			continue
		}
		jobs = append(jobs, stepJob[T, B]{param: param, grad: grad})
	}

	results := make([]stepResult[T, B, S], len(jobs))
	parallel.For(len(jobs), func(i int) {
		results[i] = a.stepOne(lr, jobs[i])
	}, a.parallel)

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for i, job := range jobs {
		job.param.SetTensor(results[i].value)
		a.registry.Put(job.param.ID(), results[i].state)
	}

	a.logger.Debug("optimizer step",
		"optimizer", a.optim.Name(),
		"params", len(jobs),
		"skipped", len(seen)-len(jobs),
		"lr", lr)
	return nil
}

// stepOne computes the update for one parameter without writing anything.
func (a *Adaptor[T, B, S]) stepOne(lr LearningRate, job stepJob[T, B]) stepResult[T, B, S] {
	id := job.param.ID()
	value := job.param.Tensor()
	device := value.Device()

	fail := func(err error) stepResult[T, B, S] {
		var sm *ShapeMismatchError
		if errors.As(err, &sm) {
			sm.ParamID = id
			return stepResult[T, B, S]{err: err}
		}
		return stepResult[T, B, S]{err: fmt.Errorf("parameter %s (%s): %w", id, job.param.Name(), err)}
	}

	if err := checkShape("grad", value.Shape(), job.grad.Shape()); err != nil {
		return fail(err)
	}

	grad, err := job.grad.ToDevice(device)
	if err != nil {
		return fail(err)
	}
	if a.clipping != nil {
		grad = gradclip.Clip(a.clipping, grad)
	}

	state, _ := a.registry.Get(id)
	if state != nil {
		if state, err = a.optim.ToDevice(state, device); err != nil {
			return fail(err)
		}
	}

	updated, next, err := a.optim.Step(lr, value, grad, state)
	if err != nil {
		return fail(err)
	}
	return stepResult[T, B, S]{value: updated, state: next}
}

// ToRecord snapshots every stored state, keyed by parameter identity.
func (a *Adaptor[T, B, S]) ToRecord() (*record.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := record.New(a.optim.Name())
	for id, state := range a.registry.Snapshot() {
		rec.Items[string(id)] = a.optim.StateToRecord(state)
	}
	return rec, nil
}

// LoadRecord replaces every stored state with the record's contents.
//
// Existing states are discarded, never merged. Identities that match no
// parameter are kept and stay inert until Prune removes them. On error the
// current states are left unchanged.
func (a *Adaptor[T, B, S]) LoadRecord(rec *record.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", record.ErrMalformed)
	}
	if rec.Optimizer != a.optim.Name() {
		return fmt.Errorf("%w: record is %q, optimizer is %q", ErrOptimizerMismatch, rec.Optimizer, a.optim.Name())
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	states := make(map[nn.ParamID]*S, rec.Len())
	for _, id := range rec.IDs() {
		state, err := a.optim.StateFromRecord(rec.Items[id], a.backend)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", id, err)
		}
		states[nn.ParamID(id)] = state
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.registry.Replace(states)
	return nil
}

// ToDevice migrates every stored state to device. The states are replaced
// only after all of them migrated.
func (a *Adaptor[T, B, S]) ToDevice(device tensor.Device) error {
	if !a.backend.Supports(device) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedBackend, a.backend.Name(), device)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.registry.Snapshot()
	migrated := make(map[nn.ParamID]*S, len(current))
	for id, state := range current {
		moved, err := a.optim.ToDevice(state, device)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", id, err)
		}
		migrated[id] = moved
	}
	a.registry.Replace(migrated)
	return nil
}

// Prune deletes states whose identity matches no parameter of module and
// returns how many were removed.
func (a *Adaptor[T, B, S]) Prune(module nn.Module[T, B]) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	live := nn.ParamIDs(module)
	removed := 0
	for _, id := range a.registry.IDs() {
		if _, ok := live[id]; ok {
			continue
		}
		if a.registry.Delete(id) {
			removed++
		}
	}
	if removed > 0 {
		a.logger.Debug("pruned stale optimizer states", "optimizer", a.optim.Name(), "removed", removed)
	}
	return removed
}

var _ Optimizer[float32, tensor.Backend] = (*Adaptor[float32, tensor.Backend, AdaGradState[float32, tensor.Backend]])(nil)
