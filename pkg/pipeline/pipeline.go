// Package pipeline drives ordered recognition steps over the regions of
// a sheet and replays edit transactions through the steps' impact
// protocol.
//
// A step pass runs regions concurrently on a bounded pool and ends with
// a hard barrier: no step begins for any region until every region
// finished the previous step. After the barrier an optional cross-region
// epilog runs once, with exclusive access to the whole sheet, before the
// sheet marker advances. Impact passes are never parallelized across
// steps: later steps may depend on the corrections made by earlier ones.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/EvgenyM/audiveris/pkg/edit"
	"github.com/EvgenyM/audiveris/pkg/pipeline/drawer"
	"github.com/EvgenyM/audiveris/pkg/pipeline/measure"
	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

// Pipeline is an ordered sequence of steps. One instance serves the
// whole process; sheets flow through it.
type Pipeline struct {
	steps    []Step
	ordinals map[string]int

	workers    int
	bestEffort bool
	measure    measure.Measure
	metrics    map[string]measure.Metric
	drawer     drawer.Drawer
	log        Logger
	obs        *observers
}

// New creates a pipeline from its ordered steps. Step ordinals are the
// slice positions and stay stable for the lifetime of the instance.
func New(steps []Step, opts ...Option) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	p := &Pipeline{
		steps:    steps,
		ordinals: make(map[string]int, len(steps)),
		workers:  runtime.NumCPU(),
		log:      NopLogger{},
		obs:      &observers{},
	}

	for _, opt := range opts {
		opt(p)
	}

	for i, step := range steps {
		if _, ok := p.ordinals[step.Name()]; ok {
			return nil, errors.Wrap(ErrDuplicateStep, step.Name())
		}
		p.ordinals[step.Name()] = i
	}

	if p.drawer != nil {
		for i, step := range steps {
			if err := p.drawer.AddStep(step.Name()); err != nil {
				return nil, errors.Wrap(err, "unable to add step to drawer")
			}
			if i > 0 {
				if err := p.drawer.AddLink(steps[i-1].Name(), step.Name()); err != nil {
					return nil, errors.Wrap(err, "unable to link steps in drawer")
				}
			}
		}
	}

	if p.measure != nil {
		p.metrics = make(map[string]measure.Metric, len(steps))
		for _, step := range steps {
			p.metrics[step.Name()] = p.measure.AddMetric(step.Name(), p.workers)
		}
	}

	return p, nil
}

// Steps reports the ordered steps.
func (p *Pipeline) Steps() []Step { return p.steps }

// Ordinal reports the position of a step in the pipeline.
func (p *Pipeline) Ordinal(name string) (int, error) {
	i, ok := p.ordinals[name]
	if !ok {
		return 0, errors.Wrap(ErrUnknownStep, name)
	}
	return i, nil
}

// RunTo processes the sheet from its current marker up to and including
// the target step. Regions run concurrently within one step pass; a
// failed pass leaves the marker where it was and is reported with region
// and step context.
func (p *Pipeline) RunTo(ctx context.Context, sh *sheet.Sheet, targetStep string) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if sh == nil {
		return ErrSheetMustBeSet
	}
	if sh.IsDone() {
		return errors.Wrap(ErrSheetDone, sh.Radix())
	}

	target, err := p.Ordinal(targetStep)
	if err != nil {
		return err
	}

	for i := sh.LastStep() + 1; i <= target; i++ {
		step := p.steps[i]
		p.log.Info("running step", String("step", step.Name()), String("sheet", sh.Radix()))

		passStart := time.Now()
		err := p.processPass(ctx, sh, i, step)
		if err != nil {
			return errors.Wrapf(err, "sheet %s", sh.Radix())
		}

		// Cross-region phase: exclusive access, no region pool is live.
		err = step.Epilog(ctx, sh)
		if err != nil {
			return errors.Wrapf(err, "step %s: epilog of sheet %s", step.Name(), sh.Radix())
		}

		if mt := p.metric(step); mt != nil {
			mt.SetPassDuration(time.Since(passStart))
		}

		err = sh.Advance(i)
		if err != nil {
			return errors.Wrapf(err, "step %s", step.Name())
		}
		p.notifyStepAdvanced(sh, step)
	}

	if target == len(p.steps)-1 {
		sh.SetDone()
	}

	return nil
}

// ApplyTransaction mutates the region graphs per the transaction's
// tasks, then invokes Impact on every already-performed step whose
// declared classes intersect the touched classes, in pipeline order. The
// intersection is re-evaluated before each step because an earlier
// step's impact may generate tasks that widen the touched set.
func (p *Pipeline) ApplyTransaction(ctx context.Context, sh *sheet.Sheet, txn *edit.Transaction, opKind edit.OpKind) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if sh == nil {
		return ErrSheetMustBeSet
	}
	if !txn.Closed() {
		return ErrOpenTransaction
	}

	resolve := func(id sheet.RegionID) (*sig.Graph, error) {
		r, err := sh.Region(id)
		if err != nil {
			return nil, err
		}
		return r.Graph, nil
	}

	switch opKind {
	case edit.Undo:
		// Step-generated tasks of the forward pass are reversed first,
		// then the user tasks, so the graph walks back through exactly
		// the states it came from.
		tail := txn.ImpactTail()
		for i := len(tail) - 1; i >= 0; i-- {
			err := unapplyOne(tail[i], resolve)
			if err != nil {
				return errors.Wrap(err, "unable to unapply generated task")
			}
		}

		err := txn.Unapply(resolve)
		if err != nil {
			return errors.Wrap(err, "unable to unapply transaction")
		}
	default:
		err := txn.Apply(resolve)
		if err != nil {
			return errors.Wrap(err, "unable to apply transaction")
		}
	}

	seq := edit.NewSeq(txn, opKind, resolve)

	for i, step := range p.steps {
		if i > sh.LastStep() {
			break
		}
		if !intersects(step.ImpactingClasses(), seq.Classes()) {
			continue
		}

		p.log.Debug("impacting step",
			String("step", step.Name()), String("op", opKind.String()))

		err := step.Impact(ctx, seq, opKind)
		if err != nil {
			return errors.Wrapf(err, "impact of step %s", step.Name())
		}
	}

	switch opKind {
	case edit.Undo:
		txn.SetImpactTail(nil)
	default:
		txn.SetImpactTail(seq.GeneratedTasks())
	}

	p.notifyTouched(sh, seq)

	return nil
}

func unapplyOne(task edit.Task, resolve edit.GraphResolver) error {
	g, err := resolve(task.Region)
	if err != nil {
		return err
	}
	return task.Unapply(g)
}

// ImpactedSteps reports, in pipeline order, the steps whose declared
// interest intersects the given classes.
func (p *Pipeline) ImpactedSteps(classes []sig.Class) []Step {
	var res []Step
	for _, step := range p.steps {
		if intersects(step.ImpactingClasses(), classes) {
			res = append(res, step)
		}
	}
	return res
}

// Finish renders the drawer output once processing is over.
func (p *Pipeline) Finish() error {
	if p.drawer == nil {
		return nil
	}
	if p.measure != nil {
		err := p.drawer.AddMeasure(p.measure)
		if err != nil {
			return errors.Wrap(err, "unable to add measure to drawer")
		}
	}

	return errors.Wrap(p.drawer.Draw(), "unable to draw pipeline")
}

func (p *Pipeline) processPass(ctx context.Context, sh *sheet.Sheet, ordinal int, step Step) error {
	var regions []*sheet.Region
	for _, region := range sh.Regions() {
		// Regions already at this step were completed by an earlier,
		// partially failed pass.
		if region.LastStep() < ordinal {
			regions = append(regions, region)
		}
	}

	if p.bestEffort {
		return p.bestEffortPass(ctx, regions, ordinal, step)
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(p.workers)

	for _, region := range regions {
		// Cooperative cancellation checkpoint at region boundaries.
		if dCtx.Err() != nil {
			break
		}

		region := region
		errGrp.Go(func() error {
			return p.processRegion(dCtx, region, ordinal, step)
		})
	}

	// The barrier: the next step starts for no region until every
	// region finished this one.
	return errGrp.Wait()
}

func (p *Pipeline) bestEffortPass(ctx context.Context, regions []*sheet.Region, ordinal int, step Step) error {
	ecs := &errorChans{}
	errGrp := &errgroup.Group{}
	errGrp.SetLimit(p.workers)

	for _, region := range regions {
		if ctx.Err() != nil {
			break
		}

		region := region
		errC := make(chan error, 1)
		ecs.add(newErrorChan(fmt.Sprintf("region %d", region.ID), errC))

		errGrp.Go(func() error {
			defer close(errC)
			err := p.processRegion(ctx, region, ordinal, step)
			if err != nil {
				p.log.Warn("region failed, pass continues",
					String("step", step.Name()), Int("region", int(region.ID)), Err(err))
				errC <- err
			}
			return nil
		})
	}

	//nolint:errcheck // region failures travel through the error channels.
	errGrp.Wait()

	return waitAll(ecs.list...)
}

func (p *Pipeline) processRegion(ctx context.Context, region *sheet.Region, ordinal int, step Step) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "region %d", region.ID)
	}

	start := time.Now()
	err := step.Process(ctx, region)
	if err != nil {
		return &ProcessingError{Step: step.Name(), Region: region.ID, Err: err}
	}

	region.CompleteStep(ordinal)

	if mt := p.metric(step); mt != nil {
		elapsed := time.Since(start)
		mt.AddDuration(elapsed)
		mt.AddRegionDuration(fmt.Sprintf("region %d", region.ID), elapsed)
	}

	p.notifyGraphChanged(region)

	return nil
}

func (p *Pipeline) metric(step Step) measure.Metric {
	if p.metrics == nil {
		return nil
	}
	return p.metrics[step.Name()]
}

func (p *Pipeline) notifyTouched(sh *sheet.Sheet, seq *edit.Seq) {
	seen := make(map[sheet.RegionID]struct{})
	for _, task := range seq.Tasks() {
		if _, ok := seen[task.Region]; ok {
			continue
		}
		seen[task.Region] = struct{}{}

		region, err := sh.Region(task.Region)
		if err != nil {
			continue
		}
		p.notifyGraphChanged(region)
	}
}
