package pipeline

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/sheet"
)

var (
	ErrPipelineMustBeSet = errors.New("p must be set")
	ErrSheetMustBeSet    = errors.New("sheet must be set")
	ErrNoSteps           = errors.New("pipeline needs at least one step")
	ErrDuplicateStep     = errors.New("step name already used")
	ErrUnknownStep       = errors.New("unknown step")
	ErrSheetDone         = errors.New("sheet is done")
	ErrOpenTransaction   = errors.New("transaction must be closed")
)

// ProcessingError reports the failure of one step for one region. Other
// regions are unaffected; the sheet marker does not advance past the
// failed step.
type ProcessingError struct {
	Step   string
	Region sheet.RegionID
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("step %s: region %d: %s", e.Step, e.Region, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// passError joins the per-region failures of one best-effort pass.
type passError struct {
	errs []error
}

func (e *passError) Error() string {
	msgs := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *passError) Unwrap() []error { return e.errs }

type errorChans struct {
	mu   sync.Mutex
	list []*errorChan
}

func (ec *errorChans) add(errChan *errorChan) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.list = append(ec.list, errChan)
}

type errorChan struct {
	c    <-chan error
	name string
}

func newErrorChan(name string, c <-chan error) *errorChan {
	return &errorChan{
		c:    c,
		name: name,
	}
}

// mergeErrors merges multiple channels of errors.
// Based on https://blog.golang.org/pipelines.
func mergeErrors(cs ...*errorChan) <-chan error {
	var wg sync.WaitGroup
	// We must ensure that the output channel has the capacity to hold as many errors
	// as there are error channels. This will ensure that it never blocks, even
	// if the consumer returns early.
	out := make(chan error, len(cs))

	// Start an output goroutine for each input channel in cs.  output
	// copies values from c to out until c is closed, then calls wg.Done.
	output := func(c *errorChan) {
		defer wg.Done()
		if c.c == nil {
			return
		}
		for n := range c.c {
			out <- errors.Wrap(n, c.name)
		}
	}
	wg.Add(len(cs))
	for _, c := range cs {
		go output(c)
	}

	// Start a goroutine to close out once all the output goroutines are
	// done.  This must start after the wg.Add call.
	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// waitAll drains all error channels and joins whatever failed.
func waitAll(errs ...*errorChan) error {
	var all []error
	for err := range mergeErrors(errs...) {
		if err != nil {
			all = append(all, err)
		}
	}
	if len(all) == 0 {
		return nil
	}
	return &passError{errs: all}
}
