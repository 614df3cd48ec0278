package pipeline

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgenyM/audiveris/pkg/sheet"
)

func TestErrorChansAdd(t *testing.T) {
	t.Parallel()

	ecs := errorChans{}
	ec1 := &errorChan{}
	ec2 := &errorChan{}
	doneChan := make(chan struct{}, 2)

	go func() {
		ecs.add(ec1)
		doneChan <- struct{}{}
	}()
	go func() {
		ecs.add(ec2)
		doneChan <- struct{}{}
	}()

	<-doneChan
	<-doneChan
	assert.ElementsMatch(t, []*errorChan{ec1, ec2}, ecs.list)
}

func TestMergeErrors(t *testing.T) {
	t.Parallel()

	errRegion := errors.New("region failed")

	silent := newErrorChan("region 1", nil)
	noisy := make(chan error, 1)
	noisy <- errRegion
	close(noisy)

	out := mergeErrors(silent, newErrorChan("region 2", noisy))

	got, open := <-out
	require.True(t, open)
	assert.ErrorIs(t, got, errRegion)
	assert.Contains(t, got.Error(), "region 2")

	_, open = <-out
	assert.False(t, open)
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	ok := make(chan error)
	close(ok)
	require.NoError(t, waitAll(newErrorChan("region 1", ok)))

	errRegion := errors.New("region failed")
	failed := make(chan error, 1)
	failed <- &ProcessingError{Step: "BINARY", Region: 2, Err: errRegion}
	close(failed)

	err := waitAll(newErrorChan("region 2", failed))
	require.Error(t, err)

	var pErr *ProcessingError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, sheet.RegionID(2), pErr.Region)
	assert.ErrorIs(t, err, errRegion)
}

func TestProcessingError(t *testing.T) {
	t.Parallel()

	errRegion := errors.New("no staff lines found")
	pErr := &ProcessingError{Step: "GRID", Region: 3, Err: errRegion}

	assert.Equal(t, "step GRID: region 3: no staff lines found", pErr.Error())
	assert.ErrorIs(t, pErr, errRegion)
}
