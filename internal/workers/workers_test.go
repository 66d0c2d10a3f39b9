package workers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adb3502/liims-sub002/internal/logger"
)

// spyWorker tracks how many times Run was called and in what order.
type spyWorker struct {
	id    int
	order *[]int
	runs  int
}

func (s *spyWorker) Run(_ context.Context) {
	s.runs++
	if s.order != nil {
		*s.order = append(*s.order, s.id)
	}
}

type panicWorker struct{}

func (panicWorker) Run(_ context.Context) { panic("broken worker") }

func TestWorkers_Run_AllWorkersInOrder(t *testing.T) {
	var order []int
	w1 := &spyWorker{id: 1, order: &order}
	w2 := &spyWorker{id: 2, order: &order}
	w3 := &spyWorker{id: 3, order: &order}

	New(logger.Nop(), w1, w2, w3).Run(context.Background())

	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 1, w1.runs)
	assert.Equal(t, 1, w2.runs)
	assert.Equal(t, 1, w3.runs)
}

func TestWorkers_Run_Empty(t *testing.T) {
	assert.NotPanics(t, func() { New(logger.Nop()).Run(context.Background()) })
}

func TestWorkers_Run_PanickingWorkerDoesNotStopTheRest(t *testing.T) {
	after := &spyWorker{id: 1}

	assert.NotPanics(t, func() {
		New(logger.Nop(), panicWorker{}, after).Run(context.Background())
	})
	assert.Equal(t, 1, after.runs, "workers after a failed one must still start")
}
