package calculator

import (
	"sync"

	"github.com/EMinsight/fdtd3d/grid"
	"github.com/EMinsight/fdtd3d/model"
)

// executor runs a grid update over an owned range on a fixed pool of workers. The range
// is cut into slices along one axis, roughly two per worker.
type executor struct {
	dispatchChan chan task
	workers      int

	wg   sync.WaitGroup
	once sync.Once
}

type task struct {
	g      *grid.Grid
	r      model.Range
	update grid.UpdateFunc
	done   chan<- struct{}
}

func newExecutor(workers int) *executor {
	if workers < 1 {
		workers = 1
	}
	return &executor{
		dispatchChan: make(chan task, 2*workers),
		workers:      workers,
	}
}

func (e *executor) run() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for t := range e.dispatchChan {
				t.g.AdvanceRange(t.r, t.update)
				t.done <- struct{}{}
			}
		}()
	}
}

// dispatchTask advances r of g and returns once every slice is done. Timing is left to
// the caller's compute clock.
func (e *executor) dispatchTask(g *grid.Grid, r model.Range, axis int, update grid.UpdateFunc) {
	if r.Empty() {
		return
	}
	bounds := splitTasks(r.Start.Get(axis), r.End.Get(axis), e.workers)
	done := make(chan struct{}, len(bounds))
	for _, b := range bounds {
		e.dispatchChan <- task{g: g, r: r.WithAxis(axis, b[0], b[1]), update: update, done: done}
	}
	for range bounds {
		<-done
	}
}

func (e *executor) stop() {
	e.once.Do(func() {
		close(e.dispatchChan)
		e.wg.Wait()
	})
}

// splitTasks cuts [first, last) into tasks: each worker gets its share in two halves,
// and the remainder goes out one layer at a time.
func splitTasks(first, last int32, workers int) [][2]int32 {
	total := last - first
	w := int32(workers)
	taskLen, remainder := total/w, total%w

	var out [][2]int32
	start := first
	if taskLen == 1 {
		for start < last-remainder {
			out = append(out, [2]int32{start, start + 1})
			start++
		}
	} else if taskLen > 1 {
		half1, half2 := taskLen/2, taskLen-taskLen/2
		for start < last-remainder {
			out = append(out, [2]int32{start, start + half1})
			start += half1
			out = append(out, [2]int32{start, start + half2})
			start += half2
		}
	}
	for i := int32(0); i < remainder; i++ {
		out = append(out, [2]int32{start, start + 1})
		start++
	}
	return out
}
