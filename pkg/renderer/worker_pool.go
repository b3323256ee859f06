package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
)

// RangeTask is one worker's share of a frame: a contiguous run of pixel indices
type RangeTask struct {
	TaskID int
	Span   Span             // Exclusive window of the accumulation buffers
	Camera *geometry.Camera // Camera for this frame
	Seed   int64            // Seed for the task's own sampler
}

// RangeResult contains the result from rendering a range
type RangeResult struct {
	TaskID  int
	Samples int
	Error   error
}

// RenderFunc renders one range task
type RenderFunc func(task RangeTask) RangeResult

// WorkerPool manages long-lived workers that render pixel ranges
type WorkerPool struct {
	taskQueue   chan RangeTask
	resultQueue chan RangeResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

// Worker handles individual range rendering tasks
type Worker struct {
	ID          int
	render      RenderFunc
	taskQueue   chan RangeTask
	resultQueue chan RangeResult
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// Queues are sized so that one frame's tasks never block the submitter.
func NewWorkerPool(numWorkers, queueSize int, render RenderFunc) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	queueSize = max(queueSize, numWorkers)

	wp := &WorkerPool{
		taskQueue:   make(chan RangeTask, queueSize),
		resultQueue: make(chan RangeResult, queueSize),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			render:      render,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers. Calling it more than once has no effect.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		for _, worker := range wp.workers {
			wp.wg.Add(1)
			go worker.run(&wp.wg)
		}
	})
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.taskQueue) // No more tasks
		wp.wg.Wait()        // Wait for workers to finish
		close(wp.resultQueue)
	})
}

// SubmitTask submits a range task to the worker pool
func (wp *WorkerPool) SubmitTask(task RangeTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed range result
func (wp *WorkerPool) GetResult() (RangeResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- w.renderSafely(task)
	}
}

// renderSafely turns a panic in the render function into a task error so a
// bad pixel cannot leave the frame barrier waiting forever
func (w *Worker) renderSafely(task RangeTask) (result RangeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = RangeResult{TaskID: task.TaskID, Error: fmt.Errorf("worker %d: task %d panicked: %v", w.ID, task.TaskID, r)}
		}
	}()
	return w.render(task)
}
