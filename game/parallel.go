package game

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/pthm-cable/evogrid/renderer"
)

// jpegQuality is the encoding quality of animation frames.
const jpegQuality = 90

// renderJob is one frame to encode into a slot of the current generation.
type renderJob struct {
	frame *renderer.Frame
	slot  int
}

// renderPool encodes frame snapshots on persistent worker goroutines and
// writes one video per generation. The simulation only hands it copies.
type renderPool struct {
	numWorkers int
	cellPx     int
	size       int // frame width and height in pixels
	fps        int
	dir        string

	// Encoded frames of the current generation, by slot
	encoded [][]byte
	next    int

	// Worker pool channels
	workChan chan renderJob // sends work to workers
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	jobs     sync.WaitGroup // tracks queued frames
	videos   sync.WaitGroup // tracks video writers
	running  bool           // true if workers are running
}

func newRenderPool(dir string, dim, cellPx, fps int) *renderPool {
	cellPx = max(cellPx, 1)
	return &renderPool{
		numWorkers: runtime.GOMAXPROCS(0),
		cellPx:     cellPx,
		size:       dim * cellPx,
		fps:        fps,
		dir:        dir,
	}
}

// startWorkers launches persistent worker goroutines.
func (p *renderPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan renderJob, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *renderPool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	p.running = false
}

// worker runs in a goroutine, encoding frames until stopped.
func (p *renderPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case job, ok := <-p.workChan:
			if !ok {
				return
			}
			data, err := renderer.EncodeJPEG(job.frame, p.cellPx, jpegQuality)
			if err != nil {
				slog.Error("frame encoding failed", "error", err)
			}
			p.encoded[job.slot] = data
			p.jobs.Done()
		}
	}
}

// begin prepares slots for up to frames frames of a generation.
func (p *renderPool) begin(frames int) {
	p.encoded = make([][]byte, frames)
	p.next = 0
}

// submit queues a frame for encoding. Frames past the prepared slots are
// dropped.
func (p *renderPool) submit(f *renderer.Frame) {
	if p.next >= len(p.encoded) {
		return
	}
	p.startWorkers()

	p.jobs.Add(1)
	p.workChan <- renderJob{frame: f, slot: p.next}
	p.next++
}

// flush waits for the generation's frames and writes them to a video on a
// separate goroutine.
func (p *renderPool) flush(generation int) {
	p.jobs.Wait()
	frames := p.encoded[:p.next]
	p.encoded = nil
	p.next = 0
	if len(frames) == 0 {
		return
	}

	path := filepath.Join(p.dir, fmt.Sprintf("generation_%d.avi", generation))
	p.videos.Add(1)
	go func() {
		defer p.videos.Done()
		if err := writeVideo(path, frames, p.size, p.fps); err != nil {
			slog.Error("video writing failed", "generation", generation, "error", err)
		}
	}()
}

// close stops the workers and waits for every pending video.
func (p *renderPool) close() {
	p.stopWorkers()
	p.videos.Wait()
}

func writeVideo(path string, frames [][]byte, size, fps int) error {
	vw, err := renderer.NewVideoWriter(path, size, size, fps)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if f == nil {
			continue
		}
		if err := vw.AddFrame(f); err != nil {
			_ = vw.Close()
			return err
		}
	}
	return vw.Close()
}
