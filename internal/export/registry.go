package export

import (
	"bytes"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Phase string

const (
	PhasePreparing            Phase = "preparando"
	PhaseFetchingArticles     Phase = "descargando_articulos"
	PhaseFetchingTranslations Phase = "descargando_traducciones"
	PhaseComputingPromotions  Phase = "calculando_promociones"
	PhaseResolvingImages      Phase = "descargando_imagenes"
	PhaseAssembling           Phase = "generando_excel"
	PhaseCompleted            Phase = "completado"
	PhaseFailed               Phase = "error"
)

// Job is one in-flight export. It is mutated only by the orchestrator
// goroutine driving it and read by polling/download requests.
type Job struct {
	ID        string
	Filename  string
	StartedAt time.Time

	mu         sync.RWMutex
	phase      Phase
	progress   int // percent, never decreases
	totalUnits int
	doneUnits  int
	errMsg     string
	result     *bytes.Buffer
}

// Status is a point-in-time copy of a job's observable state.
type Status struct {
	Phase      Phase
	Progress   int
	Error      string
	Filename   string
	ETASeconds *int
}

func (j *Job) SetPhase(phase Phase) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.phase = phase
}

// SetTotalUnits fixes the amount of work the progress percentage is measured
// against: one unit per row written, plus one per row when images are on.
func (j *Job) SetTotalUnits(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.totalUnits = n
}

// AddUnits credits completed work. Image resolutions finish out of order
// across workers, so the stored percentage only ever moves up.
func (j *Job) AddUnits(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.doneUnits += n
	if j.totalUnits <= 0 {
		return
	}
	pct := j.doneUnits * 100 / j.totalUnits
	if pct > 100 {
		pct = 100
	}
	if pct > j.progress {
		j.progress = pct
	}
}

func (j *Job) Complete(result *bytes.Buffer) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.phase = PhaseCompleted
	j.progress = 100
	j.result = result
}

// Fail marks the job terminal. Progress is forced to 100 so pollers stop
// waiting on a bar that will never move again.
func (j *Job) Fail(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.phase = PhaseFailed
	j.progress = 100
	j.errMsg = message
}

func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()

	status := Status{
		Phase:    j.phase,
		Progress: j.progress,
		Error:    j.errMsg,
		Filename: j.Filename,
	}

	// Linear extrapolation is meaningless at the edges: too early there is
	// no signal, too late the remainder rounds to zero anyway.
	if j.phase != PhaseCompleted && j.phase != PhaseFailed && j.progress > 2 && j.progress < 99 {
		fraction := float64(j.progress) / 100
		elapsed := time.Since(j.StartedAt).Seconds()
		eta := int(elapsed * (1/fraction - 1))
		if eta < 0 {
			eta = 0
		}
		status.ETASeconds = &eta
	}

	return status
}

// Result returns the finished artifact, or nil while the job is running or
// after a failure.
func (j *Job) Result() *bytes.Buffer {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.phase != PhaseCompleted {
		return nil
	}
	return j.result
}

// Registry keeps every job for the lifetime of the process. Jobs are never
// evicted; a restart clears them.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		jobs:   make(map[string]*Job),
		logger: logger,
	}
}

func (r *Registry) Create(filename string) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		StartedAt: time.Now(),
		phase:     PhasePreparing,
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	r.logger.Info("export job registered",
		zap.String("job_id", job.ID),
		zap.String("filename", filename),
	)

	return job
}

func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return job, ok
}
