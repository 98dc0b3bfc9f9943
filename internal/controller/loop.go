package controller

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nabilhasan01/CSE499A/internal/journal"
	"github.com/nabilhasan01/CSE499A/internal/logger"
	"github.com/nabilhasan01/CSE499A/internal/model"
)

// State of the polling loop.
type State int

const (
	StateWait State = iota
	StatePoll
)

// Step names one network operation inside a cycle.
type Step int

const (
	StepCamera Step = iota
	StepLeaf
	StepSensor
	StepSoil
)

func (s Step) String() string {
	switch s {
	case StepCamera:
		return "camera"
	case StepLeaf:
		return "leaf"
	case StepSensor:
		return "sensor"
	case StepSoil:
		return "soil"
	}
	return "unknown"
}

// Action is what the loop does after a failed step.
type Action int

const (
	// ActionContinue moves on to the next step of the cycle.
	ActionContinue Action = iota
	// ActionSkip abandons the rest of the cycle and waits the fallback delay.
	ActionSkip
)

// DecisionTable maps a failed step and its failure kind to a loop action.
// Without a frame or a reading there is nothing to forward, so those steps
// skip; a failed prediction only loses its own result.
var DecisionTable = map[Step]map[FailureKind]Action{
	StepCamera: {KindNetwork: ActionSkip, KindStatus: ActionSkip, KindDecode: ActionSkip},
	StepLeaf:   {KindNetwork: ActionContinue, KindStatus: ActionContinue, KindDecode: ActionContinue},
	StepSensor: {KindNetwork: ActionSkip, KindStatus: ActionSkip, KindDecode: ActionSkip},
	StepSoil:   {KindNetwork: ActionContinue, KindStatus: ActionContinue, KindDecode: ActionContinue},
}

// Decide looks up the action for a failure. Unknown combinations skip.
func Decide(step Step, kind FailureKind) Action {
	if a, ok := DecisionTable[step][kind]; ok {
		return a
	}
	return ActionSkip
}

// Cadence is the loop timing: Interval after a full cycle, Fallback after
// a skipped one, StepGap between the leaf and soil halves.
type Cadence struct {
	Interval time.Duration
	Fallback time.Duration
	StepGap  time.Duration
}

type StepFailure struct {
	Step Step
	Kind FailureKind
	Err  error
}

// CycleResult is everything one POLL produced.
type CycleResult struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Label    string
	Crop     string
	Reading  *model.SensorReading
	Failures []StepFailure
	Skipped  bool
}

// Recorder persists cycle results.
type Recorder interface {
	Record(ctx context.Context, rec *journal.CycleRecord) error
}

type Loop struct {
	client     *Client
	cameraURL  string
	cadence    Cadence
	sensor     SensorSource
	captureDir string
	rotate     int
	recorder   Recorder

	state State
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

type Option func(*Loop)

// WithSensor enables the soil half of each cycle.
func WithSensor(s SensorSource) Option {
	return func(l *Loop) { l.sensor = s }
}

// WithCapture saves every fetched frame under dir.
func WithCapture(dir string) Option {
	return func(l *Loop) { l.captureDir = dir }
}

// WithRotation turns every frame by degrees before it is saved or
// classified. Only 0 and 180 are supported.
func WithRotation(degrees int) Option {
	return func(l *Loop) { l.rotate = degrees }
}

func WithRecorder(r Recorder) Option {
	return func(l *Loop) { l.recorder = r }
}

func NewLoop(client *Client, cameraURL string, cadence Cadence, opts ...Option) *Loop {
	l := &Loop{
		client:    client,
		cameraURL: cameraURL,
		cadence:   cadence,
		state:     StatePoll,
		sleep:     sleepCtx,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run alternates POLL and WAIT until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	wait := l.cadence.Interval
	for {
		switch l.state {
		case StatePoll:
			res := l.RunCycle(ctx)
			if ctx.Err() != nil {
				return nil
			}
			wait = l.cadence.Interval
			if res.Skipped {
				wait = l.cadence.Fallback
			}
			l.state = StateWait

		case StateWait:
			if err := l.sleep(ctx, wait); err != nil {
				return nil
			}
			l.state = StatePoll
		}
	}
}

// RunCycle performs one POLL: camera, leaf, then sensor and soil.
func (l *Loop) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{ID: uuid.NewString(), Started: l.now()}

	frame, err := l.client.FetchFrame(ctx, l.cameraURL)
	if err == nil {
		frame, err = RotateFrame(frame, l.rotate)
	}
	if err != nil {
		if l.fail(&res, StepCamera, err) == ActionSkip {
			return l.finish(ctx, res)
		}
	} else {
		l.capture(frame, res.Started)

		label, err := l.client.ClassifyLeaf(ctx, frame)
		if err != nil {
			if l.fail(&res, StepLeaf, err) == ActionSkip {
				return l.finish(ctx, res)
			}
		} else {
			res.Label = label
			logger.Printf("Leaf Disease Class: %s", label)
		}
	}

	if l.sensor == nil {
		return l.finish(ctx, res)
	}
	if l.cadence.StepGap > 0 {
		if err := l.sleep(ctx, l.cadence.StepGap); err != nil {
			return l.finish(ctx, res)
		}
	}

	reading, err := l.sensor.Read(ctx)
	if err != nil {
		if l.fail(&res, StepSensor, err) == ActionSkip {
			return l.finish(ctx, res)
		}
	} else {
		res.Reading = &reading
		logger.Printf("Sensor Data - Temperature: %g, Humidity: %g, pH: %g",
			reading.Temperature, reading.Humidity, reading.PH)

		crop, err := l.client.RecommendCrop(ctx, reading)
		if err != nil {
			if l.fail(&res, StepSoil, err) == ActionSkip {
				return l.finish(ctx, res)
			}
		} else {
			res.Crop = crop
			logger.Printf("Recommended Crop: %s", crop)
		}
	}

	return l.finish(ctx, res)
}

func (l *Loop) fail(res *CycleResult, step Step, err error) Action {
	kind := KindOf(err)
	action := Decide(step, kind)
	res.Failures = append(res.Failures, StepFailure{Step: step, Kind: kind, Err: err})
	if action == ActionSkip {
		res.Skipped = true
	}
	logger.Warnf("%s step failed (%s): %v", step, kind, err)
	return action
}

func (l *Loop) capture(frame []byte, at time.Time) {
	if l.captureDir == "" {
		return
	}
	path, err := SaveFrame(l.captureDir, frame, at)
	if err != nil {
		logger.Warnf("capture: %v", err)
		return
	}
	logger.Debugf("Image saved as: %s", path)
}

func (l *Loop) finish(ctx context.Context, res CycleResult) CycleResult {
	res.Duration = l.now().Sub(res.Started)
	logger.LogResult("cycle "+res.ID, len(res.Failures) == 0, res.failureSummary())

	if l.recorder != nil {
		// A cancelled loop still records the cycle it was in.
		rec := res.Record()
		if err := l.recorder.Record(context.WithoutCancel(ctx), &rec); err != nil {
			logger.Errorf("journal: %v", err)
		}
	}
	return res
}

// Record converts the result into its journal row.
func (r CycleResult) Record() journal.CycleRecord {
	rec := journal.CycleRecord{
		CycleID:    r.ID,
		StartedAt:  r.Started,
		DurationMS: r.Duration.Milliseconds(),
		LeafClass:  r.Label,
		Crop:       r.Crop,
		Skipped:    r.Skipped,
	}
	if r.Reading != nil {
		t, h, ph := r.Reading.Temperature, r.Reading.Humidity, r.Reading.PH
		rec.Temperature, rec.Humidity, rec.PH = &t, &h, &ph
	}
	rec.Failures = r.failureSummary()
	return rec
}

// failureSummary lists failures as step:kind pairs, e.g. "leaf:status".
func (r CycleResult) failureSummary() string {
	parts := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		parts = append(parts, f.Step.String()+":"+f.Kind.String())
	}
	return strings.Join(parts, ";")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
