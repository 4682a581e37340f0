// Package pipeline drives a grouping run: decode, normalize, match, group,
// serialize.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"areagroup/internal/config"
	"areagroup/internal/decoder"
	"areagroup/internal/grouper"
	"areagroup/internal/logger"
	"areagroup/internal/matcher"
	"areagroup/internal/models"
	"areagroup/internal/normalizer"
	"areagroup/internal/serializer"
)

// ErrAlreadyRun is returned when Run is called on a pipeline that has left Idle.
var ErrAlreadyRun = errors.New("pipeline already run")

// State is the lifecycle position of a Pipeline.
type State int

// Pipeline states.
const (
	StateIdle State = iota
	StateReading
	StateSerializing
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateSerializing:
		return "serializing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result summarizes a finished run.
type Result struct {
	Tree       models.OutputTree
	Text       string
	Input      string
	Output     string
	Format     string
	RowsRead   int
	Accepted   int
	Filtered   int
	Duplicates int
	Warnings   int
}

// Pipeline owns one grouping run. It is not reusable.
type Pipeline struct {
	cfg        config.Config
	criteria   *matcher.Criteria
	serializer serializer.Serializer
	processor  *normalizer.Processor
	sink       WarningSink
	log        *logger.Logger
	state      State
}

// row is one decoded record with its source line.
type row struct {
	raw  models.RawRecord
	line int
}

// New checks cfg and prepares a run. Configuration problems are reported
// here, before the input is touched, and wrap config.ErrInvalidConfig.
// A nil sink discards warnings; a nil log discards log output.
func New(cfg *config.Config, sink WarningSink, log *logger.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, config.ErrMissingInputPath)
	}

	c := *cfg
	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	s, err := serializer.New(c.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	criteria, err := matcher.New(c.Search)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	if sink == nil {
		sink = discardSink{}
	}

	if log == nil {
		log = logger.NewLoggerTo(io.Discard, "error")
	}

	return &Pipeline{
		cfg:        c,
		criteria:   criteria,
		serializer: s,
		processor:  normalizer.NewProcessor(),
		sink:       sink,
		log:        log,
		state:      StateIdle,
	}, nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return p.state
}

// OutputPath returns where the artifact will be written.
func (p *Pipeline) OutputPath() string {
	return p.cfg.OutputPath()
}

// Run reads every input row, builds the output tree and writes the
// serialized document. Serialization starts only after the last row has been
// grouped. Read and write failures are terminal.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.state != StateIdle {
		return nil, ErrAlreadyRun
	}

	p.state = StateReading

	res := &Result{
		Input:  p.cfg.Input,
		Output: p.cfg.OutputPath(),
		Format: p.serializer.Format(),
	}

	p.log.Debug("Reading input", "input", res.Input, "criteria", p.criteria.String())

	src, err := decoder.Open(p.cfg.Input, decoder.Options{Comma: p.cfg.Comma()})
	if err != nil {
		return nil, p.fail(err)
	}
	defer src.Close()

	p.log.Debug("Header read", "columns", src.Header())

	grp := grouper.New()
	rows := make(chan row)

	g, gctx := errgroup.WithContext(ctx)

	// Producer: pull rows in order; closing the channel marks end of input.
	g.Go(func() error {
		defer close(rows)

		for {
			raw, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}

			if err != nil {
				return err
			}

			select {
			case rows <- row{raw: raw, line: src.Line()}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// Consumer: the only writer of the output tree.
	g.Go(func() error {
		for r := range rows {
			p.processRow(r, grp, res)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, p.fail(fmt.Errorf("failed to read %s: %w", p.cfg.Input, err))
	}

	res.Accepted = grp.Inserted()
	res.Duplicates = grp.Duplicates()
	res.Tree = grp.Tree()

	p.state = StateSerializing

	text, err := serializer.Write(ctx, p.serializer, res.Tree, res.Output)
	if err != nil {
		return nil, p.fail(err)
	}

	res.Text = text
	p.state = StateDone

	p.log.Info("Grouping complete",
		"input", res.Input,
		"output", res.Output,
		"format", res.Format,
		"rows", res.RowsRead,
		"accepted", res.Accepted,
		"warnings", res.Warnings,
	)

	return res, nil
}

func (p *Pipeline) processRow(r row, grp *grouper.Grouper, res *Result) {
	res.RowsRead++

	rec, warnings := p.processor.Process(r.raw)
	p.emit(res, warnings)

	if !p.criteria.Match(rec) {
		res.Filtered++
		p.log.Debug("Row filtered", "line", r.line)

		return
	}

	p.emit(res, grp.Insert(rec))
}

func (p *Pipeline) emit(res *Result, warnings []models.Warning) {
	for _, w := range warnings {
		res.Warnings++
		p.sink.Warn(w)
	}
}

func (p *Pipeline) fail(err error) error {
	p.state = StateFailed
	p.log.Error("Run failed", "error", err)

	return err
}
