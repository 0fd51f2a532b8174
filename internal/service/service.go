// Package service runs the intent classifier: it trains or loads the model
// bundle once at startup and then answers Classify calls read-only.
package service

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync/atomic"
	"time"

	"azura/internal/ner"
	"azura/internal/nlu"
	"azura/pkg/util"
)

var ErrNotReady = errors.New("classifier not ready")

type State int32

const (
	Uninitialized State = iota
	Loading
	Training
	Saving
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Training:
		return "training"
	case Saving:
		return "saving"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Config struct {
	ModelDir string
	DataPath string
	Retrain  bool
	Train    nlu.TrainOptions
}

// Classification is the service's answer for one sentence. Entities and
// Labels always have the same length and order.
type Classification struct {
	Intent   string
	Entities []string
	Labels   []string
}

type Service struct {
	cfg       Config
	paths     nlu.Paths
	extractor ner.Extractor

	state  atomic.Int32
	bundle *nlu.Bundle
}

func New(cfg Config, extractor ner.Extractor) *Service {
	return &Service{
		cfg:       cfg,
		paths:     nlu.DefaultPaths(cfg.ModelDir),
		extractor: extractor,
	}
}

func (s *Service) State() State {
	return State(s.state.Load())
}

func (s *Service) setState(st State) {
	log.Debug("Classifier state", "from", s.State(), "to", st)
	s.state.Store(int32(st))
}

// Bundle returns the loaded bundle, or nil before Ready.
func (s *Service) Bundle() *nlu.Bundle {
	if s.State() != Ready {
		return nil
	}
	return s.bundle
}

// Start loads the persisted bundle, or trains and saves one when nothing is
// persisted (or Retrain is set). Any failure is fatal: the service moves to
// Failed and never serves.
func (s *Service) Start(ctx context.Context) error {
	if s.State() != Uninitialized {
		return fmt.Errorf("start: service is %s", s.State())
	}

	b, err := s.start(ctx)
	if err != nil {
		s.setState(Failed)
		return err
	}

	s.bundle = b
	s.setState(Ready)
	log.Info("Classifier ready",
		"version", b.Version, "classes", b.Labels.Len(), "vocab", b.Vocabulary.Len(), "max_seq_size", b.MaxSeqSize)
	return nil
}

func (s *Service) start(ctx context.Context) (*nlu.Bundle, error) {
	if s.cfg.Retrain || !s.paths.Exists() {
		return s.train(ctx)
	}

	s.setState(Loading)
	b, err := nlu.Load(s.paths)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) train(ctx context.Context) (*nlu.Bundle, error) {
	s.setState(Training)
	log.Info("Creating the model", "data", s.cfg.DataPath)

	examples, err := nlu.LoadCorpus(s.cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := nlu.Train(examples, s.cfg.Train)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	log.Info("Training done", "took", time.Since(started), "accuracy", res.Report.Accuracy, "f1", res.Report.F1)
	log.Info("Classification report\n" + res.Report.String())

	s.setState(Saving)
	if err := nlu.Save(res.Bundle, s.paths); err != nil {
		return nil, err
	}
	return res.Bundle, nil
}

// Classify predicts the intent of sentence and extracts its entities. It is
// safe for concurrent use once the service is Ready.
func (s *Service) Classify(ctx context.Context, sentence string) (Classification, error) {
	if s.State() != Ready {
		return Classification{}, ErrNotReady
	}

	intent, err := s.bundle.Predict(sentence)
	if err != nil {
		return Classification{}, fmt.Errorf("predict: %w", err)
	}

	ents, err := s.extractor.Extract(ctx, sentence)
	if err != nil {
		return Classification{}, fmt.Errorf("extract entities: %w", err)
	}

	texts, labels := util.Unzip(ents, func(e ner.Entity) (string, string) { return e.Text, e.Label })
	return Classification{Intent: intent, Entities: texts, Labels: labels}, nil
}
