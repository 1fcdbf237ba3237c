// Package meeting turns a finished capture into stored artifacts and a
// session history entry.
package meeting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jwulff/meetnotes/internal/capture"
	"github.com/jwulff/meetnotes/internal/persist"
	"github.com/jwulff/meetnotes/internal/session"
	"github.com/jwulff/meetnotes/internal/transcribe"
)

// DefaultFilePrefix names artifacts when no prefix is configured.
const DefaultFilePrefix = "Meeting"

// Transcriber is the AI surface the processor needs.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	Summarize(ctx context.Context, text string) (transcribe.Summary, error)
}

// Saver stores a session's artifacts.
type Saver interface {
	SaveSession(dir persist.DirectoryHandle, artifacts ...persist.Artifact) persist.Outcome
}

// Store receives completed sessions.
type Store interface {
	Append(ctx context.Context, s session.Session) error
}

// Config controls naming and optional summarization.
type Config struct {
	FilePrefix    string
	AutoSummarize bool
}

// Result describes one processed capture.
type Result struct {
	Session session.Session
	Outcome persist.Outcome
}

// Processor runs transcribe, persist and append for one capture.
type Processor struct {
	ai     Transcriber
	saver  Saver
	store  Store
	cfg    Config
	clock  func() time.Time
	logger *zap.Logger
}

// NewProcessor wires a processor.
func NewProcessor(ai Transcriber, saver Saver, store Store, cfg Config, logger *zap.Logger) *Processor {
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = DefaultFilePrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{ai: ai, saver: saver, store: store, cfg: cfg, clock: time.Now, logger: logger}
}

// Process transcribes the capture, stores both artifacts under one base
// name and appends the session. A transcription failure leaves no trace.
func (p *Processor) Process(ctx context.Context, dir persist.DirectoryHandle, c capture.Capture) (Result, error) {
	text, err := p.ai.Transcribe(ctx, c.Artifact.Data, c.Artifact.MIMEType)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}

	var summary transcribe.Summary
	if p.cfg.AutoSummarize {
		summary, err = p.ai.Summarize(ctx, text)
		if err != nil {
			p.logger.Warn("summary skipped", zap.Error(err))
			summary = transcribe.Summary{}
		}
	}

	now := p.clock()
	id := session.NewID(now)
	base := ArtifactBase(p.cfg.FilePrefix, id)

	outcome := p.saver.SaveSession(dir,
		persist.Artifact{Name: base + c.Artifact.Extension, Data: c.Artifact.Data},
		persist.Artifact{Name: base + ".txt", Data: []byte(text)},
	)

	sess := session.Session{
		ID:            id,
		Date:          session.FormatDate(now),
		Title:         session.DefaultTitle(now),
		Duration:      c.Duration,
		Transcription: text,
		Summary:       summary.Summary,
		ActionItems:   summary.ActionItems,
	}
	if err := p.store.Append(ctx, sess); err != nil {
		return Result{Outcome: outcome}, fmt.Errorf("store session: %w", err)
	}

	p.logger.Info("session processed",
		zap.String("id", id),
		zap.Int("duration", c.Duration),
		zap.Bool("inDirectory", outcome.InDirectory))
	return Result{Session: sess, Outcome: outcome}, nil
}

// Continuation adapts Process to the capture pipeline. done receives the
// result on success.
func (p *Processor) Continuation(dir persist.DirectoryHandle, done func(Result)) capture.Continuation {
	return func(ctx context.Context, c capture.Capture) error {
		res, err := p.Process(ctx, dir, c)
		if err != nil {
			return err
		}
		if done != nil {
			done(res)
		}
		return nil
	}
}

// ArtifactBase is the shared file name stem for a session.
func ArtifactBase(prefix, id string) string {
	return prefix + "_" + id
}
