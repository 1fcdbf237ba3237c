package cli

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jwulff/meetnotes/internal/capture"
	"github.com/jwulff/meetnotes/internal/config"
	"github.com/jwulff/meetnotes/internal/logging"
	"github.com/jwulff/meetnotes/internal/meeting"
	"github.com/jwulff/meetnotes/internal/persist"
	"github.com/jwulff/meetnotes/internal/session"
	"github.com/jwulff/meetnotes/internal/transcribe"
)

// Hardware and network seams, replaced in tests.
var (
	newPlatform = func(cfg *config.Config, logger *zap.Logger) capture.Platform {
		return capture.NewFFmpegPlatform(cfg.FFmpegPath, cfg.PactlPath, logger)
	}
	newBackend transcribe.BackendFactory
)

// env is the configuration, logger and store shared by every command.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *session.Store
	closeLog func() error
}

// openEnv loads config, then logging, then the session store. console
// receives a copy of the logs when non-nil.
func openEnv(console io.Writer) (*env, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile})
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(logging.Options{
		File:    cfg.LogPath(),
		Level:   cfg.LogLevel,
		Console: console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	store, err := session.Open(cfg.DBPath(), logger.Named("store"))
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	logger.Debug("runtime ready",
		zap.String("dataDir", cfg.DataDir),
		zap.String("model", cfg.Model))
	return &env{cfg: cfg, logger: logger, store: store, closeLog: closeLog}, nil
}

// consoleWriter is stderr when --verbose is set.
func consoleWriter() io.Writer {
	if verbose {
		return os.Stderr
	}
	return nil
}

func (r *env) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Warn("close store", zap.Error(err))
	}
	_ = r.closeLog()
}

func (r *env) transcriber() *transcribe.Client {
	return transcribe.New(transcribe.Options{
		APIKey:  r.cfg.APIKey,
		Model:   r.cfg.Model,
		Timeout: r.cfg.RequestTimeout,
		Backend: newBackend,
	}, r.logger.Named("transcribe"))
}

func (r *env) downloadsDir() string {
	if r.cfg.DownloadsDir != "" {
		return r.cfg.DownloadsDir
	}
	return persist.DefaultDownloadsDir()
}

func (r *env) processor(ai meeting.Transcriber) *meeting.Processor {
	adapter := persist.NewAdapter(persist.FolderDownloader{Dir: r.downloadsDir()}, r.logger.Named("persist"))
	return meeting.NewProcessor(ai, adapter, r.store, meeting.Config{
		FilePrefix:    r.cfg.FilePrefix,
		AutoSummarize: r.cfg.AutoSummarize,
	}, r.logger.Named("meeting"))
}

func (r *env) pipeline() *capture.Pipeline {
	platform := newPlatform(r.cfg, r.logger.Named("ffmpeg"))
	return capture.New(platform, capture.Format{SampleRate: r.cfg.SampleRate}, r.logger.Named("capture"))
}
