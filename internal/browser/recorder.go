package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/conduit-e2e/internal/common"
)

// RecorderOptions configures screencast capture
type RecorderOptions struct {
	Dir           string
	EveryNthFrame int64
	MaxFrames     int
	Quality       int64
}

// Recorder captures the page as a numbered JPEG frame sequence
type Recorder struct {
	opts   RecorderOptions
	logger arbor.ILogger

	mu      sync.Mutex
	frames  int
	dropped int
	stopped bool
	cancel  context.CancelFunc
	ctx     context.Context
}

// NewRecorder creates a recorder writing into opts.Dir
func NewRecorder(opts RecorderOptions, logger arbor.ILogger) *Recorder {
	if opts.EveryNthFrame <= 0 {
		opts.EveryNthFrame = 6
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = 300
	}
	if opts.Quality <= 0 {
		opts.Quality = 60
	}
	return &Recorder{opts: opts, logger: logger}
}

// Start begins the screencast on the browser context
func (r *Recorder) Start(browserCtx context.Context) error {
	if err := os.MkdirAll(r.opts.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create video directory: %w", err)
	}

	listenCtx, cancel := context.WithCancel(browserCtx)
	r.mu.Lock()
	r.ctx = browserCtx
	r.cancel = cancel
	r.mu.Unlock()

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		if frame, ok := ev.(*page.EventScreencastFrame); ok {
			r.handleFrame(listenCtx, frame)
		}
	})

	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return page.StartScreencast().
				WithFormat(page.ScreencastFormatJpeg).
				WithQuality(r.opts.Quality).
				WithEveryNthFrame(r.opts.EveryNthFrame).
				Do(ctx)
		}),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start screencast: %w", err)
	}

	r.logger.Debug().Str("dir", r.opts.Dir).Msg("Video recording started")
	return nil
}

func (r *Recorder) handleFrame(ctx context.Context, frame *page.EventScreencastFrame) {
	sessionID := frame.SessionID
	common.SafeGo(r.logger, "screencast-ack", func() {
		if err := chromedp.Run(ctx, page.ScreencastFrameAck(sessionID)); err != nil {
			r.logger.Debug().Err(err).Msg("Screencast frame ack failed")
		}
	})

	r.mu.Lock()
	if r.stopped || r.frames >= r.opts.MaxFrames {
		r.dropped++
		r.mu.Unlock()
		return
	}
	r.frames++
	n := r.frames
	r.mu.Unlock()

	data, err := base64.StdEncoding.DecodeString(frame.Data)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to decode screencast frame")
		return
	}

	path := filepath.Join(r.opts.Dir, fmt.Sprintf("frame_%05d.jpg", n))
	if err := os.WriteFile(path, data, 0644); err != nil {
		r.logger.Warn().Err(err).Str("path", path).Msg("Failed to write screencast frame")
	}
}

// Stop ends the screencast and returns the number of frames written
func (r *Recorder) Stop() int {
	r.mu.Lock()
	if r.stopped || r.ctx == nil {
		frames := r.frames
		r.mu.Unlock()
		return frames
	}
	r.stopped = true
	ctx, cancel := r.ctx, r.cancel
	frames, dropped := r.frames, r.dropped
	r.mu.Unlock()

	if err := chromedp.Run(ctx, page.StopScreencast()); err != nil {
		r.logger.Debug().Err(err).Msg("Stop screencast returned an error")
	}
	cancel()

	r.logger.Debug().
		Int("frames", frames).
		Int("dropped", dropped).
		Msg("Video recording stopped")
	return frames
}

// Frames returns the number of frames written so far
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
