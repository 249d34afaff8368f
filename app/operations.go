package app

import (
	"context"
	"time"

	"github.com/kbukum/audiopen/catalog"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/transcription"
)

// Record captures audio until d elapses, or until ctx is done when d is
// not positive, and saves it. The save itself is not cancelled with ctx so
// an interrupted recording is still uploaded.
func (a *App) Record(ctx context.Context, d time.Duration, title string, onTick func(time.Duration)) (catalog.Recording, error) {
	if err := a.Engine.Start(ctx); err != nil {
		return catalog.Recording{}, err
	}

	var deadline <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-ctx.Done():
			break wait
		case <-deadline:
			break wait
		case <-ticker.C:
			if onTick != nil {
				onTick(a.Engine.Elapsed())
			}
		}
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.gracefulTimeout+a.Cfg.Supabase.Timeout)
	defer cancel()
	return a.Saver.StopAndSave(saveCtx, a.Engine, title)
}

// Recording returns the catalog entry id, loading the catalog when the
// entry is not in the current view.
func (a *App) Recording(ctx context.Context, id string) (catalog.Recording, error) {
	if rec, ok := a.Catalog.Get(id); ok {
		return rec, nil
	}
	if _, err := a.Catalog.Load(ctx); err != nil {
		return catalog.Recording{}, err
	}
	if rec, ok := a.Catalog.Get(id); ok {
		return rec, nil
	}
	return catalog.Recording{}, apperrors.NotFound("recording", id)
}

// Transcribe resolves the recording and the prompt and runs a
// transcription. custom is the text for the custom-prompt built-in.
func (a *App) Transcribe(ctx context.Context, recordingID, promptID, custom string) (*transcription.Result, error) {
	if a.Transcriber == nil {
		return nil, apperrors.Validation("transcription is not configured: set supabase.url or transcription.functions_url")
	}
	rec, err := a.Recording(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	p, err := a.Prompts.Resolve(ctx, promptID, custom)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("transcribing", logger.Fields(logger.FieldRecordingID, rec.ID, logger.FieldPromptID, p.ID()))
	return a.Transcriber.Transcribe(ctx, rec, p)
}
