// Package app is the composition root. It loads the configuration, starts
// the infrastructure components, selects the catalog and prompt backends
// and wires the capture, artifact, catalog, transcription and autosave
// services together.
//
//	var cfg app.Config
//	_ = config.LoadConfig("audiopen", &cfg)
//	a, err := app.New(&cfg)
//	err = a.RunTask(ctx, func(ctx context.Context, a *app.App) error {
//	    _, err := a.Catalog.Load(ctx)
//	    return err
//	})
package app
