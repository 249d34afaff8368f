// Package capture records microphone audio into an immutable Blob.
//
// An Engine owns at most one session and walks it through
// idle -> recording <-> paused -> stopped. Audio comes from a Device:
// FFmpegDevice streams opus-in-webm from an ffmpeg subprocess and
// SyntheticDevice generates a WAV tone for tests and headless runs.
//
//	eng := capture.NewEngine(capture.NewDevice(cfg, log), cfg, log)
//	if err := eng.Start(ctx); err != nil {
//	    return err // DEVICE_PERMISSION_DENIED or DEVICE_UNAVAILABLE
//	}
//	...
//	blob, err := eng.Stop()
//
// Pausing suspends the device itself, so every fragment the device delivers
// belongs to the container and is kept. The recorded duration counts only
// time spent recording.
package capture
