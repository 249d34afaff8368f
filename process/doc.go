// Package process runs external tools. Run executes a command to
// completion; Start launches a long-running command whose stdout is
// streamed, which is how the ffmpeg capture device reads encoded audio.
//
// Commands run in their own process group so that signals (SIGSTOP and
// SIGCONT for pause, SIGINT for a clean stop) reach every child.
package process
