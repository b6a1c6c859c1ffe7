// Package engines provides the speech synthesis backends: piper for offline
// speech, gTTS through ffmpeg for online speech, and a mock for tests and
// machines without either.
package engines
