// Package audio holds PCM clips and plays them through the system output.
// Speech and sound effects share one oto context; each clip gets its own
// stream so effects can overlap speech.
package audio
