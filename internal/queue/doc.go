// Package queue carries utterances from the producers (microphone transcription,
// console input, key-triggered caption clears) to the single synthesis consumer.
// Arrival order is preserved across all producers and the consumer waits with a
// bounded poll interval so it can notice shutdown.
package queue
