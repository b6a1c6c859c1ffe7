// Package cache keeps synthesized speech so repeated phrases play without
// running the engine again. A bounded LRU in memory sits in front of a
// zstd-compressed store on disk that survives restarts.
package cache
