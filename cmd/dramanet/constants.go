package main

// Default limits for CLI commands.
const (
	DefaultHistoryLimit = 20
	DefaultSimilarLimit = 5
	DefaultNarrateLimit = 5
)
