package internal

import "time"

// Comparison records one texdiff run.
type Comparison struct {
	ID             string    `json:"id"`
	OldPath        string    `json:"old_path"`
	NewPath        string    `json:"new_path"`
	OldHash        string    `json:"old_hash"`
	NewHash        string    `json:"new_hash"`
	OutputPath     string    `json:"output_path"`
	AdditionColour string    `json:"addition_colour"`
	DeletionColour string    `json:"deletion_colour"`
	Provider       string    `json:"provider"`
	Additions      int       `json:"additions"`
	Deletions      int       `json:"deletions"`
	Warnings       int       `json:"warnings"`
	FromCache      bool      `json:"from_cache"`
	Timestamp      time.Time `json:"timestamp"`
}
