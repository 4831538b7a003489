package domain

import "errors"

var (
	// ErrCheckpointSetNotFound indicates no checkpoint configuration exists for a video.
	ErrCheckpointSetNotFound = errors.New("checkpoint set not found")
	// ErrSessionNotFound is returned when a viewer session has not been initialized.
	ErrSessionNotFound = errors.New("player session not found")
	// ErrCheckpointNotFound indicates a referenced checkpoint ID is unknown.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	// ErrNoActivePrompt is returned when an answer arrives while no question is showing.
	ErrNoActivePrompt = errors.New("no active prompt")
	// ErrChoiceNotFound indicates a submitted choice is not among the checkpoint's options.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrThreadNotFound indicates a forum thread ID does not exist.
	ErrThreadNotFound = errors.New("thread not found")
)
