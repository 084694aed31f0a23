package core

import "errors"

// Pipeline error taxonomy. Collaborator wrappers tag their failures with one
// of these sentinels so callers can route on stage via errors.Is without
// inspecting messages.
var (
	ErrAcquisition   = errors.New("acquisition failed")
	ErrTranscription = errors.New("transcription failed")
	ErrSummarization = errors.New("summarization failed")
	ErrStoreWrite    = errors.New("store write failed")
	ErrStoreRead     = errors.New("store read failed")
	ErrStoreSearch   = errors.New("store search failed")
	ErrCompletion    = errors.New("completion failed")
)
