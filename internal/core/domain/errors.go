package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUploadNotFound = errors.New("upload not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTemporary      = errors.New("temporary failure")

	// ErrGeneration marks a failed generation-model call. It is the only
	// pipeline failure allowed to reach the orchestrator boundary.
	ErrGeneration = errors.New("answer generation failed")

	// ErrRetrieval marks a total retrieval failure: every variant errored on
	// both the diversity-aware and the plain search path.
	ErrRetrieval = errors.New("retrieval failed")
)

// User-visible replies are always one of these fixed sentences; no stack
// traces or partial data ever surface to the caller.
const (
	RefusalAnswer  = "I’m sorry, I don’t have information on that."
	OffTopicAnswer = "I’m sorry, I can only answer questions related to IIT Ropar."
	FailureAnswer  = "I encountered an error while processing your request."
	GreetingAnswer = "Hello! I'm the IIT Ropar chatbot. How can I help you today?"
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
