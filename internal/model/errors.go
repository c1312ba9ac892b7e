package model

import (
	"errors"
	"fmt"
)

// DefinitionReason identifies why a catalogue row could not be registered.
type DefinitionReason string

const (
	DuplicateKey     DefinitionReason = "duplicate key"
	UndefinedParent  DefinitionReason = "undefined parent"
	AmbiguousRow     DefinitionReason = "ambiguous row"
	RowMatchesNoKind DefinitionReason = "row matches no kind"
)

// Sentinels for errors.Is matching against a DefinitionError.
var (
	ErrDuplicateKey     = errors.New(string(DuplicateKey))
	ErrUndefinedParent  = errors.New(string(UndefinedParent))
	ErrAmbiguousRow     = errors.New(string(AmbiguousRow))
	ErrRowMatchesNoKind = errors.New(string(RowMatchesNoKind))
	ErrUndefinedElement = errors.New("undefined element")
	ErrFrozen           = errors.New("hierarchy is frozen")
)

// DefinitionError is raised while building the element hierarchy.
// Row is the 1-indexed catalogue row, zero when unknown.
type DefinitionError struct {
	Reason DefinitionReason
	Row    int
	Key    string
	Detail string
}

func (e *DefinitionError) Error() string {
	msg := string(e.Reason)
	if e.Key != "" {
		msg = fmt.Sprintf("%s '%s'", msg, e.Key)
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("row #%d: %s", e.Row, msg)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches the reason sentinels.
func (e *DefinitionError) Is(target error) bool {
	switch target {
	case ErrDuplicateKey:
		return e.Reason == DuplicateKey
	case ErrUndefinedParent:
		return e.Reason == UndefinedParent
	case ErrAmbiguousRow:
		return e.Reason == AmbiguousRow
	case ErrRowMatchesNoKind:
		return e.Reason == RowMatchesNoKind
	}
	return false
}

// ReferenceError reports a key that is absent from the hierarchy.
type ReferenceError struct {
	Key string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("element '%s' is not defined", e.Key)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrUndefinedElement }

// SyntaxError reports a flow-file line that matches no grammar rule.
// Line is 0-indexed.
type SyntaxError struct {
	File string
	Line int
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: line '%s' cannot be parsed", e.File, e.Line, e.Text)
}

// DuplicateProcessNameError reports two processes sharing a full name.
type DuplicateProcessNameError struct {
	Name   string
	First  string
	Second string
}

func (e *DuplicateProcessNameError) Error() string {
	return fmt.Sprintf("duplicate process name '%s' in %s and %s", e.Name, e.First, e.Second)
}
