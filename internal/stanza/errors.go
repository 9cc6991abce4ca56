package stanza

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSourceUnreadable      = errors.New("source unreadable")
	ErrDestinationUnwritable = errors.New("destination unwritable")
	ErrManifestUnreadable    = errors.New("manifest unreadable")
	ErrFragmentMissing       = errors.New("fragment missing")
	ErrEncodingInconsistency = errors.New("encoding inconsistency")
)

// wrap tags err with marker and an operation/path detail so callers can both
// classify it with errors.Is and read where it happened.
func wrap(marker error, operation, path string, err error) error {
	detail := buildDetail(operation, path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, path string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if path = strings.TrimSpace(path); path != "" {
		parts = append(parts, path)
	}
	if len(parts) == 0 {
		return "stanza failure"
	}
	return strings.Join(parts, " ")
}

// ErrorKind returns a short stable label for err, suitable for logs and run
// history. Errors that carry no stanza marker report "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceUnreadable):
		return "source_unreadable"
	case errors.Is(err, ErrDestinationUnwritable):
		return "destination_unwritable"
	case errors.Is(err, ErrManifestUnreadable):
		return "manifest_unreadable"
	case errors.Is(err, ErrFragmentMissing):
		return "fragment_missing"
	case errors.Is(err, ErrEncodingInconsistency):
		return "encoding_inconsistency"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
