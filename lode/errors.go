package lode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Report storage failure kinds. A failed report write never fails the scan,
// but the CLI names the kind so "bucket missing" reads differently from
// "credentials missing". Match with errors.Is.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrAccessDenied     = errors.New("access denied")
	ErrNotFound         = errors.New("not found")
	ErrDiskFull         = errors.New("no space left on device")
	ErrTimeout          = errors.New("operation timed out")
	ErrThrottled        = errors.New("rate limited")
	ErrAuth             = errors.New("authentication failed")
	ErrNetwork          = errors.New("network error")

	errUnclassified = errors.New("storage error")
)

// Storage operations named in a StorageError.
const (
	OpInit  = "init"
	OpRead  = "read"
	OpWrite = "write"
)

// StorageError is a classified report storage failure.
type StorageError struct {
	Kind error
	Op   string
	// Path is the dataset, snapshot or record the operation touched.
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("report %s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches the classification kind, so errors.Is(err, ErrTimeout) works
// alongside matching the cause.
func (e *StorageError) Is(target error) bool { return e.Kind == target }

// wrapStorage classifies err and wraps it for op on path.
// Returns nil if err is nil.
func wrapStorage(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Kind: classifyError(err), Op: op, Path: path, Err: err}
}

// messageRules map lowercase message fragments to a kind, first match wins.
// Access denied precedes permission denied because S3 403 bodies say both.
var messageRules = []struct {
	kind      error
	fragments []string
}{
	{ErrAccessDenied, []string{"accessdenied", "forbidden", "403"}},
	{ErrPermissionDenied, []string{"permission denied", "access denied", "eacces"}},
	{ErrNotFound, []string{"no such file", "does not exist", "not found", "enoent", "404", "nosuchkey", "nosuchbucket"}},
	{ErrDiskFull, []string{"no space left", "disk full", "enospc", "quota exceeded"}},
	{ErrTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ErrThrottled, []string{"slowdown", "rate exceeded", "throttl", "429", "toomanyrequests"}},
	{ErrAuth, []string{"nocredentialproviders", "credentials", "invalidaccesskeyid", "signaturedoesnotmatch", "expiredtoken", "401", "unauthorized"}},
	{ErrNetwork, []string{"connection refused", "no route to host", "network unreachable", "dns", "dial tcp"}},
}

// classifyError picks the kind for err. Typed errors are checked before
// falling back to message fragments, which is all the S3 SDK offers for
// most failures.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var timeout interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.As(err, &timeout) && timeout.Timeout():
		return ErrTimeout
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		for _, frag := range rule.fragments {
			if strings.Contains(msg, frag) {
				return rule.kind
			}
		}
	}
	return errUnclassified
}
