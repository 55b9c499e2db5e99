package compiler

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxPipelineSize is 16KB, generous for hand-written pipelines.
	DefaultMaxPipelineSize = 16 * 1024
	// EnvMaxPipelineSize is the environment variable to override the default.
	EnvMaxPipelineSize = "LOBSTER_MAX_PIPELINE_SIZE"
)

var (
	ErrPipelineTooLarge = errors.New("pipeline exceeds maximum allowed size")
	ErrInvalidUTF8      = errors.New("pipeline contains invalid UTF-8 sequences")
)

// SanitizeInput cleans pipeline text received from remote surfaces by
// enforcing a size limit, validating UTF-8, and stripping control characters
// other than newline, tab and carriage return.
func SanitizeInput(input string) (string, error) {
	limit := maxPipelineSize()
	if len(input) > limit {
		// Rejected rather than truncated: a truncated pipeline is a different pipeline.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrPipelineTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxPipelineSize() int {
	if val := os.Getenv(EnvMaxPipelineSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxPipelineSize
}
