package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/lobster/pkg/domain"
)

// StdinFormat selects how pipeline items are written to a subprocess.
type StdinFormat string

const (
	StdinNone  StdinFormat = ""
	StdinJSON  StdinFormat = "json"  // one JSON array
	StdinJSONL StdinFormat = "jsonl" // one JSON value per line
	StdinRaw   StdinFormat = "raw"   // strings verbatim, other items as JSON, newline separated
)

// ParseStdinFormat validates a --stdin value.
func ParseStdinFormat(s string) (StdinFormat, error) {
	switch f := StdinFormat(s); f {
	case StdinNone, StdinJSON, StdinJSONL, StdinRaw:
		return f, nil
	default:
		return "", fmt.Errorf("unknown stdin format %q (want json, jsonl or raw)", s)
	}
}

// EncodeStdin drains input and renders it in format. StdinNone drains and
// returns an empty reader.
func EncodeStdin(ctx context.Context, input domain.Stream, format StdinFormat) (io.Reader, error) {
	if format == StdinNone {
		if err := domain.Discard(ctx, input); err != nil {
			return nil, err
		}
		return bytes.NewReader(nil), nil
	}

	items, err := domain.Collect(ctx, input)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case StdinJSON:
		if err := json.NewEncoder(&buf).Encode(items); err != nil {
			return nil, fmt.Errorf("failed to encode stdin: %w", err)
		}
	case StdinJSONL:
		enc := json.NewEncoder(&buf)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return nil, fmt.Errorf("failed to encode stdin: %w", err)
			}
		}
	case StdinRaw:
		for _, item := range items {
			if s, ok := item.(string); ok {
				buf.WriteString(s)
			} else {
				data, err := json.Marshal(item)
				if err != nil {
					return nil, fmt.Errorf("failed to encode stdin: %w", err)
				}
				buf.Write(data)
			}
			buf.WriteByte('\n')
		}
	}
	return &buf, nil
}
