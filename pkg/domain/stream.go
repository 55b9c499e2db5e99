package domain

import (
	"context"
	"io"
)

// Item is a single JSON-like value flowing through a pipeline: nil, bool,
// numbers, string, []any, map[string]any, or any value that marshals to JSON.
type Item = any

// Stream is a lazily produced sequence of items. Next returns io.EOF once the
// sequence is exhausted and keeps returning it afterwards. A Stream is consumed
// at most once; it is not safe for concurrent use.
type Stream interface {
	Next(ctx context.Context) (Item, error)
}

// StreamFunc adapts a function to the Stream interface.
type StreamFunc func(ctx context.Context) (Item, error)

// Next calls f(ctx).
func (f StreamFunc) Next(ctx context.Context) (Item, error) { return f(ctx) }

type sliceStream struct {
	items []Item
	pos   int
}

func (s *sliceStream) Next(ctx context.Context) (Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	item := s.items[s.pos]
	s.items[s.pos] = nil
	s.pos++
	return item, nil
}

// FromSlice returns a stream over items. The slice is copied, so the caller may
// reuse it.
func FromSlice(items []Item) Stream {
	cp := make([]Item, len(items))
	copy(cp, items)
	return &sliceStream{items: cp}
}

// Of is a variadic shorthand for FromSlice.
func Of(items ...Item) Stream {
	return FromSlice(items)
}

// Empty returns an exhausted stream.
func Empty() Stream {
	return &sliceStream{}
}

// OrEmpty returns s, or an empty stream when s is nil.
func OrEmpty(s Stream) Stream {
	if s == nil {
		return Empty()
	}
	return s
}

// Collect drains s into a slice, preserving order.
func Collect(ctx context.Context, s Stream) ([]Item, error) {
	items := []Item{}
	if s == nil {
		return items, nil
	}
	for {
		item, err := s.Next(ctx)
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}

// Discard drains s without keeping anything. Commands that do not read their
// input call it so that upstream producers run to completion.
func Discard(ctx context.Context, s Stream) error {
	if s == nil {
		return nil
	}
	for {
		_, err := s.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Map returns a stream that applies fn to every item of s, one pull at a time.
func Map(s Stream, fn func(ctx context.Context, item Item) (Item, error)) Stream {
	return StreamFunc(func(ctx context.Context) (Item, error) {
		item, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		return fn(ctx, item)
	})
}

// Filter returns a stream with only the items of s for which keep reports true.
func Filter(s Stream, keep func(item Item) bool) Stream {
	return StreamFunc(func(ctx context.Context) (Item, error) {
		for {
			item, err := s.Next(ctx)
			if err != nil {
				return nil, err
			}
			if keep(item) {
				return item, nil
			}
		}
	})
}

// Defer postpones building a stream until its first pull. Commands use it to
// keep expensive work (a subprocess, a network call) lazy.
func Defer(build func(ctx context.Context) (Stream, error)) Stream {
	var inner Stream
	return StreamFunc(func(ctx context.Context) (Item, error) {
		if inner == nil {
			s, err := build(ctx)
			if err != nil {
				inner = errStream{err: err}
			} else {
				inner = OrEmpty(s)
			}
		}
		return inner.Next(ctx)
	})
}

type errStream struct{ err error }

func (e errStream) Next(context.Context) (Item, error) { return nil, e.err }
