package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// StateList prints every stored snapshot key, one per line.
func StateList(ctx context.Context, opts RunOptions, w io.Writer) error {
	return withStore(opts, func(b *Backend) error {
		keys, err := b.Store.List(ctx)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(w, k)
		}
		return nil
	})
}

// StateGet prints the snapshot stored under key as indented JSON.
func StateGet(ctx context.Context, opts RunOptions, key string, w io.Writer) error {
	return withStore(opts, func(b *Backend) error {
		value, err := b.Store.Load(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to load %q: %w", key, err)
		}
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	})
}

// StateRemove deletes the snapshots stored under keys.
func StateRemove(ctx context.Context, opts RunOptions, keys ...string) error {
	return withStore(opts, func(b *Backend) error {
		for _, k := range keys {
			if err := b.Store.Delete(ctx, k); err != nil {
				return fmt.Errorf("failed to delete %q: %w", k, err)
			}
		}
		return nil
	})
}

func withStore(opts RunOptions, fn func(*Backend) error) error {
	opts.ApplyEnv(nil)
	b, err := OpenStore(opts)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}
