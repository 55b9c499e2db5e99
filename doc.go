/*
Package lobster is a pipeline engine for deterministic, resumable automation: shell-like pipelines of typed JSON items flowing through registered commands.

A pipeline is text such as

	github.pr.monitor --repo owner/repo --pr 1152 | approve --prompt 'Notify?' | exec --stdin jsonl notify-send

Each stage names a command and its arguments. Commands receive the previous stage's item stream and produce their own. A stage may halt the pipeline (approve does so in tool mode) so that a caller can ask for a decision and run again.

# Concept

Lobster separates parsing (text to stage descriptors), the runtime (stream composition, halting, draining and error attribution) and commands (pure functions over item streams). State that must survive between runs, such as the last observed snapshot of a pull request, lives behind a SnapshotStore port with file, memory and Redis adapters.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/lobster"
	)

	func main() {
		eng, err := lobster.New()
		if err != nil {
			log.Fatal(err)
		}

		res, err := eng.Run(context.Background(), "exec --json --shell 'gh pr list --json number,title' | pick number", lobster.RunOptions{})
		if err != nil {
			log.Fatal(err)
		}
		for _, item := range res.Items {
			fmt.Println(item)
		}
	}
*/
package lobster
