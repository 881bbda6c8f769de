/*
Package tideloom is a recursive task-execution engine for declarative
workflow documents.

A workflow is a tree of named tasks. Atomic tasks (call, set, emit,
listen, raise, wait, run) perform one effect; composite tasks (do, fork,
for, switch, try) arrange child tasks and recurse through the same
execution path. Every task maps an input value to an output value, and
composites thread those values through their children, so the whole
workflow is one fold over the tree.

# Concept

The engine is stateless between runs. All per-run state lives in a
RunContext: shared variables, the event bus, the process runner and the
HTTP client. Branching constructs (fork branches, for iterations, catch
blocks) execute against copy-on-write overlays of that context and merge
their writes back only when they complete, so concurrent branches never
observe each other's half-finished state.

Failures carry a breadcrumb path from the workflow root down to the task
that failed, which try tasks can intercept, filter by kind, retry with
backoff, and recover from.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"
		"os"

		"github.com/tideloom/tideloom"
	)

	func main() {
		doc, err := os.ReadFile("workflow.yaml")
		if err != nil {
			log.Fatal(err)
		}

		eng := tideloom.New()
		out, err := eng.Run(context.Background(), doc, map[string]any{"user": "ada"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(out)
	}

Hosts that need more control can parse once with Engine.Parse, build run
contexts with Engine.NewRunContext, and execute with Engine.RunWorkflow.
Custom task handlers, an event bus, and a process allow-list are wired
in through options on New.
*/
package tideloom
