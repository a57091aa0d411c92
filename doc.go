/*
Package orchard is a model-based fuzzing engine. A pit describes the messages a target
speaks (data models), the conversation it expects (state models) and how to reach it
(tests binding publishers). Orchard compiles the pit and walks its state models, rendering
outputs, cracking inputs back into models and calling out to publishers and agents.

# Concept

Orchard keeps the description of a protocol apart from the machinery that exercises it.
The pit is plain data read from a directory (through Loam), a single YAML file or a
custom loader. Publishers are the transports, resolved by class name from a registry.
Runs are recorded in a pluggable store (memory, file or Redis) so an HTTP server or a
later process can inspect them.

# Key Features

  - Data models: numbers, strings, blobs, blocks and padding, tied together by size,
    offset and count relations.
  - State models: output, input, call, property, slurp and change-state actions with
    guards and start/complete hooks.
  - Soft failures: a target answering with something that does not crack ends the
    iteration, not the run.
  - Observability: lifecycle hooks, Prometheus metrics and server-sent events.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/orchard"
	)

	func main() {
		// Compile the pit found in ./login-pit
		eng, err := orchard.New("./login-pit")
		if err != nil {
			log.Fatal(err)
		}

		rec, err := eng.Run(context.Background(), "Default")
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("%s after %d iterations (%d soft failures)", rec.Status, rec.Iterations, rec.SoftFailures)
	}
*/
package orchard
