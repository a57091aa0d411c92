/*
Package ports defines the driven ports (interfaces) of the Orchard engine.

These interfaces decouple the engine from transports, parsers, storage backends and pit
sources, so the same run can be driven against memory fakes in tests and real adapters
in production.

# Key Interfaces

  - Publisher: a transport actions start, open, write to and read from.
  - Agent: the out-of-band channel to monitoring agents.
  - Cracker: parses received bytes back into a data model.
  - RunStore: persists run records.
  - DistributedLocker: serializes runs of the same test across processes.
  - PitLoader: retrieves the raw documents a pit is compiled from.
*/
package ports
