/*
Package domain contains the entities of a fuzzing run: the document (Dom) loaded from a pit,
its state models, states and actions, the tests that bind state models to publishers, and
the RunContext threaded through one execution.

It holds no I/O. Transports, crackers and stores are reached through the interfaces declared
here (Publisher, Agent) and in package ports.

# Key Entities

  - Action: one protocol step of a closed set of kinds, owning a read-only template data
    model and the working copy that is re-cloned before every iteration.
  - State: an ordered list of actions.
  - StateModel: named states, the initial state and the history of executed actions.
  - Test: a state model bound to ordered, named publishers plus run options.
  - Dom: the document root; Select evaluates XPath selectors over it.
*/
package domain
