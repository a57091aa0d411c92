/*
Package pit reads fuzzing definitions ("pits") written in YAML and compiles them into a domain.Dom.

A pit declares data models, state models that send and receive them, and tests that bind a
state model to publishers:

	dataModels:
	  - name: Login
	    children:
	      - {name: Length, type: number, size: 8, relations: [{type: size, of: User}]}
	      - {name: User, type: string, value: guest}
	stateModels:
	  - name: Proto
	    initialState: Init
	    states:
	      - name: Init
	        actions:
	          - {name: Send, type: output, dataModel: Login}
	tests:
	  - name: Default
	    stateModel: Proto
	    publishers:
	      - {name: tcp, class: memory}

Parse decodes one document, Load merges every document a ports.PitLoader lists, the Compiler
builds the Dom and Validate reports cross-references that do not resolve.
*/
package pit
