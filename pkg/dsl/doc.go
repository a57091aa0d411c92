/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing pits.

It allows developers to define data models, state models and tests using a type-safe, fluent
builder pattern instead of writing YAML by hand. This is particularly useful for generated pits
and unit testing.

Example usage:

	b := dsl.New("login")

	b.DataModel("Login").
		Number("Length", 8, 0).SizeOf("User").
		String("User", "guest")

	b.StateModel("Proto", "Init").
		State("Init").
		Output("Send", "Login").
		ChangeState("Done", "Bye")

	b.StateModel("Proto", "Init").
		State("Bye").
		Close("Close")

	b.Test("Default", "Proto").
		Publisher("tcp", "memory", nil).
		Iterations(10)

	// The result is a ports.PitLoader
	loader, _ := b.Build()
	// ... pass loader to orchard.New("", orchard.WithLoader(loader))
*/
package dsl
