/*
Package datamodel describes binary data as a tree of typed elements.

Every element caches its value. Values are generated lazily and dropped by Invalidate, which
walks the tree's dependency edges and the container chain so that nothing derived from the
changed element is read stale.

Cross-element constraints are expressed as relations (size-of, offset-of, count-of) held in
per-element relation graphs:

	model := datamodel.NewDataModel("Packet")
	length := datamodel.NewNumber("Length", 16, 0)
	payload := datamodel.NewBlob("Payload", []byte("hello"))
	_ = model.Append(length)
	_ = model.Append(payload)
	_, _ = datamodel.Relate(datamodel.SizeOf, length, payload)

	out, _ := model.Render() // 00 05 68 65 6c 6c 6f

Padding derives its length from an alignment target or from an expression and is guarded
against reading itself while it is being generated.

A tree is not safe for concurrent use. Independent runs work on their own Clone of a shared,
read-only template.
*/
package datamodel
