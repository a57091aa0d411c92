package domain

// ActionKind is the operation an action performs.
type ActionKind string

const (
	KindStart       ActionKind = "start"
	KindStop        ActionKind = "stop"
	KindOpen        ActionKind = "open"
	KindClose       ActionKind = "close"
	KindConnect     ActionKind = "connect"
	KindAccept      ActionKind = "accept"
	KindInput       ActionKind = "input"
	KindOutput      ActionKind = "output"
	KindCall        ActionKind = "call"
	KindGetProperty ActionKind = "getProperty"
	KindSetProperty ActionKind = "setProperty"
	KindChangeState ActionKind = "changeState"
	KindSlurp       ActionKind = "slurp"
)

// ActionKinds returns every kind, in declaration order.
func ActionKinds() []ActionKind {
	return []ActionKind{
		KindStart, KindStop, KindOpen, KindClose, KindConnect, KindAccept,
		KindInput, KindOutput, KindCall, KindGetProperty, KindSetProperty,
		KindChangeState, KindSlurp,
	}
}

// Valid reports whether k is one of the known kinds.
func (k ActionKind) Valid() bool {
	for _, known := range ActionKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// HasData reports whether actions of this kind carry a data model.
func (k ActionKind) HasData() bool {
	switch k {
	case KindInput, KindOutput, KindGetProperty, KindSetProperty:
		return true
	}
	return false
}
