package plugin

// Event is an occurrence emitted by an engine. It is delivered to every live
// node built from the event schema called Name in package Package.
type Event struct {
	ID      string
	Package string
	Name    string
	Payload any
}
