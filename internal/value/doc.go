// Package value holds the runtime's typed data: primitive values, shared
// lists and the type descriptors used to decide whether two ports may be
// connected.
//
// A Value is a small tagged struct that is passed by copy. Copying a Value
// that holds a List shares the underlying list, so every holder observes
// the same live contents. Lists guard their contents with a mutex.
//
// Values convert to and from cty so that HCL configuration and JSON payloads
// can be decoded with cty's type-directed conversion rules.
package value
