// Package node runs a wire bus node session on top of a transport.
package node

// A Session owns a single transmit buffer and a single receive buffer.
// Send encodes and stuffs a frame into the transmit buffer and hands it to
// the Transport, holding the transmit gate until the Transport reports
// completion. The receive path is driven by Transport events: every frame
// boundary is unstuffed, validated against the node identity and counted
// as received or missed.
//
// Transports deliver events from their own goroutines. Events of the same
// direction must not be delivered concurrently.
