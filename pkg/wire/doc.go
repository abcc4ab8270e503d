// Package wire provides the bit-level protocol of the shared wire bus.
package wire

// The bus is a single wire shared by all nodes. Each packet carries a 16-bit
// arbitration address, a header word (reserve byte and payload length), an
// even-length payload of at most MaxPayloadSize bytes, a CRC-16 checksum and
// the terminator word 0xFFFF.
//
// Everything up to and including the checksum is bit stuffed: after five
// identical bits the complement is inserted, so the stuffed region never
// contains a byte of all ones. The terminator is appended unstuffed after
// zero padding to a word boundary and marks the end of the packet on the wire.
//
// The checksum is kept away from the terminator value by flipping the top bit
// of the header word until it differs.
//
// Producer: any node
// Consumer: every other node on the wire (address filtered)
