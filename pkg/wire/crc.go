package wire

import "github.com/sigurn/crc16"

// Checksum parameters.
const (
	CRCPoly uint16 = 0x8005
	CRCInit uint16 = 0xFFFF
)

// CRC16CMS describes the checksum: polynomial 0x8005, MSB first, no final xor.
var CRC16CMS = crc16.Params{
	Poly:   CRCPoly,
	Init:   CRCInit,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x0000,
	Check:  0xAEE7,
	Name:   "CRC-16/CMS",
}

var crcTable = crc16.MakeTable(CRC16CMS)

// CRC16Update feeds one byte into the checksum register, MSB first.
func CRC16Update(b byte, reg uint16) uint16 {
	for i := 0; i < 8; i++ {
		if (reg&0x8000 != 0) != (b&0x80 != 0) {
			reg = (reg << 1) ^ CRCPoly
		} else {
			reg <<= 1
		}
		b <<= 1
	}
	return reg
}

// CRC16 computes the checksum bit by bit starting from CRCInit.
func CRC16(data []byte) uint16 {
	reg := CRCInit
	for _, b := range data {
		reg = CRC16Update(b, reg)
	}
	return reg
}

// Checksum computes the same value as CRC16 using a lookup table.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// checksumWords computes the checksum over words in big-endian byte order.
func checksumWords(words []uint16) uint16 {
	crc := crc16.Init(crcTable)
	var buf [2]byte
	for _, w := range words {
		buf[0], buf[1] = byte(w>>8), byte(w)
		crc = crc16.Update(crc, buf[:], crcTable)
	}
	return crc16.Complete(crc, crcTable)
}
