package env

import (
	"github.com/denisbrodbeck/machineid"

	"github.com/robotalks/wirebus/pkg/wire"
)

// machineAppID keys the protected machine id to this application.
const machineAppID = "wirebus"

// MachineAddress derives a stable self address from the machine id.
func MachineAddress() (wire.Address, error) {
	id, err := machineid.ProtectedID(machineAppID)
	if err != nil {
		return 0, err
	}
	return addressFromID(id), nil
}

func addressFromID(id string) wire.Address {
	addr := wire.Address(wire.Checksum([]byte(id)))
	if !addr.IsValid() {
		addr ^= 0x8000
	}
	return addr
}
