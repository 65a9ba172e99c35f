package mem

import "fmt"

// A Storage keeps the data of the simulated system.
//
// The storage manages its bytes in fixed-size units, similar to pages in
// memory management. Units that are never touched by Read or Write are not
// allocated, so a storage can span a full address space cheaply.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	s := new(Storage)
	s.unitSize = 4096
	s.capacity = capacity
	s.data = make(map[uint64][]byte)

	return s
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) unit(address uint64) ([]byte, error) {
	if address >= s.capacity {
		return nil, fmt.Errorf(
			"accessing address 0x%x beyond the storage capacity 0x%x",
			address, s.capacity)
	}

	baseAddr := address - address%s.unitSize
	u, ok := s.data[baseAddr]
	if !ok {
		u = make([]byte, s.unitSize)
		s.data[baseAddr] = u
	}

	return u, nil
}

// Read returns a copy of numBytes bytes starting at address.
func (s *Storage) Read(address, numBytes uint64) ([]byte, error) {
	res := make([]byte, numBytes)
	offset := uint64(0)

	for offset < numBytes {
		currAddr := address + offset

		u, err := s.unit(currAddr)
		if err != nil {
			return nil, err
		}

		inUnitAddr := currAddr % s.unitSize
		n := copy(res[offset:], u[inUnitAddr:])
		offset += uint64(n)
	}

	return res, nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	offset := uint64(0)

	for offset < uint64(len(data)) {
		currAddr := address + offset

		u, err := s.unit(currAddr)
		if err != nil {
			return err
		}

		inUnitAddr := currAddr % s.unitSize
		n := copy(u[inUnitAddr:], data[offset:])
		offset += uint64(n)
	}

	return nil
}
