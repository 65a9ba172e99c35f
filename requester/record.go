// Package requester replays a trace of memory accesses against a cache,
// retrying refused requests until the cache accepts them.
package requester

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// A Record is one access of a trace.
type Record struct {
	Tick    uint64
	Write   bool
	Address uint64
	Size    int
	Data    []byte
}

// LoadRecords reads a trace file. Each line is
//
//	<tick> <r|w> <address> <size> [data]
//
// with address in decimal or 0x-prefixed hex and data as a hex string.
// Write records may omit the data; the replayer then synthesizes
// deterministic bytes from the address. Blank lines and lines starting with
// '#' are skipped.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record

	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func parseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Record{}, fmt.Errorf("want at least 4 fields, got %d",
			len(fields))
	}

	tick, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad tick %q: %w", fields[0], err)
	}

	var write bool
	switch fields[1] {
	case "r":
		write = false
	case "w":
		write = true
	default:
		return Record{}, fmt.Errorf("bad access kind %q, want r or w",
			fields[1])
	}

	address, err := strconv.ParseUint(fields[2], 0, 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad address %q: %w", fields[2], err)
	}

	size, err := strconv.Atoi(fields[3])
	if err != nil || size <= 0 {
		return Record{}, fmt.Errorf("bad size %q", fields[3])
	}

	rec := Record{
		Tick:    tick,
		Write:   write,
		Address: address,
		Size:    size,
	}

	if len(fields) >= 5 {
		if !write {
			return Record{}, fmt.Errorf("read records cannot carry data")
		}

		data, err := hex.DecodeString(fields[4])
		if err != nil {
			return Record{}, fmt.Errorf("bad data %q: %w", fields[4], err)
		}

		if len(data) != size {
			return Record{}, fmt.Errorf(
				"data is %d bytes, size says %d", len(data), size)
		}

		rec.Data = data
	}

	return rec, nil
}
