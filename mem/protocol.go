// Package mem defines the contract between the requester, the cache, and the
// backing store, together with the storage primitives they share.
package mem

// A Cache models one level of a cache hierarchy. A cache receives requests
// from a requester above it and fetches lines from a backing store below it.
//
// ReceiveRequest returns false, with no state change, if and only if the
// cache is blocked on an outstanding miss. The requester must retry the
// identical request at a later tick. Requests must be naturally aligned, no
// larger than a line, and within the configured address width; violations
// indicate a requester programming error and panic.
//
// ReceiveMemResponse delivers the completion for an earlier fill issued
// through BackingStore.SendMemRequest. The data must be exactly one line
// long and the request ID must match an outstanding miss.
type Cache interface {
	ReceiveRequest(address uint64, size int, data []byte, requestID int) bool
	ReceiveMemResponse(requestID int, data []byte)
}

// A BackingStore is the memory below a cache.
//
// SendMemRequest is fire-and-forget. A nil data slice requests a fill read
// and guarantees exactly one later Cache.ReceiveMemResponse callback echoing
// requestID with one full line of data. A non-nil data slice is a
// write-back; write-backs complete silently.
type BackingStore interface {
	SendMemRequest(address uint64, size int, data []byte, requestID int)
}

// A Requester is the component above a cache that issues requests.
//
// SendResponse is the fire-and-forget acknowledgement for one earlier
// request. Reads carry the requested bytes; writes carry nil.
type Requester interface {
	SendResponse(requestID int, data []byte)
}
