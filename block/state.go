package block

import "sync/atomic"

// blockState is the lifecycle of a Block: Uninitialized -> Opening -> Open
// -> Closing -> Closed. Open and Close are not safe to call concurrently
// with each other, but a Get racing a Close must observe a clean ErrClosed
// rather than read through a torn or freed mmap, so the state itself is
// checked with an atomic load on every Get.
type blockState int32

const (
	stateUninitialized blockState = iota
	stateOpening
	stateOpen
	stateClosing
	stateClosed
)

func (s blockState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateOpening:
		return "opening"
	case stateOpen:
		return "open"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

func loadState(s *int32) blockState {
	return blockState(atomic.LoadInt32(s))
}

func storeState(s *int32, v blockState) {
	atomic.StoreInt32(s, int32(v))
}
