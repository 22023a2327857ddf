package timeline

import "errors"

var (
	// ErrChannelUnknown is returned when the store holds no timeline for
	// the requested channel ID
	ErrChannelUnknown = errors.New("channel timeline not found")

	// ErrNoCurrentBlock is returned when no block covers the queried
	// instant (empty timeline, gap, or past the last block)
	ErrNoCurrentBlock = errors.New("no block scheduled at this time")

	// ErrStaleTail is returned by AppendIfTail when the timeline tail
	// moved between the caller reading it and attempting the append.
	// The append did not happen; the caller should skip or re-read.
	ErrStaleTail = errors.New("timeline tail has moved")

	// ErrContractViolation is returned when an appended batch breaks the
	// block ordering invariants. The offending batch is rejected whole
	// and the prior timeline is left intact.
	ErrContractViolation = errors.New("block batch violates timeline invariants")
)
