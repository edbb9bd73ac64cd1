package reactor

import "github.com/cespare/xxhash/v2"

// TrackKind is the category of a read.
type TrackKind uint8

const (
	TrackGet TrackKind = iota
	TrackHas
	TrackIterate
)

func (k TrackKind) String() string {
	switch k {
	case TrackGet:
		return "get"
	case TrackHas:
		return "has"
	case TrackIterate:
		return "iterate"
	default:
		return "unknown"
	}
}

// TriggerKind is the category of a write.
type TriggerKind uint8

const (
	TriggerSet TriggerKind = iota
	TriggerAdd
	TriggerDelete
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerSet:
		return "set"
	case TriggerAdd:
		return "add"
	case TriggerDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Key identifies a property of an observed object. Any comparable value
// works; adapters use strings for named properties and ints for indices.
type Key = any

type symbol uint64

// IterateKey stands for an object's key set as a whole. Enumeration and
// membership reads subscribe to it so adding or removing a key invalidates
// them even though no existing key changed.
var IterateKey Key = symbol(xxhash.Sum64String("ITERATE_KEY") & 0x7fffffffffffffff)

// Which read kinds a write invalidates.
var triggerTrackKinds = [...][]TrackKind{
	TriggerSet:    {TrackGet},
	TriggerAdd:    {TrackGet, TrackIterate, TrackHas},
	TriggerDelete: {TrackGet, TrackIterate, TrackHas},
}

// structural writes change the key set and also hit IterateKey subscribers
func (k TriggerKind) structural() bool {
	return k == TriggerAdd || k == TriggerDelete
}
