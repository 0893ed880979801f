package spoke

import (
	"strconv"
)

// EntityId identifies an entity. Ids are issued by an entity pool and carry no data.
type EntityId uint32

// NoEntity is never issued to a world.
const NoEntity EntityId = 0

func (e EntityId) String() string {
	return strconv.FormatUint(uint64(e), 10)
}
