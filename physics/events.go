package physics

import (
	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/cadence/spoke"
)

type ContactStarted struct {
	A, B     spoke.EntityId
	Position cp.Vector
	Normal   cp.Vector
}

type ContactEnded struct {
	A, B spoke.EntityId
}
