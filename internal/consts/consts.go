package consts

import "math"

const (
	TWO_PI      = 2 * math.Pi // Angular frequency factor (rad/cycle)
	GROUND_NAME = "0"         // Canonical ground node name
	NO_BRANCH   = -1          // Element has no group 2 current
)

// GroundAliases are compared case-insensitively.
var GroundAliases = []string{"0", "gnd"}
