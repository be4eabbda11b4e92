package protocol

import (
	"errors"

	"hearthstead.gg/internal/sim/econ"
)

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Scenario/configuration layer.
	ErrBadRequest  = "E_BAD_REQUEST"
	ErrDuplicateID = "E_DUPLICATE_ID"
	ErrNoSlot      = "E_NO_SLOT"
	ErrUnknownType = "E_UNKNOWN_TYPE"
	ErrUnknownRole = "E_UNKNOWN_ROLE"

	// Run state.
	ErrRunFinished = "E_RUN_FINISHED"
	ErrInternal    = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrDuplicateID:     {},
	ErrNoSlot:          {},
	ErrUnknownType:     {},
	ErrUnknownRole:     {},
	ErrRunFinished:     {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeForError maps a setup error from the economy core to its wire code.
func CodeForError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, econ.ErrDuplicateBuilding):
		return ErrDuplicateID
	case errors.Is(err, econ.ErrNoFreeSlot):
		return ErrNoSlot
	case errors.Is(err, econ.ErrUnknownBuildingType), errors.Is(err, econ.ErrUnknownBuilding):
		return ErrUnknownType
	case errors.Is(err, econ.ErrUnknownRole):
		return ErrUnknownRole
	default:
		return ErrBadRequest
	}
}
