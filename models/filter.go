package models

import "errors"

const (
	ColumnOwnerID  = "owner_id"
	ColumnTargetID = "target_id"
)

// ErrConflict is returned by store updates that did not match the record they were given,
// typically because it was deleted or replaced concurrently.
var ErrConflict = errors.New("record update conflict")

// Filter is a set of column = value equality predicates.
type Filter map[string]string

func ByOwner(ownerID string) Filter {
	return Filter{ColumnOwnerID: ownerID}
}

func ByPair(ownerID, targetID string) Filter {
	return Filter{ColumnOwnerID: ownerID, ColumnTargetID: targetID}
}
