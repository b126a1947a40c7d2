package parley

import "time"

// Turn is one conversation entry.
//
// Assistant turns are mutated while their response streams in; user turns
// never change after creation. IsError marks assistant turns that carry an
// error message instead of model output.
type Turn struct {
	Role      Role
	Content   string
	IsError   bool
	Timestamp time.Time
}
