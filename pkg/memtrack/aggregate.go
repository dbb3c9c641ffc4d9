//go:build linux

package memtrack

// AggregateByPID keys each entry by its own pid: one row per process, no
// merging. The name is kept on the key for display.
func AggregateByPID(entries []Entry) Usage {
	u := make(Usage, len(entries))
	for _, e := range entries {
		t := u[Key{PID: e.PID, Name: e.Name}]
		t.add(e.PID, e.Rec)
		u[Key{PID: e.PID, Name: e.Name}] = t
	}
	return u
}

// AggregateByName keys entries by program name; records sharing a name are
// summed field-wise. Aggregation is commutative and associative, so input
// order never changes the result.
func AggregateByName(entries []Entry) Usage {
	u := make(Usage, len(entries))
	for _, e := range entries {
		t := u[Key{Name: e.Name}]
		t.add(e.PID, e.Rec)
		u[Key{Name: e.Name}] = t
	}
	return u
}
