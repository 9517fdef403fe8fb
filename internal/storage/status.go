package storage

// Status is the outcome of an ensure-exists call against the store.
type Status int

const (
	StatusUnknown Status = iota
	StatusOK
	StatusCreated
	StatusAccepted
	StatusConflict
	StatusNotFound
	StatusFailed
)

// Provisioned reports whether the status is an acceptable outcome of an
// ensure-exists call: the resource was already there, was created, or the
// creation was accepted for asynchronous completion.
func (s Status) Provisioned() bool {
	switch s {
	case StatusOK, StatusCreated, StatusAccepted:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusCreated:
		return "Created"
	case StatusAccepted:
		return "Accepted"
	case StatusConflict:
		return "Conflict"
	case StatusNotFound:
		return "NotFound"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
