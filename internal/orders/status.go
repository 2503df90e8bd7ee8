package orders

import "strings"

// Status is free-form: any non-empty value may follow any other.
type Status string

const StatusPending Status = "pending"

func normalizeStatus(s Status) Status {
	return Status(strings.TrimSpace(string(s)))
}
