package schema

import (
	"encoding/json"
	"regexp"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	SchemaName         = "pgmq"
	QueueTablePrefix   = "q_"
	ArchiveTablePrefix = "a_"
	QueueListLimit     = 100
	DefaultPageSize    = 20
	MaxPageSize        = 1000
	MaxQueueNameLength = 47 // pgmq rejects names of 48 characters or more
)

var (
	reQueueName = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,46}$`)
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func stringify[T any](v T) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}
