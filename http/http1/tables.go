package http1

import (
	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/http/headers"
	"github.com/indigo-web/duplex/http/status"
)

// Tables are the read-only lookup tables shared by all the sessions.
type Tables struct {
	Policies headers.Policies
	Status   status.Table
}

// NewTables merges the configured header policies over the defaults and takes the
// default status table.
func NewTables(cfg *config.Config) Tables {
	return Tables{
		Policies: headers.NewPolicies(cfg.Headers.Policies),
		Status:   status.DefaultTable(),
	}
}
