package sql

import (
	_ "embed"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Objects are executed when the manager is created with bootstrap enabled
//
//go:embed objects.sql
var Objects string

// Queries are bound to the connection when the manager is created
//
//go:embed queries.sql
var Queries string
