// Package migrations holds the record store schema, applied in file order.
package migrations

import "embed"

// FS contains the up and down migrations for companies, queries,
// documents and evaluation records.
//
//go:embed *.sql
var FS embed.FS
