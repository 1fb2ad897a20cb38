// Package all registers every storage backend with the factory. The binary
// imports it blank; config selects which backend actually runs, but support
// for all of them is compiled in.
package all

import (
	_ "salespipe/internal/storage/postgres"
	_ "salespipe/internal/storage/sqlite"
)
