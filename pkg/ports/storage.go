// Package ports defines the interfaces connecting domain logic to the
// storage adapter, in this module's hexagonal layering.
package ports

import "github.com/ravi-kapoor/ltree/pkg/types"

// TreePort is the narrow contract the domain layer depends on,
// satisfied by the LSM tree adapter. It mirrors
// types.TreeStorage but lives in ports so the domain package depends
// on an interface it owns rather than reaching into the adapter
// package directly.
type TreePort interface {
	Insert(key string, values []types.Value) error
	Get(key string) (string, bool)
	Delete(key string) bool
	GetRange(pred func(types.Entry) bool) []string
	Size() int
	Clear()
	Close() error
}
