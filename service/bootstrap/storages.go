package bootstrap

// Register all storage backends usable as cache.
import (
	_ "github.com/safing/rdapboot/base/storage/badger"
	_ "github.com/safing/rdapboot/base/storage/bbolt"
	_ "github.com/safing/rdapboot/base/storage/fstree"
	_ "github.com/safing/rdapboot/base/storage/hashmap"
	_ "github.com/safing/rdapboot/base/storage/redis"
	_ "github.com/safing/rdapboot/base/storage/sinkhole"
)
