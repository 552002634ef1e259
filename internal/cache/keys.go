package cache

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Entity names used in cache keys.
const (
	EntityUser    = "user"
	EntitySub     = "sub"
	EntityPost    = "post"
	EntityComment = "comment"
	EntitySite    = "site"
)

// Key derives a deterministic cache key from entity type, primary key,
// attribute name and call arguments:
//
//	{entity}:{pk}:{attr}:{arghash}
//
// Identical inputs always collide; differing primary keys never do,
// because the pk occupies its own colon-delimited segment. The region
// name is prepended by the manager.
func Key(entity string, pk interface{}, attr string, args ...interface{}) string {
	return fmt.Sprintf("%s:%v:%s:%s", entity, pk, attr, argHash(args))
}

// EntityPrefix is the key prefix shared by every attribute cached for
// one entity instance. Used for whole-entity invalidation.
func EntityPrefix(entity string, pk interface{}) string {
	return fmt.Sprintf("%s:%v:", entity, pk)
}

// argHash folds the call arguments into a fixed-width hex token so keys
// stay bounded regardless of argument size. No arguments hash to "-".
func argHash(args []interface{}) string {
	if len(args) == 0 {
		return "-"
	}
	h := fnv.New64a()
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(0x1f)
		}
		fmt.Fprintf(&sb, "%v", a)
	}
	_, _ = h.Write([]byte(sb.String()))
	return fmt.Sprintf("%016x", h.Sum64())
}
