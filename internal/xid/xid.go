package xid

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

// SetNode selects the snowflake node number used by New. It must be called
// before the first New call to take effect.
func SetNode(n int64) error {
	var err error
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(n)
		err = nodeErr
	})
	return err
}

// New returns a time-ordered identifier. Ids minted by one process are
// strictly increasing, so ordering by id is ordering by insertion.
func New() snowflake.ID {
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(1)
	})
	if nodeErr != nil {
		panic(fmt.Sprintf("xid: snowflake node unavailable: %v", nodeErr))
	}
	return node.Generate()
}

// Parse decodes the decimal string form used in URLs and JSON.
func Parse(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(raw)
}
