package common

import (
	"math/rand"
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	snowflakeNode *snowflake.Node
	nodeOnce      sync.Once
)

// UUIDint64 returns a cluster-unique int64 id. The snowflake node id comes
// from PALENGKE_NODE_ID when set, otherwise a random node is used.
func UUIDint64() int64 {
	nodeOnce.Do(func() {
		nodeID := int64(rand.Intn(1024))
		if v := os.Getenv("PALENGKE_NODE_ID"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 && n < 1024 {
				nodeID = n
			}
		}
		node, err := snowflake.NewNode(nodeID)
		if err != nil {
			panic(err)
		}
		snowflakeNode = node
	})
	return snowflakeNode.Generate().Int64()
}

// UUID returns the string form of UUIDint64.
func UUID() string {
	return strconv.FormatInt(UUIDint64(), 10)
}
