package archive

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator issues archive-scoped identifiers.
type IDGenerator interface {
	NextID() string
}

// SnowflakeGenerator issues decimal snowflake IDs. It is safe for concurrent use.
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator creates a generator for the given node number (0-1023).
func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

// NextID returns the next ID.
func (g *SnowflakeGenerator) NextID() string {
	return g.node.Generate().String()
}

func defaultIDGenerator() IDGenerator {
	g, err := NewSnowflakeGenerator(1)
	if err != nil {
		panic(err)
	}
	return g
}
