package cluster

import (
	"fmt"
)

type NodeUpdateType int

const (
	NodeAdded NodeUpdateType = iota
	NodeRemoved
)

func (t NodeUpdateType) String() string {
	if t == NodeAdded {
		return "added"
	}
	return "removed"
}

// NodeUpdate represents a change to a pool
type NodeUpdate struct {
	UpdateType NodeUpdateType
	Id         NodeId
	Node       Node // Only set for adds
}

func (u NodeUpdate) String() string {
	return fmt.Sprintf("%v %v", u.UpdateType, u.Id)
}

// Helper functions to create NodeUpdates

func NewAdd(node Node) NodeUpdate {
	return NodeUpdate{
		UpdateType: NodeAdded,
		Id:         node.Id(),
		Node:       node,
	}
}

func NewRemove(id NodeId) NodeUpdate {
	return NodeUpdate{
		UpdateType: NodeRemoved,
		Id:         id,
	}
}
