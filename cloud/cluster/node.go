package cluster

import (
	"fmt"
)

type NodeId string

// Node is a host known to the scheduler, either a worker contributing
// capacity or a target jobs are run against.
type Node interface {
	// A unique node identifier, usually the hostname.
	Id() NodeId

	// Free-form grouping used by pool filters, like "home", "purchased" or "rooted".
	Category() string
}

type idNode struct {
	id       NodeId
	category string
}

func (n *idNode) String() string {
	if n.category == "" {
		return string(n.id)
	}
	return fmt.Sprintf("%s(%s)", n.id, n.category)
}

func NewIdNode(id string) Node {
	return &idNode{id: NodeId(id)}
}

func NewCategoryNode(id, category string) Node {
	return &idNode{id: NodeId(id), category: category}
}

// NewIdNodes returns node1..nodeN in the given category.
func NewIdNodes(num int, category string) []Node {
	r := []Node{}
	for i := 0; i < num; i++ {
		r = append(r, NewCategoryNode(fmt.Sprintf("node%d", i+1), category))
	}
	return r
}

func (n *idNode) Id() NodeId {
	return n.id
}

func (n *idNode) Category() string {
	return n.category
}

var _ Node = (*idNode)(nil)

type NodeSorter []Node

func (n NodeSorter) Len() int           { return len(n) }
func (n NodeSorter) Swap(i, j int)      { n[i], n[j] = n[j], n[i] }
func (n NodeSorter) Less(i, j int) bool { return n[i].Id() < n[j].Id() }
