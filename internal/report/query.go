package report

// Match is a node found in a run together with the ids leading to it.
type Match struct {
	Path []string // ids from the root down to and including the node
	Node *Node
}

// ByNode returns every node whose id equals id, in depth-first order.
func ByNode(result *RunResult, id string) []Match {
	return collect(result, func(n *Node) bool { return n.ID == id })
}

// Failures returns the nodes that recorded an error themselves.
func Failures(result *RunResult) []Match {
	return collect(result, func(n *Node) bool { return n.Error != nil })
}

// Leaves returns every leaf node in depth-first order.
func Leaves(result *RunResult) []Match {
	return collect(result, (*Node).Leaf)
}

func collect(result *RunResult, keep func(*Node) bool) []Match {
	if result == nil || result.Root == nil {
		return nil
	}
	var out []Match
	var visit func(n *Node, path []string)
	visit = func(n *Node, path []string) {
		path = append(path[:len(path):len(path)], n.ID)
		if keep(n) {
			out = append(out, Match{Path: path, Node: n})
		}
		for _, c := range n.Children {
			visit(c, path)
		}
	}
	visit(result.Root, nil)
	return out
}
