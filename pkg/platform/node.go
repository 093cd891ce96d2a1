package platform

import (
	"fmt"
	"strings"
)

// Node is a topology descriptor for a device, identifying where it sits
// in the board hierarchy. Paths use the familiar slash-separated form,
// e.g. "/soc/reset@4000".
type Node struct {
	path  string
	props map[string]string
}

// NewNode creates a node for the given path. The path must be absolute
// and must not end with a slash.
func NewNode(path string) (*Node, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	return &Node{path: path, props: make(map[string]string)}, nil
}

// MustNode is like NewNode but panics on an invalid path. Intended for
// fixed paths in tests and examples.
func MustNode(path string) *Node {
	n, err := NewNode(path)
	if err != nil {
		panic(err)
	}
	return n
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("node path is empty")
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("node path %q is not absolute", path)
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return fmt.Errorf("node path %q has trailing slash", path)
	}
	if strings.Contains(path, "//") {
		return fmt.Errorf("node path %q has empty component", path)
	}
	return nil
}

// Path returns the node's full path.
func (n *Node) Path() string {
	return n.path
}

// Name returns the last path component.
func (n *Node) Name() string {
	idx := strings.LastIndex(n.path, "/")
	return n.path[idx+1:]
}

// SetProperty attaches a string property to the node.
func (n *Node) SetProperty(key, value string) {
	n.props[key] = value
}

// Property returns a node property.
func (n *Node) Property(key string) (string, bool) {
	v, ok := n.props[key]
	return v, ok
}

// String returns the node path.
func (n *Node) String() string {
	return n.path
}
