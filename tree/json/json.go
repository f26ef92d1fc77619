/*
Package json provides methods to serialize trees as JSON and parse
them back.
*/
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/graftml/graft/tree"
)

/*
WriteTree takes a pointer to a tree.Tree and an io.Writer and
serializes the tree's node arrays as a JSON object onto the writer.
An error is returned if the tree cannot be serialized or written.
*/
func WriteTree(w io.Writer, t *tree.Tree) error {
	err := json.NewEncoder(w).Encode(t)
	if err != nil {
		return fmt.Errorf("writing tree as JSON: %v", err)
	}
	return nil
}

/*
ReadTree takes an io.Reader with a tree serialized as JSON and
returns the parsed tree or an error. The parsed node arrays are
validated: a malformed tree is rejected, not repaired.
*/
func ReadTree(r io.Reader) (*tree.Tree, error) {
	t := &tree.Tree{}
	err := json.NewDecoder(r).Decode(t)
	if err != nil {
		return nil, fmt.Errorf("parsing tree from JSON: %v", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

/*
Marshal returns the JSON encoding of the given tree as a slice of
bytes or an error.
*/
func Marshal(t *tree.Tree) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding tree as JSON: %v", err)
	}
	return data, nil
}

/*
Unmarshal parses a JSON-encoded tree from the given slice of bytes,
validates it and returns it or an error.
*/
func Unmarshal(data []byte) (*tree.Tree, error) {
	t := &tree.Tree{}
	err := json.Unmarshal(data, t)
	if err != nil {
		return nil, fmt.Errorf("decoding tree from JSON: %v", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
