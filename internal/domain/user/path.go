package user

import (
	"fmt"
	"strings"
)

// CollectionRoot is the name of the collection holding user records.
const CollectionRoot = "Users"

// Path returns the document path of a record: "<root>/<id>".
func Path(root, id string) string {
	return root + "/" + id
}

// SplitPath splits a document path into its collection root and record id.
func SplitPath(path string) (root, id string, err error) {
	root, id, ok := strings.Cut(path, "/")
	if !ok || root == "" || id == "" || strings.Contains(id, "/") {
		return "", "", fmt.Errorf("invalid document path %q", path)
	}
	return root, id, nil
}
