package data

import (
	"strings"

	"github.com/mwantia/coordtree/data/errors"
)

// RootPath is the path of the coordination tree root node.
const RootPath = "/"

// ValidatePath checks that path is absolute and made of non-empty segments.
// The root path "/" is valid, any other path must not end with a slash.
func ValidatePath(path string) error {
	if path == RootPath {
		return nil
	}

	if len(path) == 0 {
		return errors.InvalidPath(ErrInvalidPath, path, "path is empty")
	}

	if !strings.HasPrefix(path, "/") {
		return errors.InvalidPath(ErrInvalidPath, path, "path must be absolute")
	}

	if strings.HasSuffix(path, "/") {
		return errors.InvalidPath(ErrInvalidPath, path, "path must not end with '/'")
	}

	for _, segment := range strings.Split(path[1:], "/") {
		switch segment {
		case "":
			return errors.InvalidPath(ErrInvalidPath, path, "empty segment")
		case ".", "..":
			return errors.InvalidPath(ErrInvalidPath, path, "relative segment")
		}
	}

	return nil
}

// ValidateName checks that name can be used as a single path segment.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return errors.InvalidPath(ErrInvalidPath, name, "invalid node name")
	}

	return nil
}

// ParentPath returns the parent of path, or "/" for top-level nodes and the root itself.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return RootPath
	}

	return path[:idx]
}

// BaseName returns the last segment of path.
func BaseName(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

// Ancestors returns every ancestor of path in root-to-leaf order,
// excluding the root and path itself.
func Ancestors(path string) []string {
	if path == RootPath {
		return nil
	}

	var ancestors []string
	for idx := 1; idx < len(path); idx++ {
		if path[idx] == '/' {
			ancestors = append(ancestors, path[:idx])
		}
	}

	return ancestors
}

// JoinPath appends names to parent, treating the root specially.
func JoinPath(parent string, names ...string) string {
	path := strings.TrimSuffix(parent, "/")
	for _, name := range names {
		path += "/" + name
	}

	if path == "" {
		return RootPath
	}

	return path
}

// Depth returns the number of segments in path; the root has depth 0.
func Depth(path string) int {
	if path == RootPath {
		return 0
	}

	return strings.Count(path, "/")
}
