package coordtree

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mwantia/coordtree/data"
	"github.com/mwantia/coordtree/store"
)

// PrintLayout writes every node below "/" to w, one line per node with its
// number of children, followed by the payload if it is valid UTF-8.
func PrintLayout(ctx context.Context, s store.Store, w io.Writer) error {
	return printNode(ctx, s, w, data.RootPath, 0)
}

func printNode(ctx context.Context, s store.Store, w io.Writer, path string, depth int) error {
	children, err := s.Children(ctx, path)
	if err != nil {
		return err
	}

	payload, err := s.Get(ctx, path)
	if err != nil {
		return err
	}

	indent := strings.Repeat(" ", depth)
	fmt.Fprintf(w, "%s%s (%d)\n", indent, path, len(children))

	if len(payload) > 0 {
		if utf8.Valid(payload) {
			body := strings.ReplaceAll(string(payload), "\n", "\n"+indent+"    ")
			fmt.Fprintf(w, "%sDATA:\n%s    %s\n", indent, indent, body)
		} else {
			fmt.Fprintf(w, "%sDATA: %d bytes (binary)\n", indent, len(payload))
		}
	}

	for _, child := range children {
		if err := printNode(ctx, s, w, data.JoinPath(path, child), depth+1); err != nil {
			return err
		}
	}

	return nil
}
