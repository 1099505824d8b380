// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"strings"

	"golang.org/x/net/html"
)

// Small traversal helpers over x/net/html node trees. Marketplace markup
// is crawled by class name, the same way a CSS selector would.

func parseHTMLDocument(body string) (*html.Node, error) {
	return html.Parse(strings.NewReader(body))
}

func nodeHasClass(node *html.Node, class string) bool {
	for _, attribute := range node.Attr {
		if attribute.Key != "class" {
			continue
		}
		for _, candidate := range strings.Fields(attribute.Val) {
			if candidate == class {
				return true
			}
		}
	}
	return false
}

func nodeAttr(node *html.Node, key string) string {
	for _, attribute := range node.Attr {
		if attribute.Key == key {
			return attribute.Val
		}
	}
	return ""
}

// findAllByClass collects element nodes with the given tag (any tag when
// empty) carrying the class, in document order.
func findAllByClass(root *html.Node, tag, class string) []*html.Node {
	var out []*html.Node
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode &&
			(tag == "" || node.Data == tag) &&
			nodeHasClass(node, class) {
			out = append(out, node)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

func findFirstByClass(root *html.Node, tag, class string) *html.Node {
	if nodes := findAllByClass(root, tag, class); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// findFirstByClassContains matches elements whose class attribute merely
// contains the fragment. Kleinanzeigen suffixes its BEM classes with
// modifiers, so exact matching misses them.
func findFirstByClassContains(root *html.Node, tag, classFragment string) *html.Node {
	var found *html.Node
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if found != nil {
			return
		}
		if node.Type == html.ElementNode && (tag == "" || node.Data == tag) {
			if strings.Contains(nodeAttr(node, "class"), classFragment) {
				found = node
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return found
}

// nodeText flattens all text content below the node into one
// space-normalized string.
func nodeText(node *html.Node) string {
	var builder strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			builder.WriteString(node.Data)
			builder.WriteString(" ")
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return strings.Join(strings.Fields(builder.String()), " ")
}
