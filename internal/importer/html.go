// Package importer reads tool catalogs from bookmark exports and JSON dumps
// and writes them into the document store.
package importer

import (
	"io"
	"strconv"
	"strings"

	"github.com/nikbrunner/aidir/internal/model"
	"golang.org/x/net/html"
)

// ParseHTMLTools parses Netscape bookmark HTML into tools.
//
// The outermost folder above a link becomes its primary category and deeper
// folders are added to its categories. TAGS is read as a comma separated
// list, ICON_URI as the image URL, RATING as the rating, and a DD following
// the link as the description.
func ParseHTMLTools(r io.Reader) ([]model.Tool, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var tools []model.Tool
	var folderStack []string
	var pendingFolder string // folder waiting to be pushed on next DL
	last := -1               // index of the tool a DD would describe

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				pendingFolder = getTextContent(n)
				last = -1
				return

			case "a":
				href := getAttr(n, "href")
				if href == "" {
					last = -1
					return
				}

				name := getTextContent(n)
				if name == "" {
					name = href
				}

				var primary string
				var categories []string
				if len(folderStack) > 0 {
					primary = folderStack[0]
					categories = append(categories, folderStack[1:]...)
				}

				tool := model.NewTool(model.NewToolParams{
					Name:            name,
					URL:             href,
					PrimaryCategory: primary,
					Categories:      categories,
					Tags:            splitTags(getAttr(n, "tags")),
					ImageURL:        getAttr(n, "icon_uri"),
				})
				if raw := getAttr(n, "rating"); raw != "" {
					if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 && v <= 5 {
						tool.Rating = &v
					}
				}
				tools = append(tools, tool)
				last = len(tools) - 1
				return

			case "dd":
				if last >= 0 {
					tools[last].Description = getTextContent(n)
					last = -1
					return
				}

			case "dl":
				pushed := false
				if pendingFolder != "" {
					folderStack = append(folderStack, pendingFolder)
					pendingFolder = ""
					pushed = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushed {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return tools, nil
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
