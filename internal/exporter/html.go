// Package exporter writes the catalog out as a Netscape bookmark file.
package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nikbrunner/aidir/internal/model"
)

// uncategorized is the folder name for tools without a primary category.
const uncategorized = "Uncategorized"

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/aidir-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("aidir-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML renders tools as Netscape bookmark HTML, one folder per
// primary category. The output reads back with importer.ParseHTMLTools.
func ExportHTML(tools []model.Tool) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>AI Tools</TITLE>\n")
	b.WriteString("<H1>AI Tools</H1>\n")
	b.WriteString("<DL><p>\n")

	catalog := model.NewCatalog(tools)
	for _, category := range catalog.PrimaryCategories() {
		name := category
		if name == "" {
			name = uncategorized
		}
		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(name))
		b.WriteString("    <DL><p>\n")
		for _, t := range catalog.GetToolsInCategory(category) {
			writeTool(&b, t, "        ")
		}
		b.WriteString("    </DL><p>\n")
	}

	b.WriteString("</DL><p>\n")

	return b.String()
}

func writeTool(b *strings.Builder, t model.Tool, prefix string) {
	attrs := fmt.Sprintf(" HREF=\"%s\"", html.EscapeString(t.URL))
	if len(t.Tags) > 0 {
		attrs += fmt.Sprintf(" TAGS=\"%s\"", html.EscapeString(strings.Join(t.Tags, ",")))
	}
	if t.LogoURL != nil {
		attrs += fmt.Sprintf(" ICON_URI=\"%s\"", html.EscapeString(*t.LogoURL))
	}
	if t.Rating != nil {
		attrs += fmt.Sprintf(" RATING=\"%s\"", strconv.FormatFloat(*t.Rating, 'f', -1, 64))
	}
	fmt.Fprintf(b, "%s<DT><A%s>%s</A>\n", prefix, attrs, html.EscapeString(t.Name))
	if t.Description != "" {
		fmt.Fprintf(b, "%s<DD>%s\n", prefix, html.EscapeString(t.Description))
	}
}
