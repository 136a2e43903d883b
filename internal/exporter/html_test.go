package exporter

import (
	"strings"
	"testing"

	"github.com/nikbrunner/aidir/internal/importer"
	"github.com/nikbrunner/aidir/internal/model"
)

func rating(v float64) *float64 { return &v }

func TestExportHTML_Empty(t *testing.T) {
	html := ExportHTML(nil)

	if !strings.Contains(html, "<!DOCTYPE NETSCAPE-Bookmark-file-1>") {
		t.Error("expected DOCTYPE declaration")
	}
	if !strings.Contains(html, "<TITLE>AI Tools</TITLE>") {
		t.Error("expected TITLE element")
	}
	if strings.Contains(html, "<H3>") {
		t.Error("expected no folders for an empty catalog")
	}
}

func TestExportHTML_SingleTool(t *testing.T) {
	logo := "https://img.example/a.png"
	tools := []model.Tool{{
		ID: "a", Name: "Alpha", URL: "https://alpha.example", PrimaryCategory: "Chat",
		Tags: []string{"llm", "chat"}, Rating: rating(4.5), LogoURL: &logo, Description: "Talks",
	}}

	html := ExportHTML(tools)

	if !strings.Contains(html, `<A HREF="https://alpha.example"`) {
		t.Error("expected tool URL")
	}
	if !strings.Contains(html, "Alpha</A>") {
		t.Error("expected tool name")
	}
	if !strings.Contains(html, `TAGS="llm,chat"`) {
		t.Error("expected TAGS attribute")
	}
	if !strings.Contains(html, `RATING="4.5"`) {
		t.Error("expected RATING attribute")
	}
	if !strings.Contains(html, `ICON_URI="https://img.example/a.png"`) {
		t.Error("expected ICON_URI attribute")
	}
	if !strings.Contains(html, "<DT><H3>Chat</H3>") {
		t.Error("expected category folder")
	}
	if !strings.Contains(html, "<DD>Talks") {
		t.Error("expected description")
	}
}

func TestExportHTML_Uncategorized(t *testing.T) {
	html := ExportHTML([]model.Tool{{ID: "a", Name: "Loose", URL: "https://loose.example"}})

	if !strings.Contains(html, "<H3>Uncategorized</H3>") {
		t.Error("expected uncategorized folder")
	}
}

func TestExportHTML_EscapesHTML(t *testing.T) {
	html := ExportHTML([]model.Tool{{ID: "a", Name: "<b>Bold</b> & Co", URL: "https://x.example/?a=1&b=2", PrimaryCategory: "A&B"}})

	if strings.Contains(html, "<b>Bold</b>") {
		t.Error("expected name to be escaped")
	}
	if !strings.Contains(html, "&lt;b&gt;Bold&lt;/b&gt; &amp; Co") {
		t.Error("expected escaped name")
	}
	if !strings.Contains(html, "a=1&amp;b=2") {
		t.Error("expected escaped URL")
	}
	if !strings.Contains(html, "<H3>A&amp;B</H3>") {
		t.Error("expected escaped category")
	}
}

func TestExportHTML_RoundTrip(t *testing.T) {
	tools := []model.Tool{
		{ID: "a", Name: "Alpha", URL: "https://alpha.example", PrimaryCategory: "Chat", Tags: []string{"llm"}, Rating: rating(4.8), Description: "Talks"},
		{ID: "b", Name: "Beta", URL: "https://beta.example", PrimaryCategory: "Image", Tags: []string{}},
		{ID: "c", Name: "Gamma", URL: "https://gamma.example", Tags: []string{}},
	}

	parsed, err := importer.ParseHTMLTools(strings.NewReader(ExportHTML(tools)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(parsed) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(parsed))
	}

	byURL := map[string]model.Tool{}
	for _, p := range parsed {
		byURL[p.URL] = p
	}

	alpha := byURL["https://alpha.example"]
	if alpha.Name != "Alpha" || alpha.PrimaryCategory != "Chat" || alpha.Description != "Talks" {
		t.Errorf("alpha did not round-trip: %+v", alpha)
	}
	if alpha.Rating == nil || *alpha.Rating != 4.8 {
		t.Errorf("expected rating 4.8, got %v", alpha.Rating)
	}
	if len(alpha.Tags) != 1 || alpha.Tags[0] != "llm" {
		t.Errorf("expected tags [llm], got %v", alpha.Tags)
	}
	if byURL["https://beta.example"].PrimaryCategory != "Image" {
		t.Error("expected beta in Image")
	}
	if byURL["https://gamma.example"].PrimaryCategory != uncategorized {
		t.Errorf("expected gamma in %s", uncategorized)
	}
}
