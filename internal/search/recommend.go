package search

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/nikbrunner/aidir/internal/model"
)

// MaxRecommendations is how many tools Recommend returns at most.
const MaxRecommendations = 5

// Recommendation is a tool ranked against free text.
type Recommendation struct {
	ToolID string  `json:"id"`
	Name   string  `json:"tool"`
	Score  float64 `json:"score"`
}

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Recommend ranks tools by TF-IDF cosine similarity between text and each
// tool's description, tags and primary category. The vocabulary is fitted on
// the tools plus the query itself; idf is smoothed and vectors are
// l2-normalized. Scores are rounded to three decimals.
func Recommend(tools []model.Tool, text string) []Recommendation {
	if len(tools) == 0 {
		return []Recommendation{}
	}

	docs := make([][]string, 0, len(tools)+1)
	for _, t := range tools {
		docs = append(docs, tokenize(toolText(t)))
	}
	docs = append(docs, tokenize(queryKeywords(text)))

	idf := inverseDocumentFrequency(docs)
	vectors := make([]map[string]float64, len(docs))
	for i, d := range docs {
		vectors[i] = weigh(d, idf)
	}
	query := vectors[len(vectors)-1]

	recs := make([]Recommendation, len(tools))
	for i, t := range tools {
		recs[i] = Recommendation{
			ToolID: t.ID,
			Name:   t.Name,
			Score:  math.Round(dot(query, vectors[i])*1000) / 1000,
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

func toolText(t model.Tool) string {
	return t.Description + " " + strings.Join(t.Tags, " ") + " " + t.PrimaryCategory
}

// queryKeywords drops single-character words from the user's text.
func queryKeywords(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if len([]rune(w)) > 1 {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

// inverseDocumentFrequency computes ln((1+n)/(1+df)) + 1 per term.
func inverseDocumentFrequency(docs [][]string) map[string]float64 {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]bool, len(d))
		for _, term := range d {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}
	return idf
}

// weigh returns the l2-normalized tf-idf vector of a tokenized document.
func weigh(tokens []string, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(tokens))
	for _, term := range tokens {
		vec[term]++
	}
	var norm float64
	for term, tf := range vec {
		w := tf * idf[term]
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for term, w := range a {
		sum += w * b[term]
	}
	return sum
}
