package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/certmap/internal/model"
)

// Tabular formats carry one record per row; the first row names the columns.
// List-valued cells (keywords, tags, audiences) are separated by ';' or ','.

var (
	provisionColumns = map[string][]string{
		"id":        {"id", "provision_id"},
		"text":      {"text", "provision_text", "requirement"},
		"kind":      {"kind", "requirement_type", "requirement_kind"},
		"keywords":  {"keywords"},
		"tags":      {"tags", "group_tags", "group_tag"},
		"audiences": {"audiences", "audience"},
	}
	questionColumns = map[string][]string{
		"id":             {"id", "question_id"},
		"question":       {"question", "text", "question_text"},
		"group_tag":      {"group_tag", "tag", "category_tag"},
		"audience":       {"audience"},
		"named_category": {"named_category", "category"},
	}
)

// table is a header plus data rows
type table struct {
	header []string
	rows   [][]string
}

// columns resolves each canonical field to its column position (-1 when absent)
func (t table) columns(aliases map[string][]string) map[string]int {
	pos := make(map[string]int, len(aliases))
	for field := range aliases {
		pos[field] = -1
	}
	for i, name := range t.header {
		name = headerReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
		for field, names := range aliases {
			if pos[field] >= 0 {
				continue
			}
			for _, alias := range names {
				if name == alias {
					pos[field] = i
				}
			}
		}
	}
	return pos
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var headerReplacer = strings.NewReplacer(" ", "_", "-", "_")

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	return trimAll(fields)
}

func (t table) provisions() ([]model.Provision, error) {
	cols := t.columns(provisionColumns)
	if cols["id"] < 0 || cols["text"] < 0 {
		return nil, fmt.Errorf("provision table needs id and text columns, got %v", t.header)
	}

	records := make([]provisionRecord, 0, len(t.rows))
	for _, row := range t.rows {
		records = append(records, provisionRecord{
			ID:        cell(row, cols["id"]),
			Text:      cell(row, cols["text"]),
			Kind:      cell(row, cols["kind"]),
			Keywords:  splitList(cell(row, cols["keywords"])),
			Tags:      splitList(cell(row, cols["tags"])),
			Audiences: splitList(cell(row, cols["audiences"])),
		})
	}
	return convertProvisions(records)
}

func (t table) questions() ([]model.Question, error) {
	cols := t.columns(questionColumns)
	if cols["id"] < 0 && cols["question"] < 0 {
		return nil, fmt.Errorf("question table needs an id or question column, got %v", t.header)
	}

	records := make([]questionRecord, 0, len(t.rows))
	for _, row := range t.rows {
		records = append(records, questionRecord{
			ID:            cell(row, cols["id"]),
			Question:      cell(row, cols["question"]),
			Tag:           cell(row, cols["group_tag"]),
			Audience:      cell(row, cols["audience"]),
			NamedCategory: cell(row, cols["named_category"]),
		})
	}
	return convertQuestions(records), nil
}

// CSVLoader reads comma-separated files with a header row
type CSVLoader struct{}

// NewCSVLoader creates a new CSV loader
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

func (l *CSVLoader) Name() string         { return "csv" }
func (l *CSVLoader) Extensions() []string { return []string{".csv"} }

func (l *CSVLoader) LoadProvisions(r io.Reader) ([]model.Provision, error) {
	t, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return t.provisions()
}

func (l *CSVLoader) LoadQuestions(r io.Reader) ([]model.Question, error) {
	t, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return t.questions()
}

func readCSV(r io.Reader) (table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return table{}, fmt.Errorf("csv has no header row")
	}
	return table{header: records[0], rows: records[1:]}, nil
}

// HTMLLoader reads the first <table> of an HTML document
type HTMLLoader struct{}

// NewHTMLLoader creates a new HTML loader
func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

func (l *HTMLLoader) Name() string         { return "html" }
func (l *HTMLLoader) Extensions() []string { return []string{".html", ".htm"} }

func (l *HTMLLoader) LoadProvisions(r io.Reader) ([]model.Provision, error) {
	t, err := readHTMLTable(r)
	if err != nil {
		return nil, err
	}
	return t.provisions()
}

func (l *HTMLLoader) LoadQuestions(r io.Reader) ([]model.Question, error) {
	t, err := readHTMLTable(r)
	if err != nil {
		return nil, err
	}
	return t.questions()
}

func readHTMLTable(r io.Reader) (table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return table{}, fmt.Errorf("parse html: %w", err)
	}

	tbl := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Table
	})
	if tbl == nil {
		return table{}, fmt.Errorf("html has no <table>")
	}

	var rows [][]string
	for _, tr := range findAll(tbl, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Tr
	}) {
		var cells []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				cells = append(cells, textContent(c))
			}
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}

	if len(rows) == 0 {
		return table{}, fmt.Errorf("html table has no header row")
	}
	return table{header: rows[0], rows: rows[1:]}, nil
}

// textContent joins the text below n with whitespace collapsed
func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			buf.WriteString(node.Data)
			buf.WriteString(" ")
			return
		}
		if node.Type == html.ElementNode && node.DataAtom == atom.Br {
			buf.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}
