package scrape

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultSectionHeading = "## 💻 Software Engineering New Grad Roles"

	// roleGlyphs are the badges the table decorates roles with.
	roleGlyphs = "🛂\U0001F1FA\U0001F1F8🔒🔥🎓"

	minCells = 5
)

// ErrSectionNotFound means the document no longer has the expected heading
// or table body. The source format probably drifted.
var ErrSectionNotFound = errors.New("job table section not found")

var (
	tbodyRe = regexp.MustCompile(`(?s)<tbody[^>]*>(.*?)</tbody>`)
	rowRe   = regexp.MustCompile(`(?s)<tr[^>]*>.*?</tr>`)
	cellRe  = regexp.MustCompile(`(?s)<td[^>]*>(.*?)</td>`)
)

type ParseStats struct {
	Rows    int // <tr> elements inside the table body
	Parsed  int
	Dropped int
}

type Parser struct {
	Heading string
}

func NewParser(heading string) *Parser {
	if strings.TrimSpace(heading) == "" {
		heading = DefaultSectionHeading
	}
	return &Parser{Heading: heading}
}

// Parse extracts job records from the table under p.Heading. Rows with fewer
// than five cells, or with any field empty after cleaning, are dropped.
// ErrSectionNotFound is returned with no records when the section is missing.
//
// Cells are cut from the source text, so ApplicationRef is the cell content
// byte for byte. The other fields are cleaned from the parsed cell.
func (p *Parser) Parse(doc string) ([]domain.JobRecord, ParseStats, error) {
	var stats ParseStats

	body, ok := p.tableBody(doc)
	if !ok {
		return nil, stats, ErrSectionNotFound
	}

	var out []domain.JobRecord
	for _, row := range rowRe.FindAllString(body, -1) {
		stats.Rows++

		raw := rawCells(row)
		if len(raw) < minCells {
			stats.Dropped++
			continue
		}

		rec, ok, err := buildRecord(raw)
		if err != nil {
			return nil, stats, fmt.Errorf("parse row %d: %w", stats.Rows, err)
		}
		if !ok {
			stats.Dropped++
			continue
		}
		out = append(out, rec)
	}

	stats.Parsed = len(out)
	return out, stats, nil
}

func (p *Parser) tableBody(doc string) (string, bool) {
	i := strings.Index(doc, p.Heading)
	if i < 0 {
		return "", false
	}
	m := tbodyRe.FindStringSubmatch(doc[i+len(p.Heading):])
	if m == nil {
		return "", false
	}
	return m[1], true
}

func rawCells(row string) []string {
	matches := cellRe.FindAllStringSubmatch(row, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// cell parses one raw cell into a selection for text extraction.
func cell(raw string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table><tr><td>" + raw + "</td></tr></table>"))
	if err != nil {
		return nil, err
	}
	return doc.Find("td").First(), nil
}

func buildRecord(raw []string) (domain.JobRecord, bool, error) {
	var sel [minCells]*goquery.Selection
	for i := range sel {
		s, err := cell(raw[i])
		if err != nil {
			return domain.JobRecord{}, false, err
		}
		sel[i] = s
	}

	rec := domain.JobRecord{
		Company:        cleanCompany(sel[0]),
		Role:           cleanRole(sel[1]),
		Location:       cleanLocation(sel[2]),
		ApplicationRef: raw[3],
		AgeToken:       cleanAge(sel[4]),
	}
	if rec.Company == "" || rec.Role == "" || rec.Location == "" ||
		strings.TrimSpace(rec.ApplicationRef) == "" || rec.AgeToken == "" {
		return domain.JobRecord{}, false, nil
	}
	rec.AgeInDays = AgeInDays(rec.AgeToken)
	return rec, true, nil
}

func cleanCompany(td *goquery.Selection) string {
	s := td.Text()
	s = util.ResolveMarkdownLinks(s)
	s = util.StripBold(s)
	return util.CleanText(s)
}

func cleanRole(td *goquery.Selection) string {
	return util.CleanText(util.StripRunes(td.Text(), roleGlyphs))
}

// cleanLocation keeps a space where each tag was, so "NYC<br>Remote" does
// not collapse into "NYCRemote".
func cleanLocation(td *goquery.Selection) string {
	return util.CleanText(spacedText(td))
}

func cleanAge(td *goquery.Selection) string {
	return util.CleanText(td.Text())
}

func spacedText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
			return
		}
		b.WriteByte(' ')
		b.WriteString(spacedText(c))
		b.WriteByte(' ')
	})
	return b.String()
}

// ApplicationURL returns the link a reader should follow to apply: the first
// href in the cell, otherwise the cell text.
func ApplicationURL(ref string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ref))
	if err == nil {
		if href, ok := doc.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			return util.CanonicalizeURL(href)
		}
		if t := util.CleanText(doc.Text()); t != "" {
			return util.CanonicalizeURL(t)
		}
	}
	return util.CanonicalizeURL(util.StripTags(ref, ""))
}
