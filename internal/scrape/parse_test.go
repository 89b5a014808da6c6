package scrape

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("testdata/readme.md")
	require.NoError(t, err)
	return string(b)
}

func TestParseFixture(t *testing.T) {
	t.Parallel()

	recs, stats, err := NewParser("").Parse(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, ParseStats{Rows: 6, Parsed: 4, Dropped: 2}, stats)
	require.Len(t, recs, 4)

	assert.Equal(t, "Acme Corp", recs[0].Company)
	assert.Equal(t, "Backend Engineer", recs[0].Role)
	assert.Equal(t, "Remote (US)", recs[0].Location)
	assert.Equal(t, "1d", recs[0].AgeToken)
	assert.Equal(t, 1, recs[0].AgeInDays)
	assert.Equal(t, `<div align="center"><a href="https://acme.example/jobs/1?utm_source=Simplify&ref=Simplify"><img src="apply.png" alt="Apply"></a></div>`,
		recs[0].ApplicationRef)

	assert.Equal(t, "↳", recs[1].Company)
	assert.Equal(t, "Frontend Engineer", recs[1].Role)
	assert.Equal(t, "2 locations Remote in USA Austin, TX", recs[1].Location)
	assert.Equal(t, 0, recs[1].AgeInDays)

	assert.Equal(t, "Globex", recs[2].Company)
	assert.Equal(t, "Platform Engineer", recs[2].Role)
	assert.Equal(t, "New York, NY", recs[2].Location)

	assert.Equal(t, "Initech", recs[3].Company)
	assert.Equal(t, "https://initech.example/careers", recs[3].ApplicationRef)
	assert.Equal(t, 60, recs[3].AgeInDays)
}

func TestParseSectionNotFound(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no heading": "# README\n<table><tbody><tr><td>a</td></tr></tbody></table>",
		"no tbody":   DefaultSectionHeading + "\n\n| Company | Role |\n|---|---|\n",
		"empty":      "",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			recs, _, err := NewParser("").Parse(doc)
			assert.ErrorIs(t, err, ErrSectionNotFound)
			assert.Empty(t, recs)
		})
	}
}

func TestParseEmptyTableIsNotDrift(t *testing.T) {
	t.Parallel()

	recs, stats, err := NewParser("").Parse(DefaultSectionHeading + "\n<table><tbody>\n</tbody></table>")
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Zero(t, stats.Rows)
}

func TestParseDropsRowsWithEmptyFields(t *testing.T) {
	t.Parallel()

	doc := DefaultSectionHeading + `
<table><tbody>
<tr><td>↳</td><td>Engineer</td><td>Remote</td><td>x</td><td>1d</td></tr>
<tr><td>Acme</td><td>Engineer</td><td>   </td><td>x</td><td>1d</td></tr>
<tr><td>Acme</td><td>Engineer</td><td>Remote</td><td></td><td>1d</td></tr>
<tr><td>Acme</td><td>Engineer</td><td>Remote</td><td>x</td><td><span></span></td></tr>
<tr><td>Acme</td><td>Engineer</td><td>Remote</td><td>x</td><td>bogus</td><td>extra</td></tr>
</tbody></table>`

	recs, stats, err := NewParser("").Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Dropped)
	require.Len(t, recs, 2)
	assert.Equal(t, "↳", recs[0].Company)
	assert.Equal(t, "bogus", recs[1].AgeToken)
	assert.Equal(t, AgeUnknown, recs[1].AgeInDays)
}

func TestParseKeepsApplicationCellVerbatim(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"raw ampersand":   `<a href="https://x.example/a?b=1&c=2">Apply</a>`,
		"escaped entity":  `<a href="https://x.example/a?b=1&amp;c=2">Apply</a>`,
		"unclosed markup": `<div align="center"><a href="https://x.example/a">Apply`,
		"padded text":     "\n  https://x.example/a  \n",
	}
	for name, app := range tests {
		t.Run(name, func(t *testing.T) {
			doc := DefaultSectionHeading + "\n<table><tbody>\n<tr><td>Acme</td><td>Engineer</td><td>Remote</td><td>" +
				app + "</td><td>1d</td></tr>\n</tbody></table>"

			recs, _, err := NewParser("").Parse(doc)
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, app, recs[0].ApplicationRef)
		})
	}
}

func TestParseLeadingArrowRowIsKept(t *testing.T) {
	t.Parallel()

	doc := DefaultSectionHeading + `
<table><tbody>
<tr><td>↳</td><td>Backend Engineer</td><td>Remote</td><td>x</td><td>1d</td></tr>
<tr><td>Acme</td><td>Backend Engineer</td><td>Remote</td><td>y</td><td>1d</td></tr>
<tr><td>↳</td><td>Frontend Engineer</td><td>Remote</td><td>z</td><td>2d</td></tr>
</tbody></table>`

	recs, stats, err := NewParser("").Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, ParseStats{Rows: 3, Parsed: 3}, stats)
	require.Len(t, recs, 3)
	assert.Equal(t, "↳", recs[0].Company)
	assert.Equal(t, "Acme", recs[1].Company)
	assert.Equal(t, "↳", recs[2].Company)
}

func TestParseCustomHeading(t *testing.T) {
	t.Parallel()

	recs, _, err := NewParser("## 📈 Data Science, AI & Machine Learning New Grad Roles").Parse(loadFixture(t))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Other Section Co", recs[0].Company)
}

func TestApplicationURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://acme.example/jobs/1?ref=Simplify",
		ApplicationURL(`<div><a href="https://acme.example/jobs/1?utm_source=Simplify&amp;ref=Simplify"><img alt="Apply"></a></div>`))
	assert.Equal(t, "https://initech.example/careers", ApplicationURL("https://initech.example/careers"))
}
