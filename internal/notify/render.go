package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape"
)

const sourceRepo = "SimplifyJobs/New-Grad-Positions"

type digestJob struct {
	Index    int
	Company  string
	Role     string
	Location string
	Age      string
	ApplyURL string
}

type digest struct {
	Count  int
	Plural string
	Days   int
	Jobs   []digestJob
	Source string
}

func newDigest(jobs []domain.JobRecord, days int) digest {
	d := digest{Count: len(jobs), Plural: plural(len(jobs)), Days: days, Source: sourceRepo}
	for i, j := range jobs {
		d.Jobs = append(d.Jobs, digestJob{
			Index:    i + 1,
			Company:  j.Company,
			Role:     j.Role,
			Location: j.Location,
			Age:      j.AgeToken,
			ApplyURL: scrape.ApplicationURL(j.ApplicationRef),
		})
	}
	return d
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func Subject(n, days int) string {
	if n == 0 {
		return "Remote Jobs Update - No New Positions"
	}
	return fmt.Sprintf("%d New Remote Job%s - Last %d Days", n, plural(n), days)
}

var textTmpl = texttemplate.Must(texttemplate.New("text").Funcs(texttemplate.FuncMap{
	"rule": func() string { return strings.Repeat("=", 50) },
}).Parse(
	`{{if eq .Count 0}}No new remote jobs found in the last {{.Days}} days.
{{else}}REMOTE JOB OPPORTUNITIES - LAST {{.Days}} DAYS
{{rule}}

Found {{.Count}} new remote job{{.Plural}}:

{{range .Jobs}}{{.Index}}. {{.Role}}
   Company: {{.Company}}
   Location: {{.Location}}
   Posted: {{.Age}} ago
   Apply: {{.ApplyURL}}

{{end}}{{rule}}
This is an automated email from your job watcher.
Jobs sourced from {{.Source}}
{{end}}`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`{{if eq .Count 0}}<p>No new remote jobs found in the last {{.Days}} days.</p>{{else}}<html>
  <head>
    <style>
      body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
      h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
      .summary { background-color: #ecf0f1; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
      .job { border: 1px solid #ddd; border-radius: 5px; padding: 15px; margin-bottom: 15px; }
      .job-header { font-size: 18px; font-weight: bold; color: #2980b9; margin-bottom: 8px; }
      .job-company { font-size: 16px; color: #27ae60; margin-bottom: 5px; }
      .job-details { color: #555; margin-bottom: 10px; }
      .apply-button { display: inline-block; background-color: #3498db; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; }
      .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; color: #777; font-size: 12px; }
    </style>
  </head>
  <body>
    <h1>Remote Job Opportunities - Last {{.Days}} Days</h1>
    <div class="summary"><strong>Summary:</strong> Found {{.Count}} new remote job{{.Plural}} posted in the last {{.Days}} days.</div>
{{range .Jobs}}    <div class="job">
      <div class="job-header">{{.Index}}. {{.Role}}</div>
      <div class="job-company">🏢 {{.Company}}</div>
      <div class="job-details"><strong>Location:</strong> {{.Location}}<br><strong>Posted:</strong> {{.Age}} ago</div>
      <a href="{{.ApplyURL}}" class="apply-button">Apply Now</a>
    </div>
{{end}}    <div class="footer">
      <p>This is an automated email from your job watcher.</p>
      <p>Jobs sourced from <a href="https://github.com/{{.Source}}">{{.Source}}</a></p>
    </div>
  </body>
</html>{{end}}`))

func RenderText(jobs []domain.JobRecord, days int) (string, error) {
	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, newDigest(jobs, days)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderHTML(jobs []domain.JobRecord, days int) (string, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, newDigest(jobs, days)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
