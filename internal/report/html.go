package report

import (
	"html/template"
	"io"
)

// HTMLReporter generates standalone HTML reports
type HTMLReporter struct {
	writer io.Writer
}

// NewHTMLReporter creates a new HTML reporter
func NewHTMLReporter(w io.Writer) *HTMLReporter {
	return &HTMLReporter{writer: w}
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatBytes": formatBytes,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Tool}} Report</title>
<style>
body { font-family: -apple-system, Helvetica, Arial, sans-serif; margin: 2em; color: #222; }
h1 { border-bottom: 2px solid #444; padding-bottom: 0.2em; }
h2 { margin-top: 1.5em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; font-size: 14px; }
th { background: #f0f0f0; }
.public { color: #c0392b; font-weight: bold; }
.private { color: #27ae60; }
.unknown { color: #d68910; font-weight: bold; }
.critical { color: #c0392b; font-weight: bold; }
.high { color: #9b59b6; font-weight: bold; }
.medium { color: #d68910; }
.low { color: #2980b9; }
.diag { color: #777; font-size: 13px; }
</style>
</head>
<body>
<h1>{{.Tool}} Report</h1>
<p>Scan: {{.Config.Scan}} | Time: {{.Timestamp.Format "2006-01-02 15:04:05"}}{{if .Config.AWSProfile}} | Profile: {{.Config.AWSProfile}}{{end}}</p>

<h2>Summary</h2>
<table>
<tr><th>Buckets Scanned</th><td>{{.Report.Summary.BucketsScanned}}</td></tr>
<tr><th>Objects Scanned</th><td>{{.Report.Summary.ObjectsScanned}}</td></tr>
<tr><th>Objects Skipped</th><td>{{.Report.Summary.ObjectsSkipped}}</td></tr>
<tr><th>Public Objects</th><td>{{.Report.Summary.PublicObjects}}</td></tr>
<tr><th>Private Objects</th><td>{{.Report.Summary.PrivateObjects}}</td></tr>
<tr><th>Unknown Exposure</th><td>{{.Report.Summary.UnknownObjects}}</td></tr>
<tr><th>Old Objects</th><td>{{.Report.Summary.OldObjects}}</td></tr>
<tr><th>Sensitive Findings</th><td>{{.Report.Summary.TotalFindings}}</td></tr>
</table>

{{range .Report.Buckets}}
<h2>Bucket: {{.Bucket}}</h2>
{{if .Objects}}
<table>
<tr><th>Object</th><th>Size</th><th>Exposure</th><th>Age</th><th>Findings</th></tr>
{{range .Objects}}
<tr>
<td>{{.Object.Key}}</td>
<td>{{formatBytes .Object.Size}}</td>
<td>{{if eq .Exposure "PUBLIC"}}<span class="public">PUBLIC</span>{{else if eq .Exposure "PRIVATE"}}<span class="private">PRIVATE</span>{{else if eq .Exposure "UNKNOWN"}}<span class="unknown">UNKNOWN</span>{{end}}</td>
<td>{{if .AgeFlag}}{{.AgeFlag.AgeDays}} days{{end}}</td>
<td>
{{range .Findings}}
<span class="{{.Severity}}">{{.Category}}</span>: {{if .Match}}{{.Match}}{{else}}{{.Masked}}{{end}} (line {{.Line}}, {{.Source}})<br>
{{end}}
</td>
</tr>
{{end}}
</table>
{{else}}
<p>(no results)</p>
{{end}}
{{end}}

{{if .Report.Diagnostics}}
<h2>Diagnostics</h2>
{{range .Report.Diagnostics}}
<p class="diag">[{{.Stage}}] {{if .Bucket}}{{.Bucket}}{{if .Object}}/{{.Object}}{{end}}: {{end}}{{.Detail}}</p>
{{end}}
{{end}}

</body>
</html>
`))

// Generate generates an HTML report
func (r *HTMLReporter) Generate(data Data) error {
	return htmlTemplate.Execute(r.writer, data)
}
