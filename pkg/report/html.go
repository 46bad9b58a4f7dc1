// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/json"
	"html/template"
)

// toJSON inlines v as a <script> JSON blob for a client-side chart
// library to consume (spec §4.9: "embedded chart data is inlined as JSON
// consumed by a client-side chart library"). Map iteration never reaches
// this path directly — callers pass slices built by sortedKeys — so
// output stays deterministic.
func toJSON(v any) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil
}

var htmlFuncs = template.FuncMap{
	"toJSON":  toJSON,
	"mulf100": func(f float64) float64 { return f * 100 },
}

func renderHTMLTemplate(name, body string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(htmlFuncs).Parse(body)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const testReportHTMLTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Test Execution Report</title></head>
<body>
<section class="summary-card">
  <h1>Test Execution Report</h1>
  <p>Total: {{.Summary.Total}} · Passed: {{.Summary.Passed}} · Failed: {{.Summary.Failed}} · Skipped: {{.Summary.Skipped}}</p>
  <p>Success rate: {{printf "%.1f" (mulf100 .Summary.SuccessRate)}}% · Avg duration: {{printf "%.3f" .Summary.AvgDurationSeconds}}s</p>
</section>
<section class="trend">
  <h2>7-Day Trend</h2>
  <script type="application/json" id="seven-day-trend">{{toJSON .Summary.SevenDayTrend}}</script>
</section>
<section class="daily-trend">
  <h2>Daily Trend</h2>
  <script type="application/json" id="daily-trend">{{toJSON .DailyTrend}}</script>
</section>
<section class="flaky">
  <h2>Flaky Entities</h2>
  <table>
    <tr><th>Entity</th><th>Failure Rate</th><th>Total Runs</th></tr>
    {{range .Flaky}}<tr><td>{{.EntityID}}</td><td>{{printf "%.1f" (mulf100 .FailureRate)}}%</td><td>{{.TotalRuns}}</td></tr>
    {{end}}
  </table>
</section>
<section class="slowest">
  <h2>Slowest</h2>
  <table>
    <tr><th>Entity</th><th>Duration (s)</th></tr>
    {{range .Slowest}}<tr><td>{{.EntityID}}</td><td>{{printf "%.3f" .DurationSeconds}}</td></tr>
    {{end}}
  </table>
</section>
</body>
</html>
`

const coverageReportHTMLTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Coverage Report</title></head>
<body>
<section class="gauge">
  <h1>Coverage Report</h1>
  <p>Overall coverage: {{printf "%.1f" .Overall}}%</p>
</section>
<section class="trend">
  <h2>Trend</h2>
  <script type="application/json" id="coverage-trend">{{toJSON .Trend}}</script>
</section>
<section class="files">
  <h2>Per-File</h2>
  <table>
    <tr><th>File</th><th>Coverage</th><th>Statements</th></tr>
    {{range .PerFile}}<tr><td>{{.FilePath}}</td><td>{{printf "%.1f" .CoveragePercentage}}%</td><td>{{.CoveredStatements}}/{{.TotalStatements}}</td></tr>
    {{end}}
  </table>
</section>
{{if .Regressions}}
<section class="regressions">
  <h2>Regressions</h2>
  <table>
    <tr><th>File</th><th>Baseline</th><th>Current</th><th>Drop</th></tr>
    {{range .Regressions}}<tr><td>{{.FilePath}}</td><td>{{printf "%.1f" .Baseline}}%</td><td>{{printf "%.1f" .Current}}%</td><td>{{printf "%.1f" .Drop}}%</td></tr>
    {{end}}
  </table>
</section>
{{end}}
</body>
</html>
`

const qualityReportHTMLTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Quality Report</title></head>
<body>
<section class="summary">
  <h1>Quality Report</h1>
  <table>
    <tr><th>Validator</th><th>Errors</th><th>Warnings</th><th>Info</th><th>Total</th></tr>
    {{range .PerValidator}}<tr><td>{{.Validator}}</td><td>{{.Errors}}</td><td>{{.Warnings}}</td><td>{{.Info}}</td><td>{{.Total}}</td></tr>
    {{end}}
  </table>
</section>
<section class="top-codes">
  <h2>Top Violation Codes</h2>
  <table>
    <tr><th>Code</th><th>Count</th></tr>
    {{range .TopCodes}}<tr><td>{{.Code}}</td><td>{{.Count}}</td></tr>
    {{end}}
  </table>
</section>
<section class="top-files">
  <h2>Top Files</h2>
  <table>
    <tr><th>File</th><th>Count</th></tr>
    {{range .TopFiles}}<tr><td>{{.FilePath}}</td><td>{{.Count}}</td></tr>
    {{end}}
  </table>
</section>
{{if .Comparison}}
<section class="comparison">
  <h2>Local vs CI</h2>
  <table>
    <tr><th>Validator</th><th>Local</th><th>CI</th><th>Delta</th></tr>
    {{range .Comparison}}<tr><td>{{.Validator}}</td><td>{{.Local}}</td><td>{{.CI}}</td><td>{{.Delta}}</td></tr>
    {{end}}
  </table>
</section>
{{end}}
</body>
</html>
`
