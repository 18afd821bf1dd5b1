package web_ui

import "html/template"

const layout = `{{define "top"}}<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:sans-serif;max-width:760px;margin:2rem auto;color:#222}
nav a{margin-right:1rem}
.info{background:#e8f1fb;padding:.6rem}.warn{background:#fff4d6;padding:.6rem}
.ok{background:#e5f6e9;padding:.6rem}.err{background:#fbe4e4;padding:.6rem}
button{padding:.5rem 1rem}
</style></head><body>
<nav><a href="/">Home</a><a href="/reports">Reports</a></nav>
<h1>{{.Title}}</h1>{{end}}
{{define "bottom"}}<p><small>API: {{.APIURL}}</small></p></body></html>{{end}}`

const homePage = `{{template "top" .}}
<p>Sample dataset: <code>{{.SampleID}}</code></p>
<p>This page runs the pipeline only for the bundled sample dataset.</p>
{{if .Unreachable}}<p class="info">API is not reachable yet. Start the API or check API_URL ({{.APIURL}}).</p>
{{else if .SampleMissing}}<p class="warn"><code>{{.SampleID}}</code> not found in storage. Make sure the file exists as <code>storage/{{.SampleID}}.csv</code> (or .xlsx).</p>{{end}}
<form method="post" action="/run"><button type="submit">Run EDA &amp; Generate Slides for {{.SampleID}}</button></form>
{{template "bottom" .}}`

const runPage = `{{template "top" .}}
{{with .Error}}<p class="err">{{.}}</p>{{end}}
{{with .Queued}}<p class="info">Queued job: {{.}}</p>{{end}}
{{if .Report}}<p class="ok">Report ready!</p><p><a href="/download/{{.Report}}">Download {{.Report}}</a></p>
{{else if .Finished}}<p class="info">Pipeline finished, but no pptx_path returned.</p>{{with .PipelineError}}<p class="err">{{.}}</p>{{end}}{{end}}
<p><a href="/">Back</a></p>
{{template "bottom" .}}`

const reportsPage = `{{template "top" .}}
{{with .Error}}<p class="err">{{.}}</p>{{end}}
{{if .Reports}}<ul>{{range .Reports}}<li>{{.Name}} — {{.Size}} bytes • <a href="/download/{{.Name}}">Download</a></li>{{end}}</ul>
{{else if not .Error}}<p class="info">No report yet. Generate one from the Home page.</p>{{end}}
{{template "bottom" .}}`

// pageTemplates 为每个页面解析一份独立的模板集合。
func pageTemplates() map[string]*template.Template {
	pages := map[string]string{"home": homePage, "run": runPage, "reports": reportsPage}
	out := make(map[string]*template.Template, len(pages))
	for name, body := range pages {
		out[name] = template.Must(template.Must(template.New(name).Parse(layout)).Parse(body))
	}
	return out
}
