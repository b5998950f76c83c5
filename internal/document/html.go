package document

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// HTMLRenderer 降级渲染器：输出自带打印脚本的 HTML，由浏览器另存为 PDF
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer 创建打印版 HTML 渲染器
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{tmpl: template.Must(template.New("print").Funcs(template.FuncMap{
		"dataURL": func(s string) template.URL { return template.URL(DataURL(s)) },
		"colPct":  colPercent,
	}).Parse(printTemplate))}
}

// Render 渲染打印版 HTML。页面标题即文件名，载入 500ms 后调用 window.print()。
func (r *HTMLRenderer) Render(doc *Document) (*Rendered, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("生成打印页面失败: %w", err)
	}
	return &Rendered{
		Body:        buf.Bytes(),
		ContentType: "text/html; charset=utf-8",
		FileName:    doc.FileName + ".html",
		Fallback:    true,
	}, nil
}

func colPercent(widths []float64, i int) string {
	var total float64
	for _, w := range widths {
		total += w
	}
	if total == 0 || i >= len(widths) {
		return "auto"
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", widths[i]*100/total), "0"), ".") + "%"
}

const printTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.FileName}}</title>
<style>
@page { size: A4; margin: 21mm 14mm; }
body { font-family: "Malgun Gothic", "NanumGothic", sans-serif; font-size: 10pt; color: #000; }
h1 { text-align: center; font-size: 18pt; margin: 0 0 4px; }
.date { text-align: right; margin-bottom: 18px; }
h2 { font-size: 14pt; color: #2c3e50; margin: 16px 0 6px; }
.para { white-space: pre-wrap; line-height: 1.6; }
.kv { white-space: pre-wrap; line-height: 1.6; }
.kv b { margin-right: 4px; }
table { width: 100%; border-collapse: collapse; margin: 6px 0; }
th, td { border: 1px solid #555; padding: 4px 6px; vertical-align: top; white-space: pre-wrap; font-size: 9pt; }
th { background: #ecf0f1; }
td.C { text-align: center; }
.closing { text-align: right; margin-top: 8px; }
.break { page-break-before: always; }
figure { margin: 12px 0; page-break-inside: avoid; }
figure img { display: block; margin: 6px auto; max-width: 100%; }
figcaption { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Date}}<div class="date">{{.Date}}</div>{{end}}
{{range .Blocks}}
{{- if eq .Kind "heading"}}<h2>{{.Text}}</h2>
{{- else if eq .Kind "paragraph"}}<div class="para">{{.Text}}</div>
{{- else if eq .Kind "keyvalue"}}<div class="kv"><b>{{.Key}}</b>{{.Value}}</div>
{{- else if eq .Kind "table"}}{{$w := .Widths}}<table>
<colgroup>{{range $i, $h := .Header}}<col style="width: {{colPct $w $i}}">{{end}}</colgroup>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr>{{range .}}{{if gt .RowSpan 0}}<td class="{{.Align}}"{{if gt .RowSpan 1}} rowspan="{{.RowSpan}}"{{end}}>{{.Text}}</td>{{end}}{{end}}</tr>
{{end}}</tbody>
</table>
{{- else if eq .Kind "image"}}<figure><figcaption>{{.Caption}}</figcaption><img src="{{dataURL .Source}}" alt="{{.Caption}}"></figure>
{{- else if eq .Kind "pagebreak"}}<div class="break"></div>
{{- else if eq .Kind "closing"}}<div class="closing">{{.Text}}</div>
{{- end}}
{{end}}
<script>
window.addEventListener("load", function () { setTimeout(function () { window.print(); }, 500); });
</script>
</body>
</html>
`
