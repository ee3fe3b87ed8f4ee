package web

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"
	"time"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"pageURL": func(base, q string, page int) string {
		v := url.Values{}
		if q != "" {
			v.Set("q", q)
		}
		v.Set("page", strconv.Itoa(page))
		return base + "?" + v.Encode()
	},
	"price": func(p float64) string { return strconv.FormatFloat(p, 'f', 2, 64) },
	"date":  func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04") },
}

// Templates 解析内嵌的页面模板；每个页面通过 header/footer 片段共享布局
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}
