package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Funcs returns the helpers available to the invoice template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		// dataURI marks an inlined asset as a trusted URL.
		"dataURI": func(a Asset) template.URL { return template.URL(a.DataURI()) },
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "party" (dict "Title" "To" "Party" .Slip.To) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// HTMLRenderer prints a Document as a standalone HTML page with inlined assets.
type HTMLRenderer struct {
	tpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tpl, err := template.New("invoice.html").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &HTMLRenderer{tpl: tpl}, nil
}

// Render writes the page for doc to w.
func (h *HTMLRenderer) Render(w io.Writer, doc Document) error {
	return h.tpl.ExecuteTemplate(w, "invoice.html", doc)
}

// RenderHTML returns the page for doc.
func (h *HTMLRenderer) RenderHTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := h.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render invoice html: %w", err)
	}
	return buf.Bytes(), nil
}
