package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainerr "inkpress/internal/domain/errors"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

const articleTemplate = "article.tmpl"

type TemplateRenderer struct {
	tpl *template.Template
}

// NewTemplateRenderer loads <themeDir>/<themeName>/templates/*.tmpl, or the
// built-in templates when themeDir is empty.
func NewTemplateRenderer(themeDir, themeName string) (*TemplateRenderer, error) {
	base := template.New("").Funcs(templateFuncs())
	if themeDir == "" {
		tpl, err := base.ParseFS(builtinTemplates, "templates/*.tmpl")
		if err != nil {
			return nil, err
		}
		return &TemplateRenderer{tpl: tpl}, nil
	}

	dir := filepath.Join(themeDir, themeName, "templates")
	if err := CheckThemeTemplates(dir); err != nil {
		return nil, err
	}
	tpl, err := base.ParseGlob(filepath.Join(dir, "*.tmpl"))
	if err != nil {
		return nil, err
	}
	return &TemplateRenderer{tpl: tpl}, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t interface{}, layout string) string {
			switch v := t.(type) {
			case nil:
				return ""
			case string:
				return v
			case time.Time:
				if v.IsZero() {
					return ""
				}
				return v.Format(layout)
			case interface{ Format(string) string }:
				return v.Format(layout)
			default:
				return ""
			}
		},
		"nowYear": func() int {
			return time.Now().Year()
		},
		"inline": Inline,
		"join":   strings.Join,
	}
}

// RenderArticle executes the article template. Output that is empty once
// whitespace is trimmed counts as a render failure.
func (r *TemplateRenderer) RenderArticle(ctx context.Context, page ArticlePage) ([]byte, error) {
	out, err := r.exec(articleTemplate, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerr.ErrRender, err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, fmt.Errorf("%w: %s produced no output", domainerr.ErrRender, articleTemplate)
	}
	return out, nil
}

func (r *TemplateRenderer) exec(name string, data interface{}) ([]byte, error) {
	t := r.tpl.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func CheckThemeTemplates(dir string) error {
	required := []string{
		articleTemplate,
	}
	for _, name := range required {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("missing template: %s", name)
		}
	}
	return nil
}
