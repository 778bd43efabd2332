package shell

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// Templates renders command templates. Templates are cached by name to avoid
// re-parsing the same command line for every job.
type Templates struct {
	mu            sync.Mutex
	templateCache map[string]*template.Template
}

// NewTemplates creates an empty template cache
func NewTemplates() *Templates {
	return &Templates{
		templateCache: make(map[string]*template.Template),
	}
}

// Render executes the template text registered under name with data.
// Unknown fields are an error rather than an empty string.
func (t *Templates) Render(name, text string, data interface{}) (string, error) {
	tmpl, err := t.lookup(name, text)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (t *Templates) lookup(name, text string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cacheKey := name + "\x00" + text
	if tmpl, exists := t.templateCache[cacheKey]; exists {
		return tmpl, nil
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid template %s: %w", name, err)
	}
	t.templateCache[cacheKey] = tmpl
	return tmpl, nil
}
