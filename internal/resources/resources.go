// Package resources embeds the asset tree installed into new projects.
// Assets whose name ends in .tmpl are text/template files; everything
// else is copied into projects verbatim.
package resources

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"text/template"
)

//go:embed templates
var content embed.FS

// ReadFile returns the raw bytes of the named asset, e.g. "git/dot_gitignore".
func ReadFile(name string) ([]byte, error) {
	data, err := content.ReadFile(path.Join("templates", name))
	if err != nil {
		return nil, fmt.Errorf("missing embedded asset %q: %w", name, err)
	}
	return data, nil
}

// Render executes the named template asset with data.
func Render(name string, data any) ([]byte, error) {
	raw, err := ReadFile(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(path.Base(name)).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Sub returns the asset subtree rooted at the named directory.
func Sub(name string) (fs.FS, error) {
	sub, err := fs.Sub(content, path.Join("templates", name))
	if err != nil {
		return nil, fmt.Errorf("missing embedded asset directory %q: %w", name, err)
	}
	return sub, nil
}
