// Package render fills a shared variable context into tool-specific control
// file templates. Templates are plain text with {{ name }} placeholders;
// there is no embedded logic, and rendering the same (template, context)
// pair twice yields byte-identical output.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Context maps placeholder names to scalar values. It is read-only during a
// render.
type Context map[string]string

// ControlFile is a rendered control file on disk. It is owned by the job it
// was rendered for and removed at job cleanup unless temporaries are kept.
type ControlFile struct {
	Path    string
	Content []byte
}

// TemplateError reports an unreadable template or an unresolved placeholder.
// Partial substitution is never accepted: a malformed control file would be
// silently misinterpreted by the external tool.
type TemplateError struct {
	Template string
	Missing  string
	Err      error
}

func (e *TemplateError) Error() string {
	switch {
	case e.Missing != "":
		return fmt.Sprintf("template %s: no value for placeholder %q", e.Template, e.Missing)
	case e.Err != nil:
		return fmt.Sprintf("template %s: %v", e.Template, e.Err)
	}
	return fmt.Sprintf("template %s: invalid", e.Template)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Expand substitutes placeholders in template text, scanning left to right.
// The name argument identifies the template in errors.
func Expand(name string, text []byte, vars Context) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(text))

	rest := text
	for {
		open := bytes.Index(rest, []byte(openDelim))
		if open < 0 {
			out.Write(rest)
			return out.Bytes(), nil
		}
		out.Write(rest[:open])
		rest = rest[open+len(openDelim):]

		end := bytes.Index(rest, []byte(closeDelim))
		if end < 0 {
			return nil, &TemplateError{Template: name, Err: fmt.Errorf("unterminated %q", openDelim)}
		}
		key := strings.TrimSpace(string(rest[:end]))
		rest = rest[end+len(closeDelim):]

		val, ok := vars[key]
		if !ok {
			return nil, &TemplateError{Template: name, Missing: key}
		}
		out.WriteString(val)
	}
}

// RenderFile reads the template at templatePath, expands it against vars and
// writes the result to outPath, creating parent directories as needed.
func RenderFile(templatePath, outPath string, vars Context) (*ControlFile, error) {
	text, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, &TemplateError{Template: templatePath, Err: err}
	}
	content, err := Expand(templatePath, text, vars)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, &TemplateError{Template: templatePath, Err: err}
	}
	if err := os.WriteFile(outPath, content, 0o644); err != nil {
		return nil, &TemplateError{Template: templatePath, Err: err}
	}
	return &ControlFile{Path: outPath, Content: content}, nil
}

// ExpandString is a convenience for expanding placeholder-bearing strings
// that are not whole files, such as expected artifact names.
func ExpandString(s string, vars Context) (string, error) {
	out, err := Expand(s, []byte(s), vars)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
