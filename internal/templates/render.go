package templates

import (
	"bufio"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	lineNumberRe   = regexp.MustCompile(`:(\d+):`)
	templateCallRe = regexp.MustCompile(`\{\{-?\s*template\s+"([^"]+)"`)
)

// Renderer parses the layouts, pages, partials and components under a
// directory and executes them by name.
type Renderer struct {
	templates *template.Template
	debug     bool
	baseDir   string
	logger    *zap.Logger
}

// New creates a renderer. In debug mode templates are re-parsed on every render.
func New(templateDir string, debug bool, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{
		debug:   debug,
		baseDir: templateDir,
		logger:  logger,
	}

	if err := r.loadTemplates(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) loadTemplates() error {
	tmpl := template.New("").Funcs(FuncMap())

	var files []string
	for _, subdir := range []string{"layouts", "pages", "partials", "components"} {
		pattern := filepath.Join(r.baseDir, subdir, "*.html")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("error globbing %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no template files found in %s", r.baseDir)
	}

	sources := make(map[string]string, len(files))
	var parseErrors []string
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("%s: failed to read: %v", file, err))
			continue
		}
		sources[file] = string(content)

		if _, err := tmpl.New(filepath.Base(file)).Parse(string(content)); err != nil {
			parseErrors = append(parseErrors, formatTemplateError(file, string(content), err))
		}
	}
	if len(parseErrors) > 0 {
		for _, e := range parseErrors {
			r.logger.Error("template parse error", zap.String("detail", e))
		}
		return fmt.Errorf("template parsing failed with %d error(s)", len(parseErrors))
	}

	if missing := undefinedReferences(tmpl, sources); len(missing) > 0 {
		for _, m := range missing {
			r.logger.Error("undefined template reference", zap.String("detail", m))
		}
		return fmt.Errorf("found %d undefined template reference(s)", len(missing))
	}

	r.templates = tmpl
	r.logger.Debug("templates loaded", zap.Int("files", len(files)), zap.String("dir", r.baseDir))
	return nil
}

// formatTemplateError adds the offending line and its neighbours to a parse error
func formatTemplateError(file, content string, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %v", file, err)

	line := 0
	if m := lineNumberRe.FindStringSubmatch(err.Error()); len(m) == 2 {
		line, _ = strconv.Atoi(m[1])
	}
	if line <= 0 {
		return sb.String()
	}

	lines := strings.Split(content, "\n")
	for i := max(line-3, 0); i < min(line+2, len(lines)); i++ {
		marker := "   "
		if i+1 == line {
			marker = ">>>"
		}
		fmt.Fprintf(&sb, "\n%s %4d | %s", marker, i+1, lines[i])
	}
	return sb.String()
}

// undefinedReferences lists {{template "name"}} calls with no matching definition
func undefinedReferences(tmpl *template.Template, sources map[string]string) []string {
	defined := make(map[string]bool)
	for _, t := range tmpl.Templates() {
		defined[t.Name()] = true
	}

	var missing []string
	for file, content := range sources {
		scanner := bufio.NewScanner(strings.NewReader(content))
		line := 0
		for scanner.Scan() {
			line++
			for _, m := range templateCallRe.FindAllStringSubmatch(scanner.Text(), -1) {
				if !defined[m[1]] {
					missing = append(missing, fmt.Sprintf("%s:%d: undefined template %q", file, line, m[1]))
				}
			}
		}
	}
	return missing
}

// Reload re-parses the templates
func (r *Renderer) Reload() error {
	return r.loadTemplates()
}

// Has reports whether a template with the given name is defined
func (r *Renderer) Has(name string) bool {
	return r.templates.Lookup(name) != nil
}

// Render executes the named template as an HTML response
func (r *Renderer) Render(w http.ResponseWriter, name string, data interface{}) error {
	if r.debug {
		if err := r.loadTemplates(); err != nil {
			r.logger.Warn("template reload failed", zap.Error(err))
		}
	}

	var buf strings.Builder
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := io.WriteString(w, buf.String())
	return err
}

// RenderToString renders a template to a string
func (r *Renderer) RenderToString(name string, data interface{}) (string, error) {
	var buf strings.Builder
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
