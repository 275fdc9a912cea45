package templates

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palmopsim/internal/models"
)

func writeTemplate(t *testing.T, dir, sub, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, sub, name), []byte(content), 0644))
}

func TestRendererRender(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "layouts", "base.html", `{{define "base"}}<main>{{template "content" .}}</main>{{end}}`)
	writeTemplate(t, dir, "pages", "page.html", `{{define "content"}}{{formatTonnes .Total}} t{{end}}`)

	r, err := New(dir, false, nil)
	require.NoError(t, err)
	assert.True(t, r.Has("base"))

	w := httptest.NewRecorder()
	require.NoError(t, r.Render(w, "base", map[string]interface{}{"Total": 12345.67}))

	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<main>12,345.7 t</main>", w.Body.String())
}

func TestRendererUndefinedReference(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "pages", "page.html", `{{define "page"}}{{template "missing" .}}{{end}}`)

	_, err := New(dir, false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined template")
}

func TestRendererParseError(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "pages", "page.html", "{{define \"page\"}}\n{{if}}\n{{end}}")

	_, err := New(dir, false, nil)
	assert.Error(t, err)
}

func TestRendererNoTemplates(t *testing.T) {
	_, err := New(t.TempDir(), false, nil)
	assert.Error(t, err)
}

func TestFormatTemplateError(t *testing.T) {
	content := "one\ntwo\nthree\nfour"
	msg := formatTemplateError("page.html", content, errString("template: page.html:3: bad"))

	assert.Contains(t, msg, ">>>    3 | three")
	assert.True(t, strings.HasPrefix(msg, "page.html:"))
}

type errString string

func (e errString) Error() string { return string(e) }

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "1,234.6", formatTonnes(1234.55))
	assert.Equal(t, "0.0", formatTonnes(0))
	assert.Equal(t, "18.05", formatRate(18.049999))
	assert.Equal(t, "12,500", formatInt(12500))
	assert.Equal(t, "+2.5%", formatPercent(2.5))
	assert.Equal(t, "-10.0%", formatPercent(-10))
	assert.Equal(t, "250.0 ha", formatArea(250))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, seq(1, 3))
	assert.Nil(t, seq(3, 1))
	assert.Equal(t, map[string]interface{}{"a": 1}, dict("a", 1))
	assert.Nil(t, dict("odd"))
	assert.True(t, contains([]string{"Moderate"}, "Moderate"))
	assert.Equal(t, "stage-peak", stageClass(models.StagePeak))
	assert.Equal(t, "delta-down", deltaClass(-1))
	assert.Equal(t, `{"a":[1,2]}`, string(toJSON(map[string][]int{"a": {1, 2}})))
}
