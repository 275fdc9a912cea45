package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ResponseAssertion provides fluent assertions for HTTP responses
type ResponseAssertion struct {
	t        *testing.T
	resp     *http.Response
	body     string
	bodyRead bool
}

// AssertResponse creates a new ResponseAssertion for the given response
func AssertResponse(t *testing.T, resp *http.Response) *ResponseAssertion {
	t.Helper()
	return &ResponseAssertion{t: t, resp: resp}
}

func (ra *ResponseAssertion) readBody() string {
	if !ra.bodyRead {
		defer ra.resp.Body.Close()
		body, err := io.ReadAll(ra.resp.Body)
		require.NoError(ra.t, err, "read response body")
		ra.body = string(body)
		ra.bodyRead = true
	}
	return ra.body
}

// Status asserts the response has the expected status code
func (ra *ResponseAssertion) Status(code int) *ResponseAssertion {
	ra.t.Helper()
	assert.Equal(ra.t, code, ra.resp.StatusCode, "status of %s", ra.resp.Request.URL.Path)
	return ra
}

// StatusOK asserts the response has status 200
func (ra *ResponseAssertion) StatusOK() *ResponseAssertion {
	ra.t.Helper()
	return ra.Status(http.StatusOK)
}

// StatusBadRequest asserts the response has status 400
func (ra *ResponseAssertion) StatusBadRequest() *ResponseAssertion {
	ra.t.Helper()
	return ra.Status(http.StatusBadRequest)
}

// RedirectsTo asserts a redirect with the given status and Location
func (ra *ResponseAssertion) RedirectsTo(code int, location string) *ResponseAssertion {
	ra.t.Helper()
	ra.Status(code)
	assert.Equal(ra.t, location, ra.resp.Header.Get("Location"))
	return ra
}

// Header asserts a response header contains want
func (ra *ResponseAssertion) Header(name, want string) *ResponseAssertion {
	ra.t.Helper()
	assert.Contains(ra.t, ra.resp.Header.Get(name), want, "header %s", name)
	return ra
}

// ContentType asserts the response has the expected content type
func (ra *ResponseAssertion) ContentType(expected string) *ResponseAssertion {
	ra.t.Helper()
	return ra.Header("Content-Type", expected)
}

// ContentTypeHTML asserts the response is HTML
func (ra *ResponseAssertion) ContentTypeHTML() *ResponseAssertion {
	ra.t.Helper()
	return ra.ContentType("text/html")
}

// ContentTypeJSON asserts the response is JSON
func (ra *ResponseAssertion) ContentTypeJSON() *ResponseAssertion {
	ra.t.Helper()
	return ra.ContentType("application/json")
}

// Attachment asserts a download with the given file name
func (ra *ResponseAssertion) Attachment(filename string) *ResponseAssertion {
	ra.t.Helper()
	return ra.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Contains asserts the response body contains every given string
func (ra *ResponseAssertion) Contains(substrs ...string) *ResponseAssertion {
	ra.t.Helper()
	body := ra.readBody()
	for _, s := range substrs {
		if !strings.Contains(body, s) {
			ra.t.Errorf("Expected body to contain %q.\nBody (first 500 chars): %s", s, truncate(body, 500))
		}
	}
	return ra
}

// NotContains asserts the response body does not contain the given string
func (ra *ResponseAssertion) NotContains(substr string) *ResponseAssertion {
	ra.t.Helper()
	assert.NotContains(ra.t, ra.readBody(), substr)
	return ra
}

// HasElement asserts the body contains an HTML element with the given id
func (ra *ResponseAssertion) HasElement(id string) *ResponseAssertion {
	ra.t.Helper()
	pattern := `id=["']` + regexp.QuoteMeta(id) + `["']`
	if ok, _ := regexp.MatchString(pattern, ra.readBody()); !ok {
		ra.t.Errorf("Expected body to contain element with id=%q", id)
	}
	return ra
}

// JSON decodes the body into v
func (ra *ResponseAssertion) JSON(v interface{}) *ResponseAssertion {
	ra.t.Helper()
	require.NoError(ra.t, json.Unmarshal([]byte(ra.readBody()), v), "decode JSON body")
	return ra
}

// Body returns the response body as a string
func (ra *ResponseAssertion) Body() string {
	return ra.readBody()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
