package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusGone)
			return
		}
		_, _ = w.Write([]byte("<html><body><h1>Posting</h1></body></html>"))
	}))
	defer server.Close()

	html, err := getPage(context.Background(), server.Client(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Posting</h1>")

	_, err = getPage(context.Background(), server.Client(), server.URL+"/gone")
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusGone, fetchErr.Status)
}

func TestGetPage_InvalidURL(t *testing.T) {
	for _, raw := range []string{"not-a-valid-url", "ftp://example.com/job", "/relative/path"} {
		_, err := getPage(context.Background(), http.DefaultClient, raw)
		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr, raw)
		assert.Equal(t, "invalid URL", fetchErr.Message)
	}
}

func TestPostingText(t *testing.T) {
	html := `
	<html>
		<body>
			<nav>Navigation</nav>
			<div class="sidebar">Sidebar junk</div>
			<div class="job-description">
				<h2>Requirements</h2>
				<ul><li>Strong SQL</li><li>Fivetran or Airbyte</li></ul>
				<form>Apply now</form>
			</div>
			<footer>Footer</footer>
		</body>
	</html>`

	text, err := PostingText(html, PlatformUnknown)
	require.NoError(t, err)
	assert.Equal(t, "Requirements\nStrong SQL\nFivetran or Airbyte", text)
}

func TestPostingText_PlatformSelectorsFirst(t *testing.T) {
	html := `<html><body>
		<main>Company overview</main>
		<div class="posting-description">Must know dbt</div>
		<div class="posting-apply">Submit application</div>
	</body></html>`

	text, err := PostingText(html, PlatformLever)
	require.NoError(t, err)
	assert.Equal(t, "Must know dbt", text)

	generic, err := PostingText(html, PlatformUnknown)
	require.NoError(t, err)
	assert.Equal(t, "Company overview", generic)
}

func TestPostingText_FallsBackToBody(t *testing.T) {
	text, err := PostingText(`<html><body><span>Some   content here.</span></body></html>`, PlatformUnknown)
	require.NoError(t, err)
	assert.Equal(t, "Some content here.", text)
}
