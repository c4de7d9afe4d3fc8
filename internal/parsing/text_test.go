package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedFile(t *testing.T) {
	assert.True(t, SupportedFile("resume.PDF"))
	assert.True(t, SupportedFile("notes.md"))
	assert.True(t, SupportedFile("cv.docx"))
	assert.False(t, SupportedFile("photo.png"))
	assert.False(t, SupportedFile("README"))
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText(".md", []byte("# Projects\nBuilt things"))
	require.NoError(t, err)
	assert.Equal(t, "# Projects\nBuilt things", text)

	text, err = ExtractText("text/plain", []byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	_, err = ExtractText("image/png", nil)
	var unsupported *UnsupportedFileError
	assert.ErrorAs(t, err, &unsupported)

	_, err = ExtractText(".pdf", []byte("not a pdf"))
	assert.Error(t, err)
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:document><w:body>` +
		`<w:p><w:r><w:t>Acme Corp</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Built</w:t><w:tab/><w:t>R&amp;D tooling</w:t></w:r></w:p>` +
		`<w:p></w:p>` +
		`</w:body></w:document>`
	assert.Equal(t, "Acme Corp\nBuilt R&D tooling", docxXMLToText(xml))
}
