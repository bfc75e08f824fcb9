package docindex

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadText(t *testing.T) {
	doc, err := Load("notes/policy.md", strings.NewReader("# Leave\r\nTwenty days per year.\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "policy.md", doc.ID)
	assert.Equal(t, "# Leave\nTwenty days per year.\n", doc.Content)
	assert.Equal(t, "policy.md", doc.MetaData[metaSource])
}

func TestLoadHTMLSkipsScriptsAndSeparatesBlocks(t *testing.T) {
	page := `<html><head><title>ignored</title><style>p{}</style></head>
<body><h1>Remote  work</h1><p>Employees may work <b>remotely</b> twice a week.</p>
<script>alert("x")</script><ul><li>Mondays</li><li>Fridays</li></ul></body></html>`

	doc, err := Load("policy.HTML", strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Remote work\n\nEmployees may work remotely twice a week.\n\nMondays\n\nFridays", doc.Content)
}

// buildPDF renders one Helvetica text line per page with a valid xref table.
func buildPDF(pages ...string) []byte {
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, text := range pages {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestLoadPDFJoinsPages(t *testing.T) {
	raw := buildPDF("Employees get 25 vacation days.", "Remote work is allowed on Fridays.")

	doc, err := Load("uploads/handbook.PDF", bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "handbook.PDF", doc.ID)
	assert.Equal(t, "Employees get 25 vacation days.\n\nRemote work is allowed on Fridays.", doc.Content)
}

func TestLoadPDFWithoutTextIsEmpty(t *testing.T) {
	_, err := Load("scan.pdf", bytes.NewReader(buildPDF(" ")))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestLoadRejectsCorruptPDF(t *testing.T) {
	_, err := Load("resume.pdf", strings.NewReader("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	_, err := Load("resume.docx", strings.NewReader("PK"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadRejectsEmpty(t *testing.T) {
	_, err := Load("empty.txt", strings.NewReader(" \n\t "))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
