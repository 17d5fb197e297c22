package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostprompt/internal/storage"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Coffee on the dock again.</w:t></w:r><w:r><w:t xml:space="preserve"> Loons at 6am.</w:t></w:r></w:p>
    <w:p><w:r><w:t>#lakelife #upnorth</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>Snow day.</w:t><w:br/><w:t>Fire is going.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "captions.docx")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtractParagraphBlocks(t *testing.T) {
	blocks, err := ExtractParagraphBlocks(writeDocx(t))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "Coffee on the dock again. Loons at 6am.\n#lakelife #upnorth", blocks[0])
	assert.Equal(t, "Snow day.\nFire is going.", blocks[1])

	_, err = ExtractParagraphBlocks(filepath.Join(t.TempDir(), "missing.docx"))
	assert.Error(t, err)
}

func TestVoiceInput(t *testing.T) {
	blocks := []string{"Coffee on the dock again.\n#lakelife #upnorth", "#only #tags", "Snow day."}
	assert.Equal(t, "Coffee on the dock again.\n---\nSnow day.", VoiceInput(blocks, 0))
	assert.Equal(t, "Coffee on the dock again.", VoiceInput(blocks, 30))
}

func TestBuildExamplesAndWrite(t *testing.T) {
	props := map[string]storage.Property{
		"p1": {ID: "p1", Name: "Lake Cabin", Location: "Ely, MN"},
	}
	items := []storage.SavedContent{
		{ID: "c1", PropertyID: "p1", ContentType: storage.ContentSocialCaption, Title: "Dock Days", Content: "Coffee on the dock while the loons call across the still water at dawn.", BrandVoice: "Easy Going"},
		{ID: "c2", PropertyID: "p1", ContentType: storage.ContentSocialCaption, Content: "Too short."},
		{ID: "c3", PropertyID: "gone", ContentType: storage.ContentSocialCaption, Content: "Coffee on the dock while the loons call across the still water at dawn."},
	}

	examples := BuildExamples(items, props, Options{})
	require.Len(t, examples, 1)
	ex := examples[0]
	assert.Equal(t, "c1", ex.ContentID)
	assert.True(t, strings.HasPrefix(ex.Completion, "Title: Dock Days\n"))
	assert.Contains(t, ex.Prompt, "Lake Cabin")
	assert.Contains(t, ex.Prompt, `"Easy Going"`)

	assert.Empty(t, BuildExamples(items, props, Options{ContentType: storage.ContentHouseRules}))

	paired := BuildExamples([]storage.SavedContent{{
		ID: "c4", PropertyID: "p1", ContentType: storage.ContentSocialCaption,
		Content:    "Coffee on the dock while the loons call across the still water at dawn.",
		BrandVoice: "friendly, descriptive",
	}}, props, Options{})
	require.Len(t, paired, 1)
	assert.Contains(t, paired[0].Prompt, "Tone: friendly (")
	assert.Contains(t, paired[0].Prompt, "Style: descriptive (")
	assert.NotContains(t, paired[0].Prompt, "authoritative")

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, examples))
	var decoded Example
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded))
	assert.Equal(t, ex, decoded)
}
