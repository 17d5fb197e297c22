package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ExtractParagraphBlocks reads a docx file and returns paragraph groups separated by blank lines.
func ExtractParagraphBlocks(path string) ([]string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer reader.Close()

	paragraphs, err := readParagraphs(&reader.Reader)
	if err != nil {
		return nil, err
	}
	return groupBlocks(paragraphs), nil
}

var hashtagOnlyLine = regexp.MustCompile(`^(?:#\w+[\s,]*)+$`)

// VoiceInput joins caption blocks into one analyzer input, dropping lines
// that are only hashtags and stopping before maxChars is exceeded.
func VoiceInput(blocks []string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = 6000
	}

	var b strings.Builder
	for _, block := range blocks {
		var kept []string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || hashtagOnlyLine.MatchString(line) {
				continue
			}
			kept = append(kept, line)
		}
		if len(kept) == 0 {
			continue
		}
		caption := strings.Join(kept, "\n")
		if b.Len() > 0 && b.Len()+len(caption)+5 > maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(caption)
	}
	return b.String()
}

func groupBlocks(paragraphs []string) []string {
	var entries []string
	var current []string
	for _, paragraph := range paragraphs {
		if strings.TrimSpace(paragraph) == "" {
			if len(current) > 0 {
				entries = append(entries, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		current = append(current, strings.TrimSpace(paragraph))
	}
	if len(current) > 0 {
		entries = append(entries, strings.Join(current, "\n"))
	}
	return entries
}

func readParagraphs(archive *zip.Reader) ([]string, error) {
	var documentXML []byte
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}
		documentXML = data
		break
	}
	if len(documentXML) == 0 {
		return nil, errors.New("no word/document.xml found")
	}

	decoder := xml.NewDecoder(bytes.NewReader(documentXML))
	var paragraphs []string
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "p" {
			continue
		}
		text, err := collectParagraph(decoder)
		if err != nil {
			return nil, err
		}
		paragraphs = append(paragraphs, text)
	}
	return paragraphs, nil
}

// collectParagraph reads runs until the enclosing w:p closes.
func collectParagraph(decoder *xml.Decoder) (string, error) {
	var builder strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return "", err
		}
		switch tok := token.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "t":
				var text string
				if err := decoder.DecodeElement(&text, &tok); err != nil {
					return "", err
				}
				builder.WriteString(text)
			case "tab":
				depth++
				builder.WriteRune('\t')
			case "br", "cr":
				depth++
				builder.WriteRune('\n')
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return builder.String(), nil
}
