package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"

	"github.com/v7mdd/MoodleMate/internal/models"
)

// LoaderFunc reads a file into page-segmented text.
type LoaderFunc func(filePath string) (models.Document, error)

// Loaders maps a lowercased file extension to its loader.
type Loaders map[string]LoaderFunc

// DefaultLoaders returns every loader this package knows about.
func DefaultLoaders() Loaders {
	return Loaders{
		".pdf":  parsePDF,
		".docx": parseDOCX,
		".xlsx": parseXLSX,
	}
}

// Only returns the subset of loaders enabled for the given extensions.
func (l Loaders) Only(extensions []string) (Loaders, error) {
	out := make(Loaders, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		fn, ok := l[ext]
		if !ok {
			return nil, fmt.Errorf("unsupported file format: %s", ext)
		}
		out[ext] = fn
	}
	return out, nil
}

// Extensions lists the registered extensions in sorted order.
func (l Loaders) Extensions() []string {
	exts := make([]string, 0, len(l))
	for ext := range l {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load dispatches to the loader registered for the file's extension.
func (l Loaders) Load(filePath string) (models.Document, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	fn, ok := l[ext]
	if !ok {
		return models.Document{}, fmt.Errorf("unsupported file format: %s", ext)
	}
	doc, err := fn(filePath)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to load %s: %w", filePath, err)
	}
	return doc, nil
}

func parsePDF(filePath string) (models.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return models.Document{}, err
	}
	defer f.Close()

	// Get file size for reader initialization
	stat, err := f.Stat()
	if err != nil {
		return models.Document{}, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return models.Document{}, err
	}

	doc := models.Document{Path: filePath}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return models.Document{}, fmt.Errorf("page %d: %w", i, err)
		}
		// pdf pages are 1-based, ours are 0-based
		doc.Pages = append(doc.Pages, models.Page{Number: i - 1, Text: pageText})
	}
	return doc, nil
}

var (
	docxParagraphRe = regexp.MustCompile(`</w:p>`)
	docxTextRe      = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
)

// DOCX has no page numbers, the whole body becomes page 0.
func parseDOCX(filePath string) (models.Document, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return models.Document{}, err
	}
	defer r.Close()

	return models.Document{
		Path:  filePath,
		Pages: []models.Page{{Number: 0, Text: extractTextFromXML(r.Editable().GetContent())}},
	}, nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	for _, paragraph := range docxParagraphRe.Split(xmlContent, -1) {
		var line strings.Builder
		for _, m := range docxTextRe.FindAllStringSubmatch(paragraph, -1) {
			line.WriteString(m[1])
		}
		if line.Len() == 0 {
			continue
		}
		text.WriteString(line.String())
		text.WriteString("\n")
	}
	return text.String()
}

// each sheet becomes one page
func parseXLSX(filePath string) (models.Document, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return models.Document{}, err
	}
	defer f.Close()

	doc := models.Document{Path: filePath}
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return models.Document{}, fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		doc.Pages = append(doc.Pages, models.Page{Number: sheetNum, Text: text.String()})
	}
	return doc, nil
}
