package pdf

import (
	"bytes"
	"context"
	"fmt"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser extracts paragraphs and table year-columns from PDF bytes.
// It holds no state; one Parser may serve concurrent ingestions.
type Parser struct{}

// New creates a new PDF parser.
func New() *Parser {
	return &Parser{}
}

// ExtractParagraphs returns the paragraphs of every page in page order.
// Rows of a year table are not part of any paragraph; every other row is.
func (p *Parser) ExtractParagraphs(ctx context.Context, data []byte) ([]domain.Paragraph, error) {
	layouts, err := analyse(ctx, data)
	if err != nil {
		return nil, err
	}

	var paragraphs []domain.Paragraph
	for _, l := range layouts {
		paragraphs = append(paragraphs, l.paragraphs...)
	}
	if len(paragraphs) == 0 && !hasTables(layouts) {
		return nil, fmt.Errorf("no page yields text: %w", domain.ErrUnreadableDocument)
	}
	return paragraphs, nil
}

// ExtractTableChunks returns one chunk per year column of each table.
// Pages without tables contribute nothing.
func (p *Parser) ExtractTableChunks(ctx context.Context, data []byte, paragraphs []domain.Paragraph,
	sourceDocumentID string) ([]domain.Chunk, error) {
	layouts, err := analyse(ctx, data)
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	for _, l := range layouts {
		chunks = append(chunks, tableChunks(l, paragraphs, sourceDocumentID)...)
	}
	return chunks, nil
}

// Metadata reads the creation and modification dates of the info dictionary.
func (p *Parser) Metadata(_ context.Context, data []byte) (meta driven.DocumentMetadata, err error) {
	r, err := open(data)
	if err != nil {
		return driven.DocumentMetadata{}, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			meta, err = driven.DocumentMetadata{}, nil
			logger.Debug("pdf info dictionary unreadable: %v", rec)
		}
	}()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return driven.DocumentMetadata{}, nil
	}
	return driven.DocumentMetadata{
		CreationDate: info.Key("CreationDate").Text(),
		ModDate:      info.Key("ModDate").Text(),
	}, nil
}

// FirstPageText returns page 1 as plain text, one row per line.
func (p *Parser) FirstPageText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r, err := open(data)
	if err != nil {
		return "", err
	}
	if numPages(r) == 0 {
		return "", fmt.Errorf("document has no pages: %w", domain.ErrUnreadableDocument)
	}

	glyphs, ok := pageGlyphs(r, 1)
	if !ok {
		return "", nil
	}
	return plainText(glyphs), nil
}

// open parses the cross-reference structure of data.
func open(data []byte) (r *lpdf.Reader, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: %w", domain.ErrUnreadableDocument)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("%v: %w", rec, domain.ErrUnreadableDocument)
		}
	}()

	r, err = lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrUnreadableDocument)
	}
	return r, nil
}

// analyse lays out every page of data.
func analyse(ctx context.Context, data []byte) ([]pageLayout, error) {
	r, err := open(data)
	if err != nil {
		return nil, err
	}

	n := numPages(r)
	layouts := make([]pageLayout, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		glyphs, ok := pageGlyphs(r, i)
		if !ok {
			continue
		}
		layouts = append(layouts, analysePage(i, glyphs))
	}
	return layouts, nil
}

func numPages(r *lpdf.Reader) (n int) {
	defer func() {
		if rec := recover(); rec != nil {
			n = 0
		}
	}()
	return r.NumPage()
}

// pageGlyphs returns the positioned glyphs of page i.
// A page whose content cannot be decoded is skipped.
func pageGlyphs(r *lpdf.Reader, i int) (glyphs []lpdf.Text, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("pdf page %d unreadable: %v", i, rec)
			glyphs, ok = nil, false
		}
	}()

	page := r.Page(i)
	if page.V.IsNull() {
		return nil, false
	}
	return page.Content().Text, true
}

func hasTables(layouts []pageLayout) bool {
	for _, l := range layouts {
		if len(l.tables) > 0 {
			return true
		}
	}
	return false
}
