package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// Accepted report years, both bounds exclusive.
const (
	minReportYear = 1900
	maxReportYear = 2100
)

// fallbackPrompts are used when no PromptStore is configured.
var fallbackPrompts = map[string]string{
	driven.PromptChunkYear:    "Extract the reporting year mentioned in the following text. If there is no explicit year, return 'None'.\n\nText:\n%s",
	driven.PromptDocumentYear: "Which fiscal year does this report cover? Answer with the 4-digit year only.\n\nText:\n%s\n\nYear:",
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// YearResolver returns a report year, or nil when it has no opinion.
type YearResolver func(ctx context.Context) *int

// FirstYear runs resolvers in order and returns the first non-nil year.
func FirstYear(ctx context.Context, resolvers ...YearResolver) *int {
	for _, resolve := range resolvers {
		if ctx.Err() != nil {
			return nil
		}
		if year := resolve(ctx); year != nil {
			return year
		}
	}
	return nil
}

// FixedYear resolves to year, which may be nil.
func FixedYear(year *int) YearResolver {
	return func(context.Context) *int { return year }
}

// YearInferer infers report years for documents and retrieved chunks.
// Every failure is soft: an unusable answer resolves to nil.
type YearInferer struct {
	parser  driven.DocumentParser
	llm     driven.GenerativeService
	prompts driven.PromptStore
}

// NewYearInferer creates a year inferer.
// The llm and prompts parameters are optional (can be nil).
func NewYearInferer(parser driven.DocumentParser, llm driven.GenerativeService, prompts driven.PromptStore) *YearInferer {
	return &YearInferer{parser: parser, llm: llm, prompts: prompts}
}

// InferYear returns the report year of a PDF: the metadata creation or
// modification date first, then a model guess from the first page.
func (y *YearInferer) InferYear(ctx context.Context, data []byte) *int {
	return FirstYear(ctx, y.DocumentResolvers(data)...)
}

// DocumentResolvers lists the document-level resolvers in priority order.
func (y *YearInferer) DocumentResolvers(data []byte) []YearResolver {
	return []YearResolver{
		y.metadataYear(data),
		y.firstPageYear(data),
	}
}

// ChunkYear resolves the report year of a retrieved chunk.
// Text chunks ask the model, table columns use their header year;
// both fall back to documentYear.
func (y *YearInferer) ChunkYear(ctx context.Context, chunk *domain.Chunk, documentYear *int) *int {
	return FirstYear(ctx, y.ChunkResolvers(chunk, documentYear)...)
}

// ChunkResolvers lists the chunk-level resolvers in priority order.
func (y *YearInferer) ChunkResolvers(chunk *domain.Chunk, documentYear *int) []YearResolver {
	var resolvers []YearResolver
	switch chunk.Type {
	case domain.ChunkTypeText:
		resolvers = append(resolvers, y.chunkTextYear(chunk.Text))
	case domain.ChunkTypeTableColumn:
		resolvers = append(resolvers, FixedYear(chunk.Year))
	}
	return append(resolvers, FixedYear(documentYear))
}

func (y *YearInferer) metadataYear(data []byte) YearResolver {
	return func(ctx context.Context) *int {
		if y.parser == nil {
			return nil
		}
		meta, err := y.parser.Metadata(ctx, data)
		if err != nil {
			logger.Debug("Year: metadata unavailable: %v", err)
			return nil
		}
		if year := ParsePDFDateYear(meta.CreationDate); year != nil {
			logger.Debug("Year: %d from creation date", *year)
			return year
		}
		if year := ParsePDFDateYear(meta.ModDate); year != nil {
			logger.Debug("Year: %d from modification date", *year)
			return year
		}
		return nil
	}
}

func (y *YearInferer) firstPageYear(data []byte) YearResolver {
	return func(ctx context.Context) *int {
		if y.parser == nil || y.llm == nil {
			return nil
		}
		text, err := y.parser.FirstPageText(ctx, data)
		if err != nil || strings.TrimSpace(text) == "" {
			return nil
		}
		answer, ok := y.ask(ctx, driven.PromptDocumentYear, text)
		if !ok {
			return nil
		}
		year := ParseLeadingYear(answer)
		if year != nil {
			logger.Debug("Year: %d guessed from first page", *year)
		}
		return year
	}
}

func (y *YearInferer) chunkTextYear(text string) YearResolver {
	return func(ctx context.Context) *int {
		if y.llm == nil || strings.TrimSpace(text) == "" {
			return nil
		}
		answer, ok := y.ask(ctx, driven.PromptChunkYear, text)
		if !ok {
			return nil
		}
		return FindYear(answer)
	}
}

// ask renders a prompt and returns the model answer.
func (y *YearInferer) ask(ctx context.Context, prompt, text string) (string, bool) {
	template := fallbackPrompts[prompt]
	if y.prompts != nil {
		if loaded, err := y.prompts.Load(prompt); err == nil && strings.Count(loaded, "%s") == 1 {
			template = loaded
		}
	}

	gen, err := y.llm.Generate(ctx, fmt.Sprintf(template, text))
	if err != nil {
		logger.Warn("Year: %s prompt failed: %v", prompt, err)
		return "", false
	}
	return gen.Text, true
}

// ParsePDFDateYear reads the year of a PDF date string such as "D:20230315103000Z".
func ParsePDFDateYear(s string) *int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	return ParseLeadingYear(s)
}

// ParseLeadingYear parses the first four characters of s as a year.
func ParseLeadingYear(s string) *int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return nil
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return nil
	}
	return validYear(year)
}

// FindYear returns the first standalone 19xx or 20xx year in s.
func FindYear(s string) *int {
	match := yearPattern.FindString(s)
	if match == "" {
		return nil
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return validYear(year)
}

func validYear(year int) *int {
	if year <= minReportYear || year >= maxReportYear {
		return nil
	}
	return &year
}
