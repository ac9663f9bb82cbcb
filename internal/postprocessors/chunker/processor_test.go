package chunker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

func paragraphs(texts ...string) []domain.Paragraph {
	out := make([]domain.Paragraph, len(texts))
	for i, text := range texts {
		out[i] = domain.Paragraph{
			Text:       text,
			PageNumber: 1,
			BBox:       domain.Rect{X0: 0, Y0: 0, X1: 595, Y1: 842},
			Index:      i,
		}
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.window != DefaultWindow {
			t.Errorf("expected window %d, got %d", DefaultWindow, p.window)
		}
		if p.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, p.overlap)
		}
	})

	t.Run("custom window and overlap", func(t *testing.T) {
		p := New(WithWindow(5), WithOverlap(2))
		if p.window != 5 || p.overlap != 2 {
			t.Errorf("expected 5/2, got %d/%d", p.window, p.overlap)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithWindow(0), WithOverlap(-1))
		if p.window != DefaultWindow {
			t.Errorf("expected default window, got %d", p.window)
		}
		if p.overlap != DefaultOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestChunkText_FourParagraphs(t *testing.T) {
	p := New()

	chunks, err := p.ChunkText(paragraphs("A", "B", "C", "D"), 3, 1, "doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"A\n\nB\n\nC", "C\n\nD"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i].Text != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], chunks[i].Text)
		}
		if chunks[i].Type != domain.ChunkTypeText {
			t.Errorf("chunk %d: expected text type, got %s", i, chunks[i].Type)
		}
	}
	if got := chunks[1].ParagraphIndices; len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("expected second chunk to start at paragraph 2, got %v", got)
	}
}

func TestChunkText_FewerThanWindow(t *testing.T) {
	chunks, err := New().ChunkText(paragraphs("A", "B"), 3, 1, "doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "A\n\nB" {
		t.Errorf("unexpected text %q", chunks[0].Text)
	}
}

func TestChunkText_ExactWindow(t *testing.T) {
	chunks, err := New().ChunkText(paragraphs("A", "B", "C"), 3, 1, "doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("expected a single chunk when the window covers everything, got %d", len(chunks))
	}
}

func TestChunkText_Empty(t *testing.T) {
	chunks, err := New().ChunkText(nil, 3, 1, "doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestChunkText_InvalidConfig(t *testing.T) {
	tests := []struct {
		window, overlap int
	}{
		{3, 3},
		{2, 5},
		{3, -1},
		{0, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("window=%d overlap=%d", tt.window, tt.overlap), func(t *testing.T) {
			_, err := New().ChunkText(paragraphs("A"), tt.window, tt.overlap, "doc")
			if !errors.Is(err, domain.ErrInvalidChunkConfig) {
				t.Errorf("expected ErrInvalidChunkConfig, got %v", err)
			}
		})
	}
}

func TestChunkText_CoverageAndOverlap(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for window := 1; window <= 5; window++ {
			for overlap := 0; overlap < window; overlap++ {
				texts := make([]string, n)
				for i := range texts {
					texts[i] = fmt.Sprintf("p%d", i)
				}

				chunks, err := New().ChunkText(paragraphs(texts...), window, overlap, "doc")
				if err != nil {
					t.Fatalf("n=%d w=%d o=%d: %v", n, window, overlap, err)
				}

				step := window - overlap
				if want := (max(n-overlap, 1) + step - 1) / step; len(chunks) != want {
					t.Errorf("n=%d w=%d o=%d: got %d chunks, want %d", n, window, overlap, len(chunks), want)
				}

				seen := make(map[int]bool)
				for _, c := range chunks {
					for _, idx := range c.ParagraphIndices {
						seen[idx] = true
					}
				}
				if len(seen) != n {
					t.Errorf("n=%d w=%d o=%d: covered %d paragraphs", n, window, overlap, len(seen))
				}

				for i := 1; i < len(chunks); i++ {
					prev := chunks[i-1].ParagraphIndices
					cur := chunks[i].ParagraphIndices
					shared := 0
					for _, a := range prev {
						for _, b := range cur {
							if a == b {
								shared++
							}
						}
					}
					if shared != overlap {
						t.Errorf("n=%d w=%d o=%d: chunks %d/%d share %d paragraphs", n, window, overlap, i-1, i, shared)
					}
				}
			}
		}
	}
}

func TestChunkText_Deterministic(t *testing.T) {
	input := paragraphs("Alpha", "Beta", "Gamma", "Delta", "Epsilon")

	first, err := New().Chunk(input, "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := New().Chunk(input, "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d: ids differ %s vs %s", i, first[i].ID, second[i].ID)
		}
		if first[i].ID != domain.ChunkID("hash", domain.ChunkTypeText, 1, first[i].Text) {
			t.Errorf("chunk %d: id does not match ChunkID", i)
		}
	}
}

func TestChunkText_PagesAcrossBoundary(t *testing.T) {
	input := []domain.Paragraph{
		{Text: "A", PageNumber: 1, Index: 0},
		{Text: "B", PageNumber: 1, Index: 1},
		{Text: "C", PageNumber: 2, Index: 0},
	}

	chunks, err := New().ChunkText(input, 3, 1, "doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pages := chunks[0].PageNumbers
	if len(pages) != 2 || pages[0] != 1 || pages[1] != 2 {
		t.Errorf("expected pages [1 2], got %v", pages)
	}
	if len(chunks[0].BBoxes) != 3 {
		t.Errorf("expected one box per paragraph, got %d", len(chunks[0].BBoxes))
	}
}
