package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the
	// built-in default or an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptChunkYear asks for the reporting year mentioned in a chunk.
	// The template expects one %s placeholder for the chunk text.
	PromptChunkYear = "chunk_year"

	// PromptDocumentYear asks for a 4-digit report year guess from page 1.
	// The template expects one %s placeholder for the page text.
	PromptDocumentYear = "document_year"
)
