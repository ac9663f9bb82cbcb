package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptExt is the extension of prompt template files.
const promptExt = ".txt"

// defaultPrompts seed the prompt directory and stand in for missing or
// malformed files. Each takes exactly one %s for the text.
var defaultPrompts = map[string]string{
	driven.PromptChunkYear: `Extract the reporting year mentioned in the following text paragraph.
If there is no explicit year, return 'None'.

Text:
"""%s"""`,

	driven.PromptDocumentYear: `The following text is the first page of an annual or sustainability report.
Which fiscal year does the report cover? Answer with the 4-digit year only.

Text:
"""%s"""

Year:`,
}

const promptReadme = `# reportrag prompts

Templates sent to the generative model when reportrag infers report years.

- chunk_year.txt     finds the year a retrieved text chunk refers to
- document_year.txt  guesses the report year from the first page

Each template takes exactly one %s placeholder for the text. A file without
it is ignored in favour of the built-in default. The document_year answer is
read from its first 4 characters, so keep asking for the bare year.
Edits take effect on the next command.
`

// PromptStore reads year-inference prompt templates from a directory of
// user-editable text files. The directory is seeded with the defaults on
// first use; nothing touches the disk before that.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at dir.
// If dir is empty, defaults to ~/.reportrag/prompts.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		dir = filepath.Join(home, ".reportrag", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the template for name. Unknown names are an error;
// known names always resolve, falling back to the built-in default.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("prompt %q: %w", name, fs.ErrNotExist)
	}

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		return fallback, nil
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	prompt, err := s.read(name)
	if err != nil {
		logger.Debug("Prompt %s: %v, using default", name, err)
		prompt = fallback
	}

	s.mu.Lock()
	if existing, ok := s.cache[name]; ok {
		prompt = existing
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.dir
}

// read loads one template and checks its placeholder.
func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if n := strings.Count(prompt, "%s"); n != 1 {
		return "", fmt.Errorf("template has %d %%s placeholders, want 1", n)
	}
	return prompt, nil
}

// seed creates the directory, the default templates and a README.
// Existing files are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("Prompts: %v", s.seedErr)
		return
	}

	files := map[string]string{"README.md": promptReadme}
	for name, content := range defaultPrompts {
		files[name+promptExt] = content + "\n"
	}
	for file, content := range files {
		if err := writeIfMissing(filepath.Join(s.dir, file), content); err != nil {
			s.seedErr = fmt.Errorf("seed %s: %w", file, err)
			logger.Warn("Prompts: %v", s.seedErr)
			return
		}
	}
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}
