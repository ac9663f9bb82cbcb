package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	for key, want := range map[string]string{
		"":                         "****",
		"voyage12":                 "****",
		"sk-ant-api03-abcdefwxyz": "sk-a...wxyz",
		"AIzaSyD-0123456789":       "AIza...6789",
	} {
		assert.Equal(t, want, maskAPIKey(key), "key %q", key)
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input      string
		maxVal     int
		defaultVal int
		want       int
	}{
		{"", 4, 1, 1},
		{" 2 ", 4, 1, 2},
		{"4", 4, 1, 4},
		{"5", 4, 3, 3},
		{"0", 4, 2, 2},
		{"-1", 4, 1, 1},
		{"ollama", 4, 1, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseChoice(tt.input, tt.maxVal, tt.defaultVal), "input %q", tt.input)
	}
}

func TestReadPassword_NonTerminalReadsLine(t *testing.T) {
	in := strings.NewReader("sk-secret\nrest\n")
	reader := bufio.NewReader(in)

	assert.Equal(t, "sk-secret", readPassword(in, reader))
	assert.Equal(t, "rest", readLine(reader))
}

func TestPrintAPIKey(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printAPIKey(cmd, "openai", "sk-1234567890abcdef")

	assert.Contains(t, buf.String(), "sk-1...cdef")
	assert.NotContains(t, buf.String(), "567890")
}

func TestStatusWords(t *testing.T) {
	assert.Equal(t, "yes", yesNo(true))
	assert.Equal(t, "no", yesNo(false))
	assert.NotEqual(t, configuredStatus(true), configuredStatus(false))
}

func TestConfigureProvider_Embedding(t *testing.T) {
	ts := injectServices(t)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(""))
	// openai is the second embedding provider; empty model keeps the default.
	reader := bufio.NewReader(strings.NewReader("2\n\nsk-test-0123456789\n"))

	err := configureEmbeddingProvider(cmd, reader)

	assert.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, ts.settings.settings.Embedding.Provider)
	assert.Equal(t, domain.DefaultEmbeddingModels()[domain.AIProviderOpenAI], ts.settings.settings.Embedding.Model)
	assert.Equal(t, "sk-test-0123456789", ts.settings.settings.Embedding.APIKey)
	assert.Contains(t, out.String(), "Embedding provider configured")
}

func TestConfigureProvider_LLMWithoutKey(t *testing.T) {
	ts := injectServices(t)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	reader := bufio.NewReader(strings.NewReader("1\nllama3.1\n"))

	err := configureLLMProvider(cmd, reader)

	assert.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.LLM.Provider)
	assert.Equal(t, "llama3.1", ts.settings.settings.LLM.Model)
	assert.Empty(t, ts.settings.settings.LLM.APIKey)
	assert.NotContains(t, out.String(), "API key")
}
