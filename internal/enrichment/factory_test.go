package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOracle(t *testing.T) {
	t.Run("disabled providers yield nil", func(t *testing.T) {
		for _, name := range []string{"", "none"} {
			o, err := NewOracle(FactoryConfig{Provider: name})
			require.NoError(t, err)
			assert.Nil(t, o)
		}
	})

	t.Run("openai", func(t *testing.T) {
		o, err := NewOracle(FactoryConfig{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "k"}})
		require.NoError(t, err)
		assert.IsType(t, &OpenAIOracle{}, o)
	})

	t.Run("anthropic", func(t *testing.T) {
		o, err := NewOracle(FactoryConfig{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "k"}})
		require.NoError(t, err)
		assert.Equal(t, "anthropic", o.Name())
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewOracle(FactoryConfig{Provider: "openai"})
		assert.Error(t, err)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := NewOracle(FactoryConfig{Provider: "gemini"})
		assert.ErrorContains(t, err, `"gemini"`)
	})
}
