package credentials

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnv_Lookup(t *testing.T) {
	t.Setenv("TEST_PROVIDER_KEY", "sk-test")
	v, err := Env{}.Lookup(context.Background(), "TEST_PROVIDER_KEY")
	require.NoError(t, err)
	require.Equal(t, "sk-test", v)
}

func TestEnv_Lookup_Missing(t *testing.T) {
	t.Setenv("TEST_PROVIDER_KEY", "  ")
	_, err := Env{}.Lookup(context.Background(), "TEST_PROVIDER_KEY")
	require.Error(t, err)

	name, ok := IsMissing(err)
	require.True(t, ok)
	require.Equal(t, "TEST_PROVIDER_KEY", name)
	require.Contains(t, err.Error(), "TEST_PROVIDER_KEY")
}

func TestStatic_Lookup(t *testing.T) {
	s := Static{"OPENAI_API_KEY": "sk-1"}

	v, err := s.Lookup(context.Background(), "OPENAI_API_KEY")
	require.NoError(t, err)
	require.Equal(t, "sk-1", v)

	_, err = s.Lookup(context.Background(), "GROQ_API_KEY")
	name, ok := IsMissing(err)
	require.True(t, ok)
	require.Equal(t, "GROQ_API_KEY", name)
}

func TestIsMissing_WrappedError(t *testing.T) {
	err := fmt.Errorf("resolve key: %w", &Missing{Name: "ANTHROPIC_API_KEY"})
	name, ok := IsMissing(err)
	require.True(t, ok)
	require.Equal(t, "ANTHROPIC_API_KEY", name)

	_, ok = IsMissing(fmt.Errorf("boom"))
	require.False(t, ok)
}
