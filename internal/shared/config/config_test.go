package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvInt64(t *testing.T) {
	const key = "CONFIG_TEST_INT64"

	t.Run("unset usa o default", func(t *testing.T) {
		assert.Equal(t, int64(250), getEnvInt64(key, 250))
	})

	t.Run("valor válido", func(t *testing.T) {
		t.Setenv(key, "1500")
		assert.Equal(t, int64(1500), getEnvInt64(key, 250))
	})

	t.Run("aceita sinal", func(t *testing.T) {
		t.Setenv(key, "-42")
		assert.Equal(t, int64(-42), getEnvInt64(key, 250))
	})

	t.Run("overflow cai no default", func(t *testing.T) {
		t.Setenv(key, "9223372036854775808")
		assert.Equal(t, int64(250), getEnvInt64(key, 250))
	})

	t.Run("lixo cai no default", func(t *testing.T) {
		t.Setenv(key, "abc")
		assert.Equal(t, int64(250), getEnvInt64(key, 250))
	})
}
