package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/affix"
)

var readingFields = []string{
	"--field", "code:uint8:prefix=A",
	"--field", "temperature:float32:suffix=C",
}

func TestUnmarshal(t *testing.T) {
	clearEnv(t)

	t.Run("json", func(t *testing.T) {
		args := append([]string{"unmarshal"}, readingFields...)
		out, _, err := runWithInput(t, `{"code":"A12","temperature":"-12.3C"}`, args...)
		require.NoError(t, err)
		assert.Equal(t, "{\"code\":12,\"temperature\":-12.3}\n", out)
	})

	t.Run("yaml format flag", func(t *testing.T) {
		args := append([]string{"--format", "yaml", "unmarshal"}, readingFields...)
		out, _, err := runWithInput(t, "code: A12\ntemperature: -12.3C\n", args...)
		require.NoError(t, err)
		assert.Equal(t, "code: 12\ntemperature: -12.3\n", out)
	})

	t.Run("named codec from config", func(t *testing.T) {
		out, _, err := runWithInput(t, `{"key":"42_kek"}`,
			"--config", writeConfig(t), "unmarshal", "--field", "key:int64:kek")
		require.NoError(t, err)
		assert.Equal(t, "{\"key\":42}\n", out)
	})

	t.Run("missing affix", func(t *testing.T) {
		args := append([]string{"unmarshal"}, readingFields...)
		_, _, err := runWithInput(t, `{"code":"12","temperature":"-12.3C"}`, args...)
		fieldErrs := affix.FieldErrors(err)
		require.Len(t, fieldErrs, 1)
		assert.ErrorIs(t, fieldErrs["code"], affix.ErrMissingAffix)
	})
}

func TestMarshal(t *testing.T) {
	clearEnv(t)

	t.Run("json", func(t *testing.T) {
		args := append([]string{"marshal"}, readingFields...)
		out, _, err := runWithInput(t, `{"code":12,"temperature":-12.3}`, args...)
		require.NoError(t, err)
		assert.Equal(t, "{\"code\":\"A12\",\"temperature\":\"-12.3C\"}\n", out)
	})

	t.Run("yaml format flag", func(t *testing.T) {
		args := append([]string{"--format", "yaml", "marshal"}, readingFields...)
		out, _, err := runWithInput(t, "code: 12\ntemperature: -12.3\n", args...)
		require.NoError(t, err)
		assert.Equal(t, "code: A12\ntemperature: -12.3C\n", out)
	})

	t.Run("invalid document", func(t *testing.T) {
		args := append([]string{"marshal"}, readingFields...)
		_, _, err := runWithInput(t, `{"code":"twelve"}`, args...)
		assert.ErrorContains(t, err, "unmarshal json document")
	})
}

func TestParseFields(t *testing.T) {
	doc, err := parseFields([]string{"code:uint8:prefix=A", "key:int64:kek"})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.plain.NumField())
	assert.Equal(t, `json:"code" yaml:"code" affix:"prefix=A"`, string(doc.affixed.Field(0).Tag))
	assert.Equal(t, `json:"key" yaml:"key"`, string(doc.plain.Field(1).Tag))

	tests := []struct {
		name string
		spec string
		want string
	}{
		{"missing tag", "code:uint8", "expected NAME:TYPE:TAG"},
		{"empty name", ":uint8:prefix=A", "expected NAME:TYPE:TAG"},
		{"quoted name", `co"de:uint8:prefix=A`, "name cannot contain"},
		{"unknown type", "code:complex64:prefix=A", "unsupported type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFields([]string{tt.spec})
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err = parseFields([]string{"code:uint8:prefix=A", "code:uint8:prefix=B"})
	assert.ErrorContains(t, err, "duplicate name 'code'")
}
