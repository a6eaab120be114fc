package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantKeys []string
		wantVals []string
	}{
		{
			name:     "list of secret objects",
			input:    `[{"secretKey":"DB_URL","secretValue":"postgres://x","type":"shared"},{"secretKey":"TOKEN","secretValue":"t1"}]`,
			wantKeys: []string{"DB_URL", "TOKEN"},
			wantVals: []string{"postgres://x", "t1"},
		},
		{
			name:     "flat object keeps document order",
			input:    `{"ZED":"1","ALPHA":"2","MID":"line one\nline two"}`,
			wantKeys: []string{"ZED", "ALPHA", "MID"},
			wantVals: []string{"1", "2", "line one\nline two"},
		},
		{
			name:     "duplicate keys keep first position and last value",
			input:    `[{"secretKey":"A","secretValue":"1"},{"secretKey":"B","secretValue":"2"},{"secretKey":"A","secretValue":"3"}]`,
			wantKeys: []string{"A", "B"},
			wantVals: []string{"3", "2"},
		},
		{
			name:     "empty list",
			input:    `[]`,
			wantKeys: []string{},
			wantVals: []string{},
		},
		{
			name:     "empty object",
			input:    ` {} `,
			wantKeys: []string{},
			wantVals: []string{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			set, err := ParseJSON([]byte(test.input))
			require.NoError(t, err)

			keys := []string{}
			vals := []string{}
			_ = set.Range(func(k, v string) error {
				keys = append(keys, k)
				vals = append(vals, v)
				return nil
			})
			assert.Equal(t, test.wantKeys, keys)
			assert.Equal(t, test.wantVals, vals)
		})
	}
}

func TestParseJSONErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "not json", input: `DB_URL=postgres://x`, wantErr: ErrInvalidJSON},
		{name: "empty output", input: ``, wantErr: ErrInvalidJSON},
		{name: "truncated", input: `[{"secretKey":"A"`, wantErr: ErrInvalidJSON},
		{name: "top level string", input: `"hello"`, wantErr: ErrSecretShape},
		{name: "top level null", input: `null`, wantErr: ErrSecretShape},
		{name: "list of strings", input: `["A","B"]`, wantErr: ErrSecretShape},
		{name: "list element missing value", input: `[{"secretKey":"A"}]`, wantErr: ErrSecretShape},
		{name: "list element missing key", input: `[{"secretValue":"1"}]`, wantErr: ErrSecretShape},
		{name: "list element numeric value", input: `[{"secretKey":"A","secretValue":1}]`, wantErr: ErrSecretShape},
		{name: "list element null value", input: `[{"secretKey":"A","secretValue":null}]`, wantErr: ErrSecretShape},
		{name: "object with number", input: `{"PORT":8080}`, wantErr: ErrSecretShape},
		{name: "object with nested object", input: `{"A":{"B":"C"}}`, wantErr: ErrSecretShape},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseJSON([]byte(test.input))
			assert.ErrorIs(t, err, test.wantErr)
		})
	}
}

func TestNewSet(t *testing.T) {
	t.Parallel()

	set := NewSet(Secret{Key: "B", Value: "1"}, Secret{Key: "A", Value: "2"}, Secret{Key: "B", Value: "3"})
	assert.Equal(t, []string{"B", "A"}, set.Keys())

	v, ok := set.Get("B")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestParseSourceName(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"":          SourceInfisical,
		"infisical": SourceInfisical,
		" Vault ":   SourceVault,
		"VAULT":     SourceVault,
	} {
		got, err := ParseSourceName(in)
		require.NoError(t, err, "ParseSourceName(%q)", in)
		assert.Equal(t, want, got, "ParseSourceName(%q)", in)
	}

	_, err := ParseSourceName("1password")
	assert.ErrorContains(t, err, `unknown secret source "1password"`)
}
