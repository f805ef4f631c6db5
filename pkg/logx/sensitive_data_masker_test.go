package logx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tonhunter/pkg/logx"
)

func TestSensitiveDataMaskerMask(t *testing.T) {
	rq := require.New(t)

	masker := logx.NewSensitiveDataMasker()

	testCases := []struct {
		name   string
		input  []byte
		output []byte
	}{
		{
			name:   "Password",
			input:  []byte(`{"hello":"world","password":"abc123"}`),
			output: []byte(`{"hello":"world","password":"[MASKED]"}`),
		},
		{
			name:   "Password capital letter",
			input:  []byte(`{"hello":"world","Password":"abc123"}`),
			output: []byte(`{"hello":"world","Password":"[MASKED]"}`),
		},
		{
			name:   "Gateway token",
			input:  []byte(`{"token":"41001abcdef","wallet":"410011234567890"}`),
			output: []byte(`{"token":"[MASKED]","wallet":"410011234567890"}`),
		},
		{
			name:   "Wallet mnemonic",
			input:  []byte(`{"mnemonic":"abandon ability able about above absent","version":"v4r2"}`),
			output: []byte(`{"mnemonic":"[MASKED]","version":"v4r2"}`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			output := masker.Mask(tc.input)

			rq.Equal(tc.output, output, "%s vs %s", tc.output, output)
		})
	}
}
