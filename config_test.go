package controllerim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Config
		wantErr string
	}{
		{
			name:  "empty document",
			input: "",
			want:  DefaultConfig(),
		},
		{
			name: "full",
			input: `
change_detection: fine-grained
test_mode: true
ids:
  kind: sequence
  prefix: c-
`,
			want: Config{
				ChangeDetection: DetectFineGrained,
				TestMode:        true,
				IDs:             IDConfig{Kind: "sequence", Prefix: "c-"},
			},
		},
		{
			name:  "partial keeps defaults",
			input: "test_mode: true\n",
			want: Config{
				ChangeDetection: DetectSnapshot,
				TestMode:        true,
				IDs:             IDConfig{Kind: "uuid"},
			},
		},
		{
			name:    "unknown mode",
			input:   "change_detection: proxy\n",
			wantErr: `invalid change_detection "proxy"`,
		},
		{
			name:    "unknown id kind",
			input:   "ids:\n  kind: ulid\n",
			wantErr: `invalid ids.kind "ulid"`,
		},
		{
			name:    "unknown field",
			input:   "detection: snapshot\n",
			wantErr: "decoding config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg)
		})
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := Config{
		ChangeDetection: DetectFineGrained,
		TestMode:        true,
		IDs:             IDConfig{Kind: "sequence", Prefix: "n"},
	}

	scope := NewScope(cfg.Options()...)
	require.Equal(t, DetectFineGrained, scope.ChangeDetection())
	require.True(t, scope.TestMode())

	ctrl, err := scope.NewController(nil, newComponent("App"))
	require.NoError(t, err)
	require.Equal(t, "n1", ctrl.ID())
}

func TestWithChangeDetection_Unknown(t *testing.T) {
	require.Panics(t, func() {
		NewScope(WithChangeDetection("proxy"))
	})
}
