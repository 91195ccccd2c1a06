package exporter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbpulse/internal/config"
)

func TestNewSink(t *testing.T) {
	ctx := context.Background()

	t.Run("csv", func(t *testing.T) {
		sink, err := NewSink(ctx, config.SinkConfig{
			Kind:    config.SinkKindCSV,
			CSVPath: filepath.Join(t.TempDir(), "out.csv"),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "csv", sink.Name())
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := NewSink(ctx, config.SinkConfig{Kind: "ftp"}, nil)
		assert.ErrorContains(t, err, "unsupported sink kind")
	})

	t.Run("sheets without id", func(t *testing.T) {
		_, err := NewSink(ctx, config.SinkConfig{Kind: config.SinkKindSheets}, nil)
		assert.Error(t, err)
	})
}
