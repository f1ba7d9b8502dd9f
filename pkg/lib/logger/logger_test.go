package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"shopcarts/pkg/config"
	"shopcarts/pkg/lib/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	for _, env := range []string{config.EnvLocal, config.EnvDev, config.EnvProd} {
		t.Run(env, func(t *testing.T) {
			log, closer, err := logger.SetupLogger(env, logger.FileOptions{})
			require.NoError(t, err)
			assert.NotNil(t, log)
			assert.NoError(t, closer.Close())
		})
	}

	t.Run("Wrong env", func(t *testing.T) {
		_, _, err := logger.SetupLogger("staging", logger.FileOptions{})
		assert.Error(t, err)
	})
}

func TestSetupLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopcarts.log")

	log, closer, err := logger.SetupLogger(config.EnvProd, logger.FileOptionsFromConfig(config.LogConfig{
		File:      path,
		MaxSizeMB: 1,
	}))
	require.NoError(t, err)

	log.Info("shopcart item created", "shopcart_id", 1234)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "shopcart item created")
	assert.Contains(t, string(data), `"shopcart_id":1234`)
}
