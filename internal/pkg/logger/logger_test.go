package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("JSON format", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithOutput(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

		log.WithField("order_number", "ORD-1").Info("Order placed")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Order placed", entry["msg"])
		assert.Equal(t, "ORD-1", entry["order_number"])
		assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	})

	t.Run("Unknown level falls back to info", func(t *testing.T) {
		log := New(config.LoggingConfig{Level: "loud", Format: "text"})

		assert.Equal(t, logrus.InfoLevel, log.GetLevel())
		assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
	})
}
