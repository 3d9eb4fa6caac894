package tracer

import (
	"context"
	"testing"

	"chatbot-widget/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestInitTracerDisabledIsNoop(t *testing.T) {
	shutdown := InitTracer(config.TracingConfig{Enabled: false}, "stub-gateway")
	assert.NoError(t, shutdown(context.Background()))
}
