package main

import (
	"bytes"
	"context"
	"testing"

	"chatbot-widget/internal/constant"
	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/repository/memory"
	"chatbot-widget/internal/widget"
	"chatbot-widget/pkg/clock"
	"chatbot-widget/pkg/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStorageDumpsPersistedState(t *testing.T) {
	ctx := context.Background()
	storage := memory.NewStorageRepository()
	clk := clock.NewReal()
	w, err := widget.New(ctx, widget.Deps{
		Storage: storage,
		Gateway: gateway.NewPlaceholderGateway(clk),
		Clock:   clk,
		Logger:  logger.NewNopLogger(),
	}, widget.Options{})
	require.NoError(t, err)
	defer w.Destroy()

	w.Toggle(ctx)
	require.NoError(t, storage.Set(ctx, constant.DefaultMessageStorageKey, `[{"id":"msg-1","text":"hi"}]`))

	var out bytes.Buffer
	printStorage(ctx, &out, w, storage)

	dump := out.String()
	assert.Contains(t, dump, constant.StorageKeySessionID+": "+w.Snapshot().SessionId)
	assert.Contains(t, dump, constant.DefaultMessageStorageKey+`: [{"id":"msg-1","text":"hi"}]`)
}
