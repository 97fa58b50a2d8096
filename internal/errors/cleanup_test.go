package errors

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type mockCloser struct {
	closeErr error
	closed   bool
}

func (m *mockCloser) Close() error {
	m.closed = true
	return m.closeErr
}

func TestDeferClose(t *testing.T) {
	tests := []struct {
		name       string
		closer     io.Closer
		wantLogged bool
	}{
		{name: "nil closer"},
		{name: "successful close", closer: &mockCloser{}},
		{name: "close with error", closer: &mockCloser{closeErr: errors.New("close failed")}, wantLogged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			DeferClose(zerolog.New(&buf), tt.closer, "failed to close store")

			if m, ok := tt.closer.(*mockCloser); ok {
				assert.True(t, m.closed)
			}
			if tt.wantLogged {
				assert.Contains(t, buf.String(), "failed to close store")
				assert.Contains(t, buf.String(), "close failed")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestMust(t *testing.T) {
	assert.NotPanics(t, func() { Must(nil, "config") })
	assert.PanicsWithValue(t, "historical data table: boom", func() {
		Must(errors.New("boom"), "historical data table")
	})
}

func TestMustValue(t *testing.T) {
	assert.Equal(t, 42, MustValue(42, nil))
	assert.PanicsWithValue(t, "initialization failed: boom", func() {
		MustValue("", errors.New("boom"))
	})
}
