package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_ParsesURL(t *testing.T) {
	tests := []struct {
		in       string
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{"localhost:6379", "localhost:6379", 0, false},
		{"redis://:secret@redis:6380/2", "redis:6380", 2, false},
		{"redis://bad host", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := NewClient(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = c.Close() }()
			assert.Equal(t, tt.wantAddr, c.Options().Addr)
			assert.Equal(t, tt.wantDB, c.Options().DB)
		})
	}
}

func TestInitRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c := InitRedis(mr.Addr())
	require.NotNil(t, c)
	assert.Same(t, c, GetClient())
	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())

	mr.Close()
	assert.Nil(t, InitRedis(mr.Addr()), "unreachable redis leaves the client unset")
	assert.Nil(t, GetClient())
}
