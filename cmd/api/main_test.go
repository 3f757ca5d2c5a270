package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LJTian/WeiboTrending/internal/config"
)

func TestAPIFailsWithoutToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKEN", "")
	t.Setenv("CHANNEL_ID", "@c")

	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	assert.ErrorIs(t, cmd.Execute(), config.ErrMissingToken)
}
