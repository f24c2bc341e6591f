package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverPanicRunsCleanup(t *testing.T) {
	called := false
	func() {
		defer RecoverPanic("test", func() { called = true })
		panic("boom")
	}()
	assert.True(t, called)
}

func TestRecoverPanicNoPanic(t *testing.T) {
	called := false
	func() {
		defer RecoverPanic("test", func() { called = true })
	}()
	assert.False(t, called)
}

func TestSetupOnce(t *testing.T) {
	t.Setenv("HEXDIS_LOG_TO_FILE", "")
	Setup(false)
	Setup(true)
	assert.True(t, Initialized())
	assert.NoError(t, Close())
}
