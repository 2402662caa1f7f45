package backend_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/runtime/backend"
)

func TestMock_RecordsCallsInOrder(t *testing.T) {
	m := backend.NewMock()

	assert.NoError(t, m.CreateBuffer(1, 64, 0x40))
	assert.NoError(t, m.BeginRenderPass(nil))
	assert.NoError(t, m.SetPipeline(2))
	assert.NoError(t, m.Draw(3, 1, 0, 0))
	assert.NoError(t, m.EndPass())
	assert.NoError(t, m.Submit())

	assert.Len(t, m.Log, 6)
	assert.Equal(t, "CreateBuffer", m.Log[0].Op)
	assert.Equal(t, "Submit", m.Log[5].Op)
}

func TestMock_FailOnInjectsError(t *testing.T) {
	m := backend.NewMock()
	want := errors.New("boom")
	m.FailOn["Draw"] = want

	err := m.Draw(1, 1, 0, 0)
	assert.ErrorIs(t, err, want)
	assert.Len(t, m.Log, 1)
}

func TestMock_ImplementsBackend(t *testing.T) {
	var _ backend.Backend = backend.NewMock()
}
