package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanreath/strata"
	"github.com/lanreath/strata/pkg/domain"
	"github.com/lanreath/strata/pkg/dsl"
)

const (
	idTop domain.StateID = 1
	idOff domain.StateID = 2
	idOn  domain.StateID = 3

	evFlip domain.EventID = 10
)

func toggleDef() *domain.ChartDef {
	c := dsl.NewChart("toggle").
		Event(evFlip, "flip").
		Initial(idOff)
	c.State(idTop, "top")
	c.State(idOff, "off").ChildOf(idTop).On(evFlip, idOn)
	c.State(idOn, "on").ChildOf(idTop).On(evFlip, idOff)
	return c.Def()
}

func TestResolveEvent(t *testing.T) {
	def := toggleDef()

	t.Run("Declared name", func(t *testing.T) {
		id, err := resolveEvent(def, "flip")
		require.NoError(t, err)
		assert.Equal(t, evFlip, id)
	})

	t.Run("Numeric id", func(t *testing.T) {
		id, err := resolveEvent(def, "42")
		require.NoError(t, err)
		assert.Equal(t, domain.EventID(42), id)
	})

	t.Run("Unknown token", func(t *testing.T) {
		_, err := resolveEvent(def, "detonate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown event")
	})

	t.Run("Numeric overflow is not an id", func(t *testing.T) {
		_, err := resolveEvent(def, "70000")
		require.Error(t, err)
	})
}

func TestHandleLine(t *testing.T) {
	def := toggleDef()
	ctx := context.Background()

	newEngine := func(t *testing.T) *strata.Engine {
		t.Helper()
		eng, err := dsl.Assemble(def)
		require.NoError(t, err)
		return eng
	}

	t.Run("Exit and quit end the session", func(t *testing.T) {
		eng := newEngine(t)
		assert.True(t, handleLine(ctx, def, eng, "exit"))
		assert.True(t, handleLine(ctx, def, eng, "quit"))
	})

	t.Run("Blank lines are ignored", func(t *testing.T) {
		eng := newEngine(t)
		assert.False(t, handleLine(ctx, def, eng, "   "))
		assert.Equal(t, idOff, eng.Current())
	})

	t.Run("Event by name moves the machine", func(t *testing.T) {
		eng := newEngine(t)
		assert.False(t, handleLine(ctx, def, eng, "flip"))
		assert.Equal(t, idOn, eng.Current())
	})

	t.Run("Event by id moves the machine", func(t *testing.T) {
		eng := newEngine(t)
		assert.False(t, handleLine(ctx, def, eng, "10"))
		assert.Equal(t, idOn, eng.Current())
	})

	t.Run("Unknown event keeps the session alive", func(t *testing.T) {
		eng := newEngine(t)
		assert.False(t, handleLine(ctx, def, eng, "detonate now"))
		assert.Equal(t, idOff, eng.Current())
	})

	t.Run("Commands do not dispatch", func(t *testing.T) {
		eng := newEngine(t)
		assert.False(t, handleLine(ctx, def, eng, "state"))
		assert.False(t, handleLine(ctx, def, eng, "diagram"))
		assert.False(t, handleLine(ctx, def, eng, "help"))
		assert.Equal(t, idOff, eng.Current())
	})
}

func TestStateLabel(t *testing.T) {
	def := toggleDef()
	assert.Equal(t, "off", stateLabel(def, idOff))
	assert.Equal(t, "state/99", stateLabel(def, domain.StateID(99)))
}

func TestHandleExecutionError(t *testing.T) {
	t.Run("Nil stays nil", func(t *testing.T) {
		assert.NoError(t, handleExecutionError(nil))
	})

	t.Run("Interruptions exit clean", func(t *testing.T) {
		assert.NoError(t, handleExecutionError(context.Canceled))
		assert.NoError(t, handleExecutionError(io.EOF))
		assert.NoError(t, handleExecutionError(fmt.Errorf("session: %w", context.Canceled)))
	})

	t.Run("Real failures pass through", func(t *testing.T) {
		err := errors.New("assemble failed")
		assert.Equal(t, err, handleExecutionError(err))
	})
}
