package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompensateRunsInReverse(t *testing.T) {
	s := New()
	var order []string
	for _, name := range []string{"quiz", "question", "options"} {
		name := name
		s.Add(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.Equal(t, 3, s.Len())
	require.NoError(t, s.Compensate(context.Background()))
	assert.Equal(t, []string{"options", "question", "quiz"}, order)
	assert.Equal(t, 0, s.Len())
}

func TestCompensateContinuesAfterFailure(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	ran := 0
	s.Add("first", func(ctx context.Context) error { ran++; return nil })
	s.Add("second", func(ctx context.Context) error { ran++; return boom })
	s.Add("third", func(ctx context.Context) error { ran++; return nil })

	err := s.Compensate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "undo second")
	assert.Equal(t, 3, ran)
}

func TestCompensateEmpty(t *testing.T) {
	assert.NoError(t, New().Compensate(context.Background()))
}
