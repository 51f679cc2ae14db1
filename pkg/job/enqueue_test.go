package job

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInsert(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		args, opts, err := buildInsert("greet", nil)
		require.NoError(t, err)
		assert.Equal(t, "greet", args.Task)
		assert.Nil(t, args.Payload)
		assert.Empty(t, opts.Queue)
		assert.Zero(t, opts.MaxAttempts)
		assert.True(t, opts.ScheduledAt.IsZero())
	})

	t.Run("payload and options", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		args, opts, err := buildInsert("greet", greetPayload{Name: "Ann"},
			InQueue("orders"),
			MaxAttempts(1),
			ScheduledIn(time.Minute),
			Priority(2),
			Tags("event:7"),
			Tags("bulk"),
		)
		require.NoError(t, err)

		var p greetPayload
		require.NoError(t, json.Unmarshal(args.Payload, &p))
		assert.Equal(t, "Ann", p.Name)

		assert.Equal(t, "orders", opts.Queue)
		assert.Equal(t, 1, opts.MaxAttempts)
		assert.Equal(t, 2, opts.Priority)
		assert.Equal(t, []string{"event:7", "bulk"}, opts.Tags)
		assert.True(t, opts.ScheduledAt.After(before.Add(59*time.Second)))
	})

	t.Run("ignores out of range values", func(t *testing.T) {
		t.Parallel()

		_, opts, err := buildInsert("greet", nil, InQueue(""), MaxAttempts(0), Priority(9), ScheduledIn(-time.Second))
		require.NoError(t, err)
		assert.Empty(t, opts.Queue)
		assert.Zero(t, opts.MaxAttempts)
		assert.Zero(t, opts.Priority)
		assert.True(t, opts.ScheduledAt.IsZero())
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		_, _, err := buildInsert("greet", make(chan int))
		require.Error(t, err)
	})
}

func TestTaskArgs_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "automated_orders:task", taskArgs{}.Kind())
}
