package chatcmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    Command
		wantErr error
	}{
		{name: "elect", in: "/elect p2", want: Command{Kind: KindElect, Target: "p2"}},
		{name: "demote is case insensitive", in: "  /Demote p3 ", want: Command{Kind: KindDemote, Target: "p3"}},
		{name: "order keeps text", in: "/order hold the gate", want: Command{Kind: KindOrder, Text: "hold the gate"}},
		{name: "plain chat", in: "gg", wantErr: ErrNotCommand},
		{name: "elect without target", in: "/elect", wantErr: ErrUsage},
		{name: "elect with two targets", in: "/elect a b", wantErr: ErrUsage},
		{name: "empty order", in: "/order   ", wantErr: ErrUsage},
		{name: "unknown", in: "/kick p2", wantErr: ErrUnknownCommand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCooldown(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCooldown(5 * time.Second)

	_, ok := c.Try("p", now)
	require.True(t, ok)

	left, ok := c.Try("p", now.Add(2*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 3*time.Second, left)

	_, ok = c.Try("q", now.Add(2*time.Second))
	assert.True(t, ok, "cooldowns are per participant")

	_, ok = c.Try("p", now.Add(5*time.Second))
	assert.True(t, ok)

	c.Forget("p")
	_, ok = c.Try("p", now.Add(6*time.Second))
	assert.True(t, ok)
}
