package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorld(t *testing.T) {
	w := NewWorld(DefaultWidth, DefaultHeight)

	assert.Equal(t, 640.0, w.Width)
	assert.Equal(t, 480.0, w.Height)
	assert.Equal(t, Rect{X: 10, Y: 215, W: 10, H: 50}, w.Left.Rect)
	assert.Equal(t, Rect{X: 620, Y: 215, W: 10, H: 50}, w.Right.Rect)
	assert.Equal(t, Rect{X: 320, Y: 240, W: 5, H: 5}, w.Ball.Rect)
	assert.Equal(t, -5.0, w.Ball.VX)
	assert.Equal(t, 0.0, w.Ball.VY)
	assert.Zero(t, w.LeftScore)
	assert.Zero(t, w.RightScore)
}

func TestWorld_Step_PaddleMovement(t *testing.T) {
	t.Run("down moves by paddle speed", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Left.Moving = DirectionDown
		w.Step()
		assert.Equal(t, 220.0, w.Left.Y)
	})

	t.Run("down is clamped above the bottom wall", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Right.Moving = DirectionDown
		w.Right.Y = 418
		w.Step()
		assert.Equal(t, 420.0, w.Right.Y)
		w.Step()
		assert.Equal(t, 420.0, w.Right.Y)
	})

	t.Run("up is clamped below the top wall", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Left.Moving = DirectionUp
		w.Left.Y = 12
		w.Step()
		assert.Equal(t, 10.0, w.Left.Y)
		w.Step()
		assert.Equal(t, 10.0, w.Left.Y)
	})

	t.Run("idle does not move", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Step()
		assert.Equal(t, 215.0, w.Left.Y)
		assert.Equal(t, 215.0, w.Right.Y)
	})
}

func TestWorld_Step_BallMoves(t *testing.T) {
	w := NewWorld(DefaultWidth, DefaultHeight)
	ev := w.Step()

	assert.Equal(t, 315.0, w.Ball.X)
	assert.Equal(t, 240.0, w.Ball.Y)
	assert.Equal(t, Events{}, ev)
}

func TestWorld_Step_Scoring(t *testing.T) {
	t.Run("ball past right edge scores for left and heads right", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Ball.X = 639
		w.Ball.VX = 5

		ev := w.Step()

		assert.Equal(t, SideLeft, ev.Scored)
		assert.Equal(t, uint(1), w.LeftScore)
		assert.Equal(t, uint(0), w.RightScore)
		assert.Equal(t, Rect{X: 320, Y: 240, W: 5, H: 5}, w.Ball.Rect)
		assert.Equal(t, BallSpeed, w.Ball.VX)
		assert.Equal(t, 0.0, w.Ball.VY)
	})

	t.Run("ball past left edge scores for right and heads left", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Ball.X = 2
		w.Ball.VX = -5

		ev := w.Step()

		assert.Equal(t, SideRight, ev.Scored)
		assert.Equal(t, uint(1), w.RightScore)
		assert.Equal(t, -BallSpeed, w.Ball.VX)
	})
}

func TestWorld_Step_PaddleCollision(t *testing.T) {
	t.Run("center hit on left paddle reflects with speedup and no deflection", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Ball.X = 22
		w.Ball.Y = 237.5

		ev := w.Step()

		assert.True(t, ev.PaddleHit)
		assert.InDelta(t, 5.5, w.Ball.VX, 1e-9)
		assert.Equal(t, 0.0, w.Ball.VY)
		assert.Equal(t, 20.0, w.Ball.X)
	})

	t.Run("edge hit deflects proportionally to offset", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Ball.X = 22
		w.Ball.Y = 212.5

		w.Step()

		assert.InDelta(t, -MaxDeflection, w.Ball.VY, 1e-9)
	})

	t.Run("right paddle sends ball left", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Ball.X = 612
		w.Ball.Y = 237.5
		w.Ball.VX = 5

		ev := w.Step()

		assert.True(t, ev.PaddleHit)
		assert.InDelta(t, -5.5, w.Ball.VX, 1e-9)
		assert.Equal(t, 615.0, w.Ball.X)
	})

	t.Run("speed is capped", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Ball.X = 30
		w.Ball.Y = 237.5
		w.Ball.VX = -14

		w.Step()

		assert.Equal(t, MaxBallSpeed, w.Ball.VX)
	})
}

func TestWorld_Step_WallCollision(t *testing.T) {
	t.Run("top wall", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Ball.Y = 12
		w.Ball.VY = -5

		ev := w.Step()

		assert.True(t, ev.WallHit)
		assert.Equal(t, WallMargin, w.Ball.Y)
		assert.Equal(t, 5.0, w.Ball.VY)
	})

	t.Run("bottom wall", func(t *testing.T) {
		w := NewWorld(DefaultWidth, DefaultHeight)
		w.Ball.Y = 466
		w.Ball.VY = 5

		ev := w.Step()

		assert.True(t, ev.WallHit)
		assert.Equal(t, 465.0, w.Ball.Y)
		assert.Equal(t, -5.0, w.Ball.VY)
	})
}

func TestWorld_Winner(t *testing.T) {
	w := NewWorld(DefaultWidth, DefaultHeight)

	_, ok := w.Winner()
	assert.False(t, ok)

	w.LeftScore = ScoreLimit
	_, ok = w.Winner()
	assert.False(t, ok, "reaching the limit is not enough")

	w.LeftScore = ScoreLimit + 1
	side, ok := w.Winner()
	require.True(t, ok)
	assert.Equal(t, SideLeft, side)

	w.LeftScore = 0
	w.RightScore = ScoreLimit + 1
	side, ok = w.Winner()
	require.True(t, ok)
	assert.Equal(t, SideRight, side)
}

func TestWorld_ScoreAccessors(t *testing.T) {
	w := NewWorld(DefaultWidth, DefaultHeight)

	w.SetScore(SideLeft, 3)
	w.SetScore(SideRight, 2)
	w.SetScore(SideInvalid, 9)

	assert.Equal(t, uint(3), w.Score(SideLeft))
	assert.Equal(t, uint(2), w.Score(SideRight))
	assert.Equal(t, uint(0), w.Score(SideInvalid))
	assert.Same(t, &w.Left, w.Paddle(SideLeft))
	assert.Same(t, &w.Right, w.Paddle(SideRight))
	assert.Nil(t, w.Paddle(SideInvalid))
}

func TestSide(t *testing.T) {
	t.Run("tokens round trip", func(t *testing.T) {
		for _, s := range []Side{SideLeft, SideRight} {
			got, err := ParseSide(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, got)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := ParseSide("middle")
		assert.Error(t, err)
	})

	t.Run("opponent", func(t *testing.T) {
		assert.Equal(t, SideRight, SideLeft.Opponent())
		assert.Equal(t, SideLeft, SideRight.Opponent())
		assert.Equal(t, SideInvalid, SideInvalid.Opponent())
	})

	t.Run("validity", func(t *testing.T) {
		assert.True(t, SideLeft.Valid())
		assert.False(t, SideInvalid.Valid())
		assert.False(t, Side(7).Valid())
		assert.True(t, DirectionDown.Valid())
		assert.False(t, Direction(3).Valid())
	})
}
