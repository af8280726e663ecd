package game

import "math"

const (
	DefaultWidth  = 640
	DefaultHeight = 480

	PaddleWidth  = 10.0
	PaddleHeight = 50.0
	PaddleInset  = 10.0
	PaddleSpeed  = 5.0

	// WallMargin is the thickness of the top and bottom walls.
	WallMargin = 10.0

	BallSize     = 5.0
	BallSpeed    = 5.0
	MaxBallSpeed = 15.0
	// BallSpeedup scales horizontal speed on every paddle hit.
	BallSpeedup = 1.1
	// MaxDeflection is the vertical speed given to a ball that hits a paddle edge.
	MaxDeflection = 5.0

	// ScoreLimit is the score a side must exceed to win.
	ScoreLimit = 4
)

// Rect is an axis-aligned box with its origin at the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Overlaps reports whether r and o share any area. Touching edges do not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// CenterY returns the vertical center of the box.
func (r Rect) CenterY() float64 {
	return r.Y + r.H/2
}

// Paddle is one player's paddle and its current movement intent.
type Paddle struct {
	Rect
	Moving Direction
}

// Ball is the ball's box plus its per-tick velocity.
type Ball struct {
	Rect
	VX, VY float64
}

// Events describes what happened during a single Step. Renderers and audio
// hooks use it; the simulation itself does not.
type Events struct {
	// Scored is the side that won a point this tick, or SideInvalid.
	Scored    Side
	PaddleHit bool
	WallHit   bool
}

// World is the full simulation state of one client.
type World struct {
	Width, Height float64

	Left, Right Paddle
	Ball        Ball

	LeftScore, RightScore uint
}

// NewWorld builds a world with both paddles centered and the ball at the
// center heading toward the left side.
//
// Parameters:
//   - width: Playfield width in pixels
//   - height: Playfield height in pixels
//
// Returns:
//   - A ready-to-step World
func NewWorld(width, height int) World {
	w := World{
		Width:  float64(width),
		Height: float64(height),
	}

	startY := w.Height/2 - PaddleHeight/2
	w.Left = Paddle{Rect: Rect{X: PaddleInset, Y: startY, W: PaddleWidth, H: PaddleHeight}}
	w.Right = Paddle{Rect: Rect{X: w.Width - PaddleInset - PaddleWidth, Y: startY, W: PaddleWidth, H: PaddleHeight}}
	w.resetBall(SideLeft)

	return w
}

// Paddle returns a pointer to the paddle owned by side, or nil for an invalid side.
func (w *World) Paddle(side Side) *Paddle {
	switch side {
	case SideLeft:
		return &w.Left
	case SideRight:
		return &w.Right
	default:
		return nil
	}
}

// Score returns the score of side.
func (w *World) Score(side Side) uint {
	switch side {
	case SideLeft:
		return w.LeftScore
	case SideRight:
		return w.RightScore
	default:
		return 0
	}
}

// SetScore overwrites the score of side. Invalid sides are ignored.
func (w *World) SetScore(side Side, score uint) {
	switch side {
	case SideLeft:
		w.LeftScore = score
	case SideRight:
		w.RightScore = score
	}
}

// Winner returns the side whose score exceeds ScoreLimit, if any.
func (w *World) Winner() (Side, bool) {
	switch {
	case w.LeftScore > ScoreLimit:
		return SideLeft, true
	case w.RightScore > ScoreLimit:
		return SideRight, true
	default:
		return SideInvalid, false
	}
}

// Step advances the simulation by one tick: paddles move per intent, the
// ball moves, then scoring and collisions are resolved.
//
// Returns:
//   - The events that occurred during the tick
func (w *World) Step() Events {
	var ev Events

	w.movePaddle(&w.Left)
	w.movePaddle(&w.Right)

	w.Ball.X += w.Ball.VX
	w.Ball.Y += w.Ball.VY

	switch {
	case w.Ball.X > w.Width:
		w.LeftScore++
		ev.Scored = SideLeft
		w.resetBall(SideRight)
		return ev
	case w.Ball.X < 0:
		w.RightScore++
		ev.Scored = SideRight
		w.resetBall(SideLeft)
		return ev
	}

	if w.Ball.Overlaps(w.Left.Rect) {
		w.hitPaddle(&w.Left, 1)
		ev.PaddleHit = true
	} else if w.Ball.Overlaps(w.Right.Rect) {
		w.hitPaddle(&w.Right, -1)
		ev.PaddleHit = true
	}

	if w.Ball.Y < WallMargin {
		w.Ball.Y = WallMargin
		w.Ball.VY = math.Abs(w.Ball.VY)
		ev.WallHit = true
	} else if bottom := w.Height - WallMargin; w.Ball.Y+w.Ball.H > bottom {
		w.Ball.Y = bottom - w.Ball.H
		w.Ball.VY = -math.Abs(w.Ball.VY)
		ev.WallHit = true
	}

	return ev
}

func (w *World) movePaddle(p *Paddle) {
	switch p.Moving {
	case DirectionDown:
		p.Y = math.Min(p.Y+PaddleSpeed, w.Height-WallMargin-p.H)
	case DirectionUp:
		p.Y = math.Max(p.Y-PaddleSpeed, WallMargin)
	}
}

// hitPaddle sends the ball away from p. sign is +1 for the left paddle and
// -1 for the right one.
func (w *World) hitPaddle(p *Paddle, sign float64) {
	speed := math.Min(math.Abs(w.Ball.VX)*BallSpeedup, MaxBallSpeed)
	w.Ball.VX = sign * speed

	offset := (w.Ball.CenterY() - p.CenterY()) / (p.H / 2)
	w.Ball.VY = MaxDeflection * math.Max(-1, math.Min(1, offset))

	// keep the ball outside the paddle so the next tick cannot hit it again
	if sign > 0 {
		w.Ball.X = p.X + p.W
	} else {
		w.Ball.X = p.X - w.Ball.W
	}
}

// resetBall centers the ball and sends it toward side.
func (w *World) resetBall(toward Side) {
	vx := -BallSpeed
	if toward == SideRight {
		vx = BallSpeed
	}

	w.Ball = Ball{
		Rect: Rect{X: w.Width / 2, Y: w.Height / 2, W: BallSize, H: BallSize},
		VX:   vx,
		VY:   0,
	}
}
