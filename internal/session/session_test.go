package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harry0816web/GrandmaHelper/internal/assistant"
	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

type fakeOverlay struct {
	mu         sync.Mutex
	steps      []string
	ackable    []bool
	highlights []uitree.Rect
	cleared    int
	hidden     int
	waiting    int
	dismissed  int
}

func (o *fakeOverlay) ShowWaiting() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waiting++
}

func (o *fakeOverlay) ShowStep(text string, ackable bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, text)
	o.ackable = append(o.ackable, ackable)
}

func (o *fakeOverlay) ShowHighlight(r uitree.Rect) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.highlights = append(o.highlights, r)
}

func (o *fakeOverlay) ClearHighlight() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cleared++
}

func (o *fakeOverlay) Hide() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hidden++
}

func (o *fakeOverlay) Dismiss() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dismissed++
}

func (o *fakeOverlay) lastStep() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.steps) == 0 {
		return "", false
	}
	return o.steps[len(o.steps)-1], o.ackable[len(o.ackable)-1]
}

type fakeCapture struct{}

func (fakeCapture) Capture(ctx context.Context) (assistant.ScreenInfo, error) {
	return assistant.ScreenInfo{SummaryText: "Captured elements: 1 (showing up to 100)", TimestampMs: 1}, nil
}

type failingCapture struct{}

func (failingCapture) Capture(ctx context.Context) (assistant.ScreenInfo, error) {
	return assistant.ScreenInfo{}, errors.New("tree gone")
}

// scriptedClient replays canned results and records every request.
type scriptedClient struct {
	mu      sync.Mutex
	results []*assistant.Result
	errs    []error
	reqs    []assistant.Request
}

func (c *scriptedClient) Advise(ctx context.Context, req assistant.Request) (*assistant.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	i := len(c.reqs) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.results) {
		return c.results[i], nil
	}
	return c.results[len(c.results)-1], nil
}

func (c *scriptedClient) requests() []assistant.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]assistant.Request, len(c.reqs))
	copy(out, c.reqs)
	return out
}

func testConfig(states chan State) Config {
	return Config{
		DismissDelay: time.Millisecond,
		SettleDelay:  time.Millisecond,
		Listener: func(st State) {
			select {
			case states <- st:
			default:
			}
		},
	}
}

func waitFor(t *testing.T, states chan State, want State) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-states:
			if st == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestSubmitShowsAckableStep(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{{Message: "請點擊設定"}}}
	states := make(chan State, 16)

	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	require.NoError(t, sess.Submit("我想調整字體"))
	waitFor(t, states, StateAwaitingAck)

	step, ackable := overlay.lastStep()
	assert.Equal(t, "請點擊設定", step)
	assert.True(t, ackable)

	reqs := client.requests()
	require.Len(t, reqs, 1)
	// Goal and message travel verbatim, no rewriting.
	assert.Equal(t, "我想調整字體", reqs[0].UserMessage)
	assert.Equal(t, "我想調整字體", reqs[0].Goal)
	assert.NotEmpty(t, reqs[0].ScreenInfo.SummaryText)
}

func TestAckResendsGoal(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{
		{Message: "第一步"},
		{Message: "第二步"},
	}}
	states := make(chan State, 16)

	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	require.NoError(t, sess.Submit("打電話給孫女"))
	waitFor(t, states, StateAwaitingAck)

	require.NoError(t, sess.Ack())
	waitFor(t, states, StateCapturing)
	waitFor(t, states, StateAwaitingAck)

	reqs := client.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "打電話給孫女", reqs[1].UserMessage)
	assert.Equal(t, "打電話給孫女", reqs[1].Goal)

	step, _ := overlay.lastStep()
	assert.Equal(t, "第二步", step)
	assert.GreaterOrEqual(t, overlay.cleared, 1)
}

func TestStuckNoteRidesWithSummary(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{{Message: "請點擊設定"}}}
	states := make(chan State, 16)

	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	require.NoError(t, sess.Submit("打開隱私設定"))
	waitFor(t, states, StateAwaitingAck)
	for i := 0; i < 2; i++ {
		require.NoError(t, sess.Ack())
		waitFor(t, states, StateCapturing)
		waitFor(t, states, StateAwaitingAck)
	}

	reqs := client.requests()
	require.Len(t, reqs, 3)
	// Identical steps two rounds running: round three carries the repeat
	// notice in the screen summary, while goal and message stay verbatim.
	assert.Equal(t, "打開隱私設定", reqs[2].UserMessage)
	assert.Equal(t, "打開隱私設定", reqs[2].Goal)
	assert.Contains(t, reqs[2].ScreenInfo.SummaryText, "系統提示")
	assert.Contains(t, reqs[2].ScreenInfo.SummaryText, "Captured elements")
	assert.NotContains(t, reqs[1].ScreenInfo.SummaryText, "系統提示")
}

func TestSuccessReplyTerminates(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{{Message: "🎉 恭喜成功！"}}}
	states := make(chan State, 16)

	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	require.NoError(t, sess.Submit("傳貼圖給兒子"))

	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
	}
	assert.Equal(t, StateSuccess, sess.State())

	_, ackable := overlay.lastStep()
	assert.False(t, ackable)
	assert.Equal(t, 1, overlay.dismissed)
}

func TestUnclearReplyTerminates(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{{Message: "您的輸入沒有明確目的"}}}
	states := make(chan State, 16)

	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	require.NoError(t, sess.Submit("嗯嗯嗯"))
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate after unclear reply")
	}
	assert.Equal(t, StateClosed, sess.State())

	// The explanation shows without an acknowledgement control, then the
	// overlay dismisses on its own.
	step, ackable := overlay.lastStep()
	assert.Contains(t, step, "沒有明確目的")
	assert.False(t, ackable)
	assert.NotContains(t, overlay.ackable, true)
	assert.Equal(t, 1, overlay.dismissed)
}

func TestCloseTerminates(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{{Message: "step"}}}
	states := make(chan State, 16)

	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	sess.Close()
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
	}
	assert.Equal(t, StateClosed, sess.State())
	assert.Equal(t, 1, overlay.dismissed)
}

func TestSubmitSingleFlight(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{{Message: "step"}}}
	states := make(chan State, 16)

	// Dispatcher not running yet, so the first submit holds the busy slot.
	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	require.NoError(t, sess.Submit("first"))
	assert.ErrorIs(t, sess.Submit("second"), ErrBusy)
	assert.ErrorIs(t, sess.Ack(), ErrBusy)
}

func TestBoundsTriggerHighlight(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{{
		Message: "請點擊「設定」 @(40,120,200x64)",
		Bounds:  &uitree.Rect{Left: 40, Top: 120, Width: 200, Height: 64},
	}}}
	states := make(chan State, 16)

	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	require.NoError(t, sess.Submit("goal"))
	waitFor(t, states, StateAwaitingAck)

	require.Len(t, overlay.highlights, 1)
	assert.Equal(t, 40, overlay.highlights[0].Left)
}

func TestEmptyStepFallback(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{{Message: "  "}}}
	states := make(chan State, 16)

	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	require.NoError(t, sess.Submit("goal"))
	waitFor(t, states, StateAwaitingAck)

	step, _ := overlay.lastStep()
	assert.Equal(t, fallbackStep, step)
}

func TestRepeatedFailuresTerminate(t *testing.T) {
	overlay := &fakeOverlay{}
	states := make(chan State, 16)
	cfg := testConfig(states)
	cfg.MaxFailures = 2

	client := &scriptedClient{results: []*assistant.Result{{Message: "x"}}}
	sess := New(client, failingCapture{}, overlay, cfg, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	require.NoError(t, sess.Submit("goal"))
	waitFor(t, states, StateIdle) // first failure, no prior step

	require.NoError(t, sess.Submit("goal"))
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
	}
	assert.Equal(t, StateErrored, sess.State())
}

func TestAckWhileIdleIgnored(t *testing.T) {
	overlay := &fakeOverlay{}
	client := &scriptedClient{results: []*assistant.Result{{Message: "x"}}}
	states := make(chan State, 16)

	sess := New(client, fakeCapture{}, overlay, testConfig(states), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	require.NoError(t, sess.Ack())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, client.requests())
}

func TestSentinelClassify(t *testing.T) {
	s := DefaultSentinels()
	assert.Equal(t, ReplySuccess, s.Classify("🎉 恭喜成功！任務完成"))
	assert.Equal(t, ReplyUnclear, s.Classify("您的輸入沒有明確目的，請再說一次"))
	assert.Equal(t, ReplyClosed, s.Classify("已關閉任務"))
	assert.Equal(t, ReplyStep, s.Classify("請點擊下一步"))
}

func TestRoundLogStuck(t *testing.T) {
	l := NewRoundLog(5, 2)
	l.Add(1, ReplyStep, "請點擊設定")
	if stuck, _ := l.Stuck(); stuck {
		t.Fatal("one occurrence must not count as stuck")
	}
	l.Add(2, ReplyStep, "請點擊設定")
	stuck, note := l.Stuck()
	assert.True(t, stuck)
	assert.Contains(t, note, "2 次")

	l.Add(3, ReplyStep, "請點擊聊天")
	stuck, _ = l.Stuck()
	assert.False(t, stuck)
}

func TestRoundLogBounded(t *testing.T) {
	l := NewRoundLog(3, 2)
	for i := 1; i <= 10; i++ {
		l.Add(i, ReplyStep, "step")
	}
	assert.Len(t, l.Recent(), 3)
	assert.Len(t, l.Trace(), 10)
}
