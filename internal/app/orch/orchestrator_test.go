package orch

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Tune/internal/app"
	"github.com/dkeye/Tune/internal/clock"
	"github.com/dkeye/Tune/internal/core"
	"github.com/dkeye/Tune/internal/core/coretest"
	"github.com/dkeye/Tune/internal/domain"
	"github.com/dkeye/Tune/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t    *testing.T
	clk  *clock.Manual
	orch *Orchestrator
	recs map[core.SessionID]*coretest.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clock.NewManual(t0)
	return &harness{
		t:   t,
		clk: clk,
		orch: &Orchestrator{
			Rooms:   app.NewRoomRegistry(clk),
			Policy:  app.SimplePolicy{},
			Metrics: metrics.New(prometheus.NewRegistry()),
		},
		recs: make(map[core.SessionID]*coretest.Recorder),
	}
}

func (h *harness) connect(sid core.SessionID) *coretest.Recorder {
	rec := &coretest.Recorder{}
	h.recs[sid] = rec
	h.orch.Connect(sid, rec, func() {})
	return rec
}

func (h *harness) join(sid core.SessionID, room string) *coretest.Recorder {
	rec := h.connect(sid)
	require.NoError(h.t, h.orch.Join(sid, room, domain.User{ID: domain.UserID(sid), Name: string(sid)}))
	return rec
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func last[T any](t *testing.T, rec *coretest.Recorder, event string) T {
	t.Helper()
	payloads := rec.OfType(event)
	require.NotEmpty(t, payloads, "no %s event", event)
	return decode[T](t, payloads[len(payloads)-1])
}

var song = domain.Track{ID: "t1", Title: "Song", Artist: "Band", Duration: 210, AudioURL: "https://cdn/t1.mp3"}

func TestScenarioA_JoinFreshRoom(t *testing.T) {
	h := newHarness(t)
	x := h.join("x", "AB12CD")

	assert.Equal(t, []string{app.EventRoomState}, x.Types())
	st := last[app.RoomStatePayload](t, x, app.EventRoomState)
	assert.Equal(t, domain.RoomID("AB12CD"), st.RoomID)
	assert.Nil(t, st.CurrentSong)
	assert.False(t, st.IsPlaying)
	assert.Zero(t, st.CurrentTime)
	assert.Equal(t, []domain.Participant{{SessionID: "x", ID: "x", Name: "x"}}, st.Participants)
	assert.Empty(t, st.Queue)
	assert.Equal(t, clock.Millis(t0), st.Timestamp)
}

func TestJoin_NotifiesOthers(t *testing.T) {
	h := newHarness(t)
	x := h.join("x", "room")
	y := h.join("y", "room")

	assert.Equal(t, []string{app.EventRoomState, app.EventParticipantsUpdated, app.EventUserJoined}, x.Types())
	assert.Equal(t, []string{app.EventRoomState}, y.Types())

	roster := last[app.ParticipantsPayload](t, x, app.EventParticipantsUpdated)
	assert.Equal(t, 2, roster.Count)
	assert.Len(t, roster.Participants, 2)

	joined := last[app.PresencePayload](t, x, app.EventUserJoined)
	assert.Equal(t, domain.Participant{SessionID: "y", ID: "y", Name: "y"}, joined.User)
	assert.Equal(t, 2, joined.ParticipantCount)

	st := last[app.RoomStatePayload](t, y, app.EventRoomState)
	assert.Len(t, st.Participants, 2)
}

func TestJoin_InvalidRoom(t *testing.T) {
	h := newHarness(t)
	h.connect("x")
	err := h.orch.Join("x", "   ", domain.User{ID: "x"})
	assert.ErrorIs(t, err, app.ErrInvalidPayload)
	assert.Empty(t, h.recs["x"].Types())
}

func TestScenarioB_TimeSyncAfterFiveSeconds(t *testing.T) {
	h := newHarness(t)
	x := h.join("x", "room")
	y := h.join("y", "room")

	require.NoError(t, h.orch.PlaySong("x", song, true, 0))
	for _, rec := range []*coretest.Recorder{x, y} {
		changed := last[app.SongChangedPayload](t, rec, app.EventSongChanged)
		require.NotNil(t, changed.Song)
		assert.Equal(t, song, *changed.Song)
		assert.True(t, changed.IsPlaying)
		assert.Equal(t, clock.Millis(t0), changed.Timestamp)
	}

	h.clk.Advance(5 * time.Second)
	require.NoError(t, h.orch.RequestTimeSync("y"))

	resp := last[app.TimeSyncResponsePayload](t, y, app.EventTimeSyncResponse)
	assert.InDelta(t, 5.0, resp.CurrentTime, 1e-9)
	assert.True(t, resp.IsPlaying)
	assert.Equal(t, clock.Millis(t0)+5000, resp.Timestamp)
	assert.Empty(t, x.OfType(app.EventTimeSyncResponse), "reply goes to the requester only")
}

func TestScenarioC_PausedPositionIsFrozen(t *testing.T) {
	h := newHarness(t)
	x := h.join("x", "room")
	y := h.join("y", "room")
	require.NoError(t, h.orch.PlaySong("x", song, true, 0))

	h.clk.Advance(3 * time.Second)
	require.NoError(t, h.orch.TogglePlayPause("x", false, 12.3))

	for _, rec := range []*coretest.Recorder{x, y} {
		ev := last[app.PlaybackStatePayload](t, rec, app.EventPlaybackStateChanged)
		assert.False(t, ev.IsPlaying)
		h.clk.Advance(10 * time.Second)
		assert.Equal(t, 12.3, clock.Estimate(ev.CurrentTime, ev.Timestamp, ev.IsPlaying, clock.Millis(h.clk.Now())))
	}

	require.NoError(t, h.orch.RequestTimeSync("y"))
	resp := last[app.TimeSyncResponsePayload](t, y, app.EventTimeSyncResponse)
	assert.Equal(t, 12.3, resp.CurrentTime)
}

func TestScenarioD_DisconnectLifecycle(t *testing.T) {
	h := newHarness(t)
	h.join("x", "room")
	y := h.join("y", "room")
	require.NoError(t, h.orch.PlaySong("y", song, true, 30))
	y.Reset()

	h.orch.OnDisconnect("x")
	assert.Equal(t, []string{app.EventUserLeft, app.EventParticipantsUpdated}, y.Types())
	left := last[app.PresencePayload](t, y, app.EventUserLeft)
	assert.Equal(t, domain.UserID("x"), left.User.ID)
	assert.Equal(t, 1, left.ParticipantCount)
	roster := last[app.ParticipantsPayload](t, y, app.EventParticipantsUpdated)
	assert.Equal(t, 1, roster.Count)
	assert.True(t, h.orch.Rooms.Exists("room"))

	h.orch.OnDisconnect("y")
	assert.False(t, h.orch.Rooms.Exists("room"))

	z := h.join("z", "room")
	st := last[app.RoomStatePayload](t, z, app.EventRoomState)
	assert.Nil(t, st.CurrentSong, "a recreated room does not resume the old track")
	assert.False(t, st.IsPlaying)
	assert.Zero(t, st.CurrentTime)
}

func TestIntentsBeforeJoinAreDropped(t *testing.T) {
	h := newHarness(t)
	x := h.connect("x")
	y := h.join("y", "room")
	y.Reset()

	assert.ErrorIs(t, h.orch.PlaySong("x", song, true, 0), app.ErrNotInRoom)
	assert.ErrorIs(t, h.orch.TogglePlayPause("x", true, 0), app.ErrNotInRoom)
	assert.ErrorIs(t, h.orch.SyncTime("x", 3), app.ErrNotInRoom)
	assert.ErrorIs(t, h.orch.RequestTimeSync("x"), app.ErrNotInRoom)
	assert.ErrorIs(t, h.orch.SendMessage("x", "hi"), app.ErrNotInRoom)

	assert.Empty(t, x.Types())
	assert.Empty(t, y.Types())
	snap, ok := h.orch.Rooms.Snapshot("room")
	require.True(t, ok)
	assert.Nil(t, snap.Playback.Track)
	assert.Zero(t, snap.Playback.UpdatedAt)
}

func TestSyncTime_ExcludesSender(t *testing.T) {
	h := newHarness(t)
	x := h.join("x", "room")
	y := h.join("y", "room")
	z := h.join("z", "room")
	for _, rec := range h.recs {
		rec.Reset()
	}

	h.clk.Advance(time.Second)
	require.NoError(t, h.orch.SyncTime("x", 42))

	assert.Empty(t, x.OfType(app.EventTimeSynced))
	for _, rec := range []*coretest.Recorder{y, z} {
		ev := last[app.TimeSyncedPayload](t, rec, app.EventTimeSynced)
		assert.Equal(t, 42.0, ev.CurrentTime)
		assert.Equal(t, clock.Millis(t0)+1000, ev.Timestamp)
	}
}

func TestConcurrentPlaysConverge(t *testing.T) {
	h := newHarness(t)
	members := []core.SessionID{"a", "b", "c", "d"}
	for _, sid := range members {
		h.join(sid, "room")
	}

	const rounds = 25
	var wg sync.WaitGroup
	for _, sid := range []core.SessionID{"a", "b"} {
		sid := sid
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				tr := domain.Track{ID: domain.TrackID(string(sid) + "-" + string(rune('A'+i))), Title: string(sid)}
				assert.NoError(t, h.orch.PlaySong(sid, tr, true, float64(i)))
			}
		}()
	}
	wg.Wait()

	var reference []app.SongChangedPayload
	for i, sid := range members {
		var seen []app.SongChangedPayload
		for _, raw := range h.recs[sid].OfType(app.EventSongChanged) {
			seen = append(seen, decode[app.SongChangedPayload](t, raw))
		}
		require.Len(t, seen, 2*rounds)
		if i == 0 {
			reference = seen
			continue
		}
		assert.Equal(t, reference, seen, "member %s saw a different order", sid)
	}

	snap, ok := h.orch.Rooms.Snapshot("room")
	require.True(t, ok)
	final := reference[len(reference)-1]
	assert.Equal(t, *final.Song, *snap.Playback.Track)
	assert.Equal(t, final.CurrentTime, snap.Playback.Position)
}

func TestSendMessage(t *testing.T) {
	h := newHarness(t)
	x := h.join("x", "room")
	y := h.join("y", "room")

	require.NoError(t, h.orch.SendMessage("x", "  hello there  "))
	for _, rec := range []*coretest.Recorder{x, y} {
		msg := last[domain.ChatMessage](t, rec, app.EventNewMessage)
		assert.Equal(t, "hello there", msg.Message)
		assert.Equal(t, domain.UserID("x"), msg.User.ID)
		assert.Equal(t, clock.Millis(t0), msg.Timestamp)
		assert.NotEmpty(t, msg.ID)
	}

	assert.ErrorIs(t, h.orch.SendMessage("x", "   "), app.ErrInvalidPayload)
	h.orch.MaxMessageLen = 5
	assert.ErrorIs(t, h.orch.SendMessage("x", strings.Repeat("é", 6)), app.ErrInvalidPayload)
	assert.NoError(t, h.orch.SendMessage("x", strings.Repeat("é", 5)))
	assert.Len(t, y.OfType(app.EventNewMessage), 2)
}

func TestJoin_SwitchRoomsLeavesFirst(t *testing.T) {
	h := newHarness(t)
	x := h.join("x", "one")
	h.join("y", "one")
	x.Reset()

	require.NoError(t, h.orch.Join("y", "two", domain.User{ID: "y", Name: "y"}))

	assert.Equal(t, []string{app.EventUserLeft, app.EventParticipantsUpdated}, x.Types())
	assert.Len(t, h.orch.Rooms.Roster("one"), 1)
	assert.Len(t, h.orch.Rooms.Roster("two"), 1)
	roomID, _ := h.orch.Rooms.RoomOf("y")
	assert.Equal(t, domain.RoomID("two"), roomID)
}

func TestLeave_Explicit(t *testing.T) {
	h := newHarness(t)
	h.join("x", "room")

	dep, ok := h.orch.Leave("x")
	require.True(t, ok)
	assert.True(t, dep.Destroyed)
	assert.ErrorIs(t, h.orch.SyncTime("x", 1), app.ErrNotInRoom)

	_, ok = h.orch.Leave("x")
	assert.False(t, ok)
}

func TestPing(t *testing.T) {
	h := newHarness(t)
	x := h.connect("x")

	require.NoError(t, h.orch.Ping("x", 1234))
	pong := last[app.PongPayload](t, x, app.EventPong)
	assert.Equal(t, int64(1234), pong.ClientTime)
	assert.Equal(t, clock.Millis(t0), pong.ServerTime)

	assert.ErrorIs(t, h.orch.Ping("ghost", 1), app.ErrUnknownSession)
}

func TestBackpressureKicksSlowMember(t *testing.T) {
	h := newHarness(t)
	h.join("x", "room")
	slow := h.connect("slow")
	slow.Limit = 1
	require.NoError(t, h.orch.Join("slow", "room", domain.User{ID: "slow"}))

	require.NoError(t, h.orch.PlaySong("x", song, true, 0))
	assert.True(t, slow.Closed())
	assert.False(t, h.recs["x"].Closed())
}
