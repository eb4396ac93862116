package orch

import (
	"github.com/dkeye/Tune/internal/app"
	"github.com/dkeye/Tune/internal/clock"
	"github.com/dkeye/Tune/internal/core"
	"github.com/dkeye/Tune/internal/domain"
)

// PlaySong switches the room to track. Everyone, sender included, hears it.
func (o *Orchestrator) PlaySong(sid core.SessionID, track domain.Track, isPlaying bool, position float64) error {
	var res core.PublishResult
	roomID, err := o.Rooms.SetTrack(sid, track, isPlaying, position, func(tx core.RoomTx, pb domain.Playback) {
		res = o.Router.ToRoom(tx, app.EventSongChanged, app.SongChangedPayload{
			Song:        pb.Track,
			IsPlaying:   pb.IsPlaying,
			CurrentTime: pb.Position,
			Timestamp:   pb.UpdatedAt,
		})
	})
	if err != nil {
		return err
	}
	o.handleDropped(roomID, res.Dropped)
	return nil
}

func (o *Orchestrator) TogglePlayPause(sid core.SessionID, isPlaying bool, position float64) error {
	var res core.PublishResult
	roomID, err := o.Rooms.SetPlaybackState(sid, isPlaying, position, func(tx core.RoomTx, pb domain.Playback) {
		res = o.Router.ToRoom(tx, app.EventPlaybackStateChanged, app.PlaybackStatePayload{
			IsPlaying:   pb.IsPlaying,
			CurrentTime: pb.Position,
			Timestamp:   pb.UpdatedAt,
		})
	})
	if err != nil {
		return err
	}
	o.handleDropped(roomID, res.Dropped)
	return nil
}

// SyncTime re-anchors the room position. The sender already knows it.
func (o *Orchestrator) SyncTime(sid core.SessionID, position float64) error {
	var res core.PublishResult
	roomID, err := o.Rooms.SyncTime(sid, position, func(tx core.RoomTx, pb domain.Playback) {
		res = o.Router.ToRoomExceptSender(tx, sid, app.EventTimeSynced, app.TimeSyncedPayload{
			CurrentTime: pb.Position,
			Timestamp:   pb.UpdatedAt,
		})
	})
	if err != nil {
		return err
	}
	o.handleDropped(roomID, res.Dropped)
	return nil
}

// RequestTimeSync answers the sender alone with the position estimated now.
func (o *Orchestrator) RequestTimeSync(sid core.SessionID) error {
	var sendErr error
	roomID, err := o.Rooms.WithRoom(sid, func(tx core.RoomTx) {
		pb := *tx.Playback()
		now := clock.Millis(o.now())
		sendErr = o.Router.ToMember(tx, sid, app.EventTimeSyncResponse, app.TimeSyncResponsePayload{
			CurrentTime: pb.PositionAt(now),
			IsPlaying:   pb.IsPlaying,
			Timestamp:   now,
		})
	})
	if err != nil {
		return err
	}
	if sendErr != nil {
		o.handleDropped(roomID, []core.SessionID{sid})
	}
	return nil
}
