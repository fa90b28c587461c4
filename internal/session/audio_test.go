package session

import (
	"errors"
	"testing"
)

func TestNewSession_SeedsOriginalTrack(t *testing.T) {
	s := newTestSession()
	tracks := s.AudioTracks()
	if len(tracks) != 1 {
		t.Fatalf("track count = %d, want 1", len(tracks))
	}
	if tracks[0].ID != OriginalTrackID || tracks[0].Type != TrackTypeOriginal {
		t.Errorf("seed track = %+v", tracks[0])
	}
	if tracks[0].Volume != 1 {
		t.Errorf("seed volume = %v, want 1", tracks[0].Volume)
	}
}

func TestRemoveAudioTrack_OriginalIsSentinel(t *testing.T) {
	s := newTestSession()
	if err := s.RemoveAudioTrack(OriginalTrackID); !errors.Is(err, ErrOriginalTrack) {
		t.Errorf("error = %v, want ErrOriginalTrack", err)
	}
}

func TestAddAndRemoveAudioTrack(t *testing.T) {
	s := newTestSession()
	track, err := s.AddAudioTrack("beat.mp3", "/music/beat.mp3")
	if err != nil {
		t.Fatalf("AddAudioTrack() error = %v", err)
	}
	if track.Type != TrackTypeCustom {
		t.Errorf("type = %q, want custom", track.Type)
	}

	if err := s.RemoveAudioTrack(track.ID); err != nil {
		t.Fatalf("RemoveAudioTrack() error = %v", err)
	}
	if len(s.AudioTracks()) != 1 {
		t.Error("custom track not removed")
	}
}

func TestUpdateAudioTrack_VolumeClampedTimesValidated(t *testing.T) {
	s := newTestSession()
	track, _ := s.AddAudioTrack("beat", "/music/beat.mp3")

	got, err := s.UpdateAudioTrack(track.ID, AudioPatch{Volume: f64(2.5), StartTime: f64(4)})
	if err != nil {
		t.Fatalf("UpdateAudioTrack() error = %v", err)
	}
	if got.Volume != 1 {
		t.Errorf("volume = %v, want clamped 1", got.Volume)
	}
	if got.StartTime != 4 {
		t.Errorf("start time = %v, want 4", got.StartTime)
	}

	if _, err := s.UpdateAudioTrack(track.ID, AudioPatch{StartTime: f64(-1)}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("error = %v, want ErrOutOfBounds", err)
	}
}

func TestToggleMuteAndSolo(t *testing.T) {
	s := newTestSession()

	got, err := s.ToggleTrackMute(OriginalTrackID)
	if err != nil {
		t.Fatalf("ToggleTrackMute() error = %v", err)
	}
	if !got.Muted {
		t.Error("mute toggle did not stick")
	}

	got, err = s.ToggleTrackSolo(OriginalTrackID)
	if err != nil {
		t.Fatalf("ToggleTrackSolo() error = %v", err)
	}
	if !got.Solo {
		t.Error("solo toggle did not stick")
	}

	got, _ = s.ToggleTrackMute(OriginalTrackID)
	if got.Muted {
		t.Error("second mute toggle did not clear")
	}
}

func TestTitles(t *testing.T) {
	s := newTestSession()

	title, err := s.AddTitle(TitleInput{})
	if err != nil {
		t.Fatalf("AddTitle() error = %v", err)
	}
	if title.Text != "New Title" || title.Duration != 2 || title.FontSize != 48 ||
		title.Animation != "fade" || title.Position != PositionCenter || !title.Visible {
		t.Errorf("defaults not applied: %+v", title)
	}

	if _, err := s.AddTitle(TitleInput{Duration: 0.2}); !errors.Is(err, ErrTitleTooShort) {
		t.Errorf("error = %v, want ErrTitleTooShort", err)
	}
	if _, err := s.AddTitle(TitleInput{Position: "sideways"}); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("error = %v, want ErrInvalidPosition", err)
	}

	toggled, err := s.ToggleTitleVisibility(title.ID)
	if err != nil {
		t.Fatalf("ToggleTitleVisibility() error = %v", err)
	}
	if toggled.Visible {
		t.Error("visibility toggle did not stick")
	}

	if err := s.DeleteTitle(title.ID); err != nil {
		t.Fatalf("DeleteTitle() error = %v", err)
	}
	if len(s.Titles()) != 0 {
		t.Error("title not removed")
	}
}

func TestTitles_IndependentFromSegments(t *testing.T) {
	s := newTestSession()
	title, _ := s.AddTitle(TitleInput{StartTime: 1, Duration: 3})
	seg, _ := s.AddSegment(0, 10, 0.5)

	// Title overlays live on the output timeline: segment edits and
	// deletions never reflow them.
	s.UpdateSegment(seg.ID, SegmentPatch{Start: f64(5)})
	s.DeleteSegment(seg.ID)

	titles := s.Titles()
	if len(titles) != 1 || titles[0].StartTime != 1 || titles[0].Duration != 3 {
		t.Errorf("title changed by segment edits: %+v", titles)
	}
	_ = title
}

func TestDeleteTitle_DetachesFromSegments(t *testing.T) {
	s := newTestSession()
	title, _ := s.AddTitle(TitleInput{Text: "intro"})
	seg, _ := s.AddSegment(0, 10, 0.5)
	s.UpdateSegment(seg.ID, SegmentPatch{TitleID: &title.ID})

	if err := s.DeleteTitle(title.ID); err != nil {
		t.Fatalf("DeleteTitle() error = %v", err)
	}
	after, _ := s.Segment(seg.ID)
	if after.TitleID != "" {
		t.Errorf("segment still references deleted title: %q", after.TitleID)
	}
}
