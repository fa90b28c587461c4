package session

// AudioPatch carries a partial audio-track update. Nil fields are left
// untouched.
type AudioPatch struct {
	Name      *string  `json:"name,omitempty"`
	StartTime *float64 `json:"startTime,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Muted     *bool    `json:"muted,omitempty"`
	Solo      *bool    `json:"solo,omitempty"`
}

// AddAudioTrack appends a custom audio track backed by an uploaded or
// library file.
func (s *Session) AddAudioTrack(name, sourcePath string) (*AudioTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	track := AudioTrack{
		ID:         NewID(),
		Name:       name,
		Type:       TrackTypeCustom,
		Volume:     1,
		SourcePath: sourcePath,
	}
	if track.Name == "" {
		track.Name = "Audio Track"
	}
	s.tracks = append(s.tracks, track)
	cp := track
	return &cp, nil
}

// UpdateAudioTrack merges a patch into a track, clamping volume to [0,1]
// and rejecting negative times.
func (s *Session) UpdateAudioTrack(id string, patch AudioPatch) (*AudioTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	track := s.findTrackLocked(id)
	if track == nil {
		return nil, ErrNotFound
	}

	next := *track
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.StartTime != nil {
		if *patch.StartTime < 0 {
			return nil, ErrOutOfBounds
		}
		next.StartTime = *patch.StartTime
	}
	if patch.Duration != nil {
		if *patch.Duration < 0 {
			return nil, ErrOutOfBounds
		}
		next.Duration = *patch.Duration
	}
	if patch.Volume != nil {
		next.Volume = clamp01(*patch.Volume)
	}
	if patch.Muted != nil {
		next.Muted = *patch.Muted
	}
	if patch.Solo != nil {
		next.Solo = *patch.Solo
	}

	*track = next
	cp := next
	return &cp, nil
}

// RemoveAudioTrack deletes a custom track. The original track is a
// sentinel and cannot be removed.
func (s *Session) RemoveAudioTrack(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == OriginalTrackID {
		return ErrOriginalTrack
	}
	idx := -1
	for i := range s.tracks {
		if s.tracks[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}
	s.tracks = append(s.tracks[:idx], s.tracks[idx+1:]...)
	return nil
}

// ToggleTrackMute flips a track's muted flag.
func (s *Session) ToggleTrackMute(id string) (*AudioTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	track := s.findTrackLocked(id)
	if track == nil {
		return nil, ErrNotFound
	}
	track.Muted = !track.Muted
	cp := *track
	return &cp, nil
}

// ToggleTrackSolo flips a track's solo flag.
func (s *Session) ToggleTrackSolo(id string) (*AudioTrack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	track := s.findTrackLocked(id)
	if track == nil {
		return nil, ErrNotFound
	}
	track.Solo = !track.Solo
	cp := *track
	return &cp, nil
}

// AudioTracks returns a copy of the tracks, original track first.
func (s *Session) AudioTracks() []AudioTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AudioTrack, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *Session) findTrackLocked(id string) *AudioTrack {
	for i := range s.tracks {
		if s.tracks[i].ID == id {
			return &s.tracks[i]
		}
	}
	return nil
}
