package session

// TitleInput carries the fields for a new title overlay. Zero values
// fall back to the editor defaults.
type TitleInput struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
	Animation string  `json:"animation"`
	FontSize  int     `json:"fontSize"`
	Position  string  `json:"position"`
}

// TitlePatch carries a partial title update. Nil fields are left untouched.
type TitlePatch struct {
	Text      *string  `json:"text,omitempty"`
	StartTime *float64 `json:"startTime,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
	Animation *string  `json:"animation,omitempty"`
	FontSize  *int     `json:"fontSize,omitempty"`
	Position  *string  `json:"position,omitempty"`
	Visible   *bool    `json:"visible,omitempty"`
}

// AddTitle appends a new visible title overlay.
func (s *Session) AddTitle(in TitleInput) (*Title, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Title{
		ID:        NewID(),
		Text:      in.Text,
		StartTime: in.StartTime,
		Duration:  in.Duration,
		Animation: in.Animation,
		FontSize:  in.FontSize,
		Position:  in.Position,
		Visible:   true,
	}
	if t.Text == "" {
		t.Text = "New Title"
	}
	if t.Duration == 0 {
		t.Duration = 2
	}
	if t.Animation == "" {
		t.Animation = "fade"
	}
	if t.FontSize == 0 {
		t.FontSize = 48
	}
	if t.Position == "" {
		t.Position = PositionCenter
	}

	if err := validateTitle(t); err != nil {
		return nil, err
	}

	s.titles = append(s.titles, t)
	cp := t
	return &cp, nil
}

func validateTitle(t Title) error {
	if t.Duration < MinTitleDuration {
		return ErrTitleTooShort
	}
	if t.StartTime < 0 {
		return ErrOutOfBounds
	}
	switch t.Position {
	case PositionTop, PositionCenter, PositionBottom:
	default:
		return ErrInvalidPosition
	}
	return nil
}

// UpdateTitle merges a patch into a title. Titles live on the output
// timeline: segment edits never reflow them, so only the title's own
// interval is re-validated here.
func (s *Session) UpdateTitle(id string, patch TitlePatch) (*Title, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	title := s.findTitleLocked(id)
	if title == nil {
		return nil, ErrNotFound
	}

	next := *title
	if patch.Text != nil {
		next.Text = *patch.Text
	}
	if patch.StartTime != nil {
		next.StartTime = *patch.StartTime
	}
	if patch.Duration != nil {
		next.Duration = *patch.Duration
	}
	if patch.Animation != nil {
		next.Animation = *patch.Animation
	}
	if patch.FontSize != nil {
		next.FontSize = *patch.FontSize
	}
	if patch.Position != nil {
		next.Position = *patch.Position
	}
	if patch.Visible != nil {
		next.Visible = *patch.Visible
	}

	if err := validateTitle(next); err != nil {
		return nil, err
	}

	*title = next
	cp := next
	return &cp, nil
}

// DeleteTitle removes a title and detaches it from any segment that
// referenced it.
func (s *Session) DeleteTitle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.titles {
		if s.titles[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}
	s.titles = append(s.titles[:idx], s.titles[idx+1:]...)
	for i := range s.segments {
		if s.segments[i].TitleID == id {
			s.segments[i].TitleID = ""
		}
	}
	return nil
}

// ToggleTitleVisibility flips whether a title is rendered.
func (s *Session) ToggleTitleVisibility(id string) (*Title, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	title := s.findTitleLocked(id)
	if title == nil {
		return nil, ErrNotFound
	}
	title.Visible = !title.Visible
	cp := *title
	return &cp, nil
}

// Titles returns a copy of the titles in insertion order.
func (s *Session) Titles() []Title {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Title, len(s.titles))
	copy(out, s.titles)
	return out
}

func (s *Session) findTitleLocked(id string) *Title {
	for i := range s.titles {
		if s.titles[i].ID == id {
			return &s.titles[i]
		}
	}
	return nil
}
