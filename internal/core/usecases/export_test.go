package usecases

import "time"

// SetNow replaces the clock used for idle tracking.
func (s *SessionService) SetNow(now func() time.Time) {
	s.now = now
}
