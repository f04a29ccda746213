package service

import (
	"github.com/mmynk/compartilha/internal/share"
)

// ShareText renders the summary in the given format.
func (s *Session) ShareText(f share.Format) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenSummary {
		return "", ErrWrongScreen
	}
	return share.Text(f, s.summary.Division, s.summary.Totals.People), nil
}

// WhatsAppURL returns a link that opens WhatsApp with the summary text.
func (s *Session) WhatsAppURL(f share.Format) (string, error) {
	text, err := s.ShareText(f)
	if err != nil {
		return "", err
	}
	return share.WhatsAppURL(text), nil
}

// NewDivision leaves the summary and starts over.
func (s *Session) NewDivision() {
	s.Reset()
}
