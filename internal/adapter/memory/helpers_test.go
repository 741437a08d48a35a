package memory

// put stores raw bytes for guildID, bypassing encoding.
func (s *Store) put(guildID string, raw []byte) {
	s.mu.Lock()
	s.docs[guildID] = append([]byte(nil), raw...)
	s.mu.Unlock()
}

func (s *Store) raw(guildID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[guildID]
	return append([]byte(nil), data...), ok
}
