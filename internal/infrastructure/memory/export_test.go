package memory

// LockedRows cantidad de filas con bloqueo tomado o en espera.
func (s *Store) LockedRows() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}
