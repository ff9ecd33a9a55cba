package controllerim

// transaction batches change notifications. Transactions nest; only the
// outermost one flushes.
type transaction struct {
	depth   int
	pending []*Controller
	queued  map[*Controller]bool
}

// Transaction runs fn as one atomic change: controllers that change inside
// fn notify their listeners once, after the outermost transaction returns.
// If the outermost fn panics the queued notifications are dropped.
func (s *Scope) Transaction(fn func()) {
	s.tx.depth++
	completed := false

	defer func() {
		s.tx.depth--
		if s.tx.depth > 0 {
			return
		}

		pending := s.tx.pending
		s.tx.pending = nil
		s.tx.queued = nil

		if !completed {
			return
		}
		for _, c := range pending {
			c.notify()
		}
	}()

	fn()
	completed = true
}

// InTransaction reports whether a transaction is open.
func (s *Scope) InTransaction() bool {
	return s.tx.depth > 0
}

// queue schedules a notification for c. Outside a transaction it fires
// right away.
func (s *Scope) queue(c *Controller) {
	if s.tx.depth == 0 {
		c.notify()
		return
	}
	if s.tx.queued == nil {
		s.tx.queued = make(map[*Controller]bool)
	}
	if s.tx.queued[c] {
		return
	}
	s.tx.queued[c] = true
	s.tx.pending = append(s.tx.pending, c)
}
