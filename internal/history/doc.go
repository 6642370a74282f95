// Package history keeps a local log of transmissions in SQLite.
//
// One row is written when a transmission starts and completed when it
// stops, with the cycle and packet counters the transmitter reported.
// Payload bytes are never stored: a row holds the payload length, the
// checksum and the header address only.
//
// A Recorder subscribes to controller events and persists them:
//
//	repo := history.NewSQLiteRepository(db.DB)
//	rec := history.NewRecorder(repo, log)
//	ctrl.OnEvent(rec.Handle)
package history
