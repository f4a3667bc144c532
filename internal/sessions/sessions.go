package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-sheet-catalog/sheetrepo"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	// Table is the sheet holding session rows.
	Table = "active_sessions"

	// MaxDevices is the default cap on distinct active devices per user.
	MaxDevices = 3

	StatusActive   = "active"
	StatusInactive = "inactive"

	// TimeLayout formats the fecha column as day/month/year.
	TimeLayout = "02/01/2006, 15:04:05"

	FieldUsername = "username"
	FieldStarted  = "fecha"
	FieldDevice   = "deviceId"
	FieldStatus   = "status"
)

// ErrDeviceLimit is returned when a new device would exceed the active
// device cap of a user.
var ErrDeviceLimit = errors.New("sessions: device limit reached")

// Schema is the header layout of the sessions table.
func Schema() sheetrepo.Schema {
	return sheetrepo.Schema{
		Table:  Table,
		Fields: []string{FieldUsername, FieldStarted, FieldDevice, FieldStatus},
	}
}

// Session is one row of the sessions table.
type Session struct {
	Username string `json:"username"`
	Started  string `json:"fecha"`
	DeviceID string `json:"deviceId"`
	Status   string `json:"status"`
}

// Active reports whether the row is marked active.
func (s Session) Active() bool {
	return s.Status == StatusActive
}

func fromRecord(r sheetrepo.Record) Session {
	return Session{
		Username: r.Get(FieldUsername),
		Started:  r.Get(FieldStarted),
		DeviceID: r.Get(FieldDevice),
		Status:   r.Get(FieldStatus),
	}
}

// Store manages device sessions on top of a sheet repository.
type Store struct {
	repo       *sheetrepo.Repository
	clock      clockwork.Clock
	logger     *zap.Logger
	maxDevices int
}

// Option configures a Store.
type Option func(*Store)

func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxDevices overrides MaxDevices. Values below 1 are ignored.
func WithMaxDevices(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxDevices = n
		}
	}
}

func New(repo *sheetrepo.Repository, opts ...Option) *Store {
	s := &Store{
		repo:       repo,
		clock:      clockwork.NewRealClock(),
		logger:     zap.NewNop(),
		maxDevices: MaxDevices,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func deviceMatch(username, deviceID string) sheetrepo.Match {
	return sheetrepo.FieldsEqual(map[string]string{
		FieldUsername: username,
		FieldDevice:   deviceID,
	})
}

// Start opens a session for username on deviceID. A device that is already
// active is accepted without writing. A new device is rejected with
// ErrDeviceLimit once the user has maxDevices distinct active devices. An
// inactive row for the same device is reactivated in place. The check and
// the write run under the sessions table lock.
//
// created reports whether a row was appended or reactivated.
func (s *Store) Start(ctx context.Context, username, deviceID string) (created bool, err error) {
	err = s.repo.WithTableLock(ctx, Table, func(ctx context.Context) error {
		t, err := s.repo.Read(ctx, Table)
		if err != nil {
			return err
		}

		active := make(map[string]struct{})
		known := false
		for _, r := range t.Records {
			sess := fromRecord(r)
			if sess.Username != username {
				continue
			}
			if sess.DeviceID == deviceID {
				known = true
			}
			if sess.Active() {
				active[sess.DeviceID] = struct{}{}
			}
		}

		if _, ok := active[deviceID]; ok {
			return nil
		}
		if len(active) >= s.maxDevices {
			s.logger.Info("session rejected: device limit",
				zap.String("username", username),
				zap.Int("active_devices", len(active)),
			)
			return fmt.Errorf("%w: %s has %d active devices", ErrDeviceLimit, username, len(active))
		}

		now := s.clock.Now().Format(TimeLayout)
		created = true
		if known {
			return s.repo.PointUpdate(ctx, Table, deviceMatch(username, deviceID), map[string]string{
				FieldStarted: now,
				FieldStatus:  StatusActive,
			})
		}
		return s.repo.AppendRecord(ctx, Table, map[string]string{
			FieldUsername: username,
			FieldStarted:  now,
			FieldDevice:   deviceID,
			FieldStatus:   StatusActive,
		})
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Valid reports whether a token for username on deviceID may still be used.
// Only a row explicitly marked inactive invalidates it.
func (s *Store) Valid(ctx context.Context, username, deviceID string) (bool, error) {
	t, err := s.repo.Read(ctx, Table)
	if err != nil {
		return false, err
	}
	idx := t.Find(deviceMatch(username, deviceID))
	if idx < 0 {
		return true, nil
	}
	return fromRecord(t.Records[idx]).Status != StatusInactive, nil
}

// Active lists every active session row.
func (s *Store) Active(ctx context.Context) ([]Session, error) {
	records, err := s.repo.FetchTable(ctx, Table)
	if err != nil {
		return nil, err
	}
	out := make([]Session, 0, len(records))
	for _, r := range records {
		if sess := fromRecord(r); sess.Active() {
			out = append(out, sess)
		}
	}
	return out, nil
}

// Logout marks the session of username on deviceID inactive and clears its
// timestamp. It fails with sheetrepo.ErrRecordNotFound when no row matches.
func (s *Store) Logout(ctx context.Context, username, deviceID string) error {
	return s.repo.WithTableLock(ctx, Table, func(ctx context.Context) error {
		return s.repo.PointUpdate(ctx, Table, deviceMatch(username, deviceID), map[string]string{
			FieldStarted: "",
			FieldStatus:  StatusInactive,
		})
	})
}
