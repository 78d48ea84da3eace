package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/banshee-data/squat.report/internal/config"
	"github.com/banshee-data/squat.report/internal/httputil"
	"github.com/banshee-data/squat.report/internal/timeutil"
)

// ErrSessionNotFound is returned when a session ID has no row.
var ErrSessionNotFound = errors.New("session not found")

// Session is a persisted analysis session.
type Session struct {
	SessionID          string          `json:"session_id"`
	Source             string          `json:"source"`
	StartedAt          int64           `json:"started_at"`
	FinishedAt         *int64          `json:"finished_at,omitempty"`
	Frames             int             `json:"frames"`
	PersonFrames       int             `json:"person_frames"`
	MissingJointFrames int             `json:"missing_joint_frames"`
	Reps               int             `json:"reps"`
	DepthReachedReps   int             `json:"depth_reached_reps"`
	ClassifierFailures int             `json:"classifier_failures"`
	FinalLabel         string          `json:"final_label,omitempty"`
	ParamsJSON         json.RawMessage `json:"params_json,omitempty"`
}

// Rep is one persisted repetition.
type Rep struct {
	SessionID    string  `json:"session_id"`
	RepNumber    int     `json:"rep_number"`
	FrameIndex   int     `json:"frame_index"`
	MinKneeDeg   float64 `json:"min_knee_deg"`
	DepthReached bool    `json:"depth_reached"`
	Label        string  `json:"label,omitempty"` // empty while the classifier was warming up
	RecordedAt   int64   `json:"recorded_at"`
}

// SessionSummary holds the totals written when a session finishes.
type SessionSummary struct {
	Frames             int
	PersonFrames       int
	MissingJointFrames int
	Reps               int
	DepthReachedReps   int
	ClassifierFailures int
	FinalLabel         string
}

// SessionStore provides persistence for sessions and their repetitions.
type SessionStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewSessionStore creates a new SessionStore. A nil clock uses wall time.
func NewSessionStore(db *sql.DB, clock timeutil.Clock) *SessionStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &SessionStore{db: db, clock: clock}
}

// StartSession inserts a new session row and returns its ID. The tuning
// config is stored alongside so a session can be reproduced.
func (s *SessionStore) StartSession(source string, tuning *config.TuningConfig) (string, error) {
	id := uuid.New().String()

	var params interface{}
	if tuning != nil {
		data, err := json.Marshal(tuning)
		if err != nil {
			return "", fmt.Errorf("failed to encode session params: %w", err)
		}
		params = string(data)
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO squat_sessions (session_id, source, started_at, params_json)
			VALUES (?, ?, ?, ?)`,
			id, source, s.clock.Now().UnixNano(), params,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	return id, nil
}

// RecordRep persists one repetition.
func (s *SessionStore) RecordRep(rep *Rep) error {
	if rep.RecordedAt == 0 {
		rep.RecordedAt = s.clock.Now().UnixNano()
	}
	var label interface{}
	if rep.Label != "" {
		label = rep.Label
	}
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO squat_reps (
				session_id, rep_number, frame_index, min_knee_deg,
				depth_reached, label, recorded_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rep.SessionID, rep.RepNumber, rep.FrameIndex, rep.MinKneeDeg,
			rep.DepthReached, label, rep.RecordedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert rep %d: %w", rep.RepNumber, err)
	}
	return nil
}

// FinishSession stamps the finish time and final totals.
func (s *SessionStore) FinishSession(id string, sum SessionSummary) error {
	var label interface{}
	if sum.FinalLabel != "" {
		label = sum.FinalLabel
	}
	var res sql.Result
	err := retryOnBusy(func() error {
		var err error
		res, err = s.db.Exec(`
			UPDATE squat_sessions SET
				finished_at = ?, frames = ?, person_frames = ?, missing_joint_frames = ?,
				reps = ?, depth_reached_reps = ?, classifier_failures = ?, final_label = ?
			WHERE session_id = ?`,
			s.clock.Now().UnixNano(), sum.Frames, sum.PersonFrames, sum.MissingJointFrames,
			sum.Reps, sum.DepthReachedReps, sum.ClassifierFailures, label, id,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

const sessionColumns = `
	session_id, source, started_at, finished_at, frames, person_frames,
	missing_joint_frames, reps, depth_reached_reps, classifier_failures,
	final_label, params_json`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess       Session
		finishedAt sql.NullInt64
		label      sql.NullString
		params     sql.NullString
	)
	if err := row.Scan(
		&sess.SessionID, &sess.Source, &sess.StartedAt, &finishedAt,
		&sess.Frames, &sess.PersonFrames, &sess.MissingJointFrames,
		&sess.Reps, &sess.DepthReachedReps, &sess.ClassifierFailures,
		&label, &params,
	); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		sess.FinishedAt = &finishedAt.Int64
	}
	sess.FinalLabel = label.String
	if params.Valid {
		sess.ParamsJSON = json.RawMessage(params.String)
	}
	return &sess, nil
}

// GetSession loads one session.
func (s *SessionStore) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM squat_sessions WHERE session_id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// ListSessions returns the most recent sessions, newest first.
func (s *SessionStore) ListSessions(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT `+sessionColumns+` FROM squat_sessions
		ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListReps returns the repetitions of a session in rep order.
func (s *SessionStore) ListReps(sessionID string) ([]*Rep, error) {
	rows, err := s.db.Query(`
		SELECT session_id, rep_number, frame_index, min_knee_deg,
			depth_reached, label, recorded_at
		FROM squat_reps WHERE session_id = ? ORDER BY rep_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reps: %w", err)
	}
	defer rows.Close()

	var reps []*Rep
	for rows.Next() {
		var (
			rep   Rep
			label sql.NullString
		)
		if err := rows.Scan(&rep.SessionID, &rep.RepNumber, &rep.FrameIndex, &rep.MinKneeDeg,
			&rep.DepthReached, &label, &rep.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rep: %w", err)
		}
		rep.Label = label.String
		reps = append(reps, &rep)
	}
	return reps, rows.Err()
}

// sessionDetail is the admin view of one session.
type sessionDetail struct {
	*Session
	RepList []*Rep `json:"rep_list"`
}

// ServeHTTP serves recent sessions as JSON, or one session with its reps
// when ?id= is given. ?limit= bounds the list (default 50).
func (s *SessionStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if id := r.URL.Query().Get("id"); id != "" {
		sess, err := s.GetSession(id)
		if errors.Is(err, ErrSessionNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		reps, err := s.ListReps(id)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, sessionDetail{Session: sess, RepList: reps})
		return
	}

	sessions, err := s.ListSessions(httputil.QueryInt(r, "limit", 50, 1, 1000))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []*Session{}
	}
	httputil.WriteJSON(w, http.StatusOK, sessions)
}
