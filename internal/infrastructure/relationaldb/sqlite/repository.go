// Package sqlite provides a SQLite implementation of the NetworkStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ersonp/dramanet/internal/domain/entities"
	"github.com/ersonp/dramanet/internal/domain/ports"
	"github.com/ersonp/dramanet/internal/infrastructure/config"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.NetworkStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

var _ ports.NetworkStore = (*Repository)(nil)

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// In-memory databases are per connection.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Networks (one row per story network)
	CREATE TABLE IF NOT EXISTS networks (
		name TEXT PRIMARY KEY,
		relation_types TEXT NOT NULL DEFAULT '[]',
		conflict_subjects TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	-- Characters
	CREATE TABLE IF NOT EXISTS characters (
		network TEXT NOT NULL REFERENCES networks(name) ON DELETE CASCADE,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		profile TEXT,
		PRIMARY KEY (network, id)
	);

	-- Relationships (directed edges between characters of one network)
	CREATE TABLE IF NOT EXISTS relationships (
		network TEXT NOT NULL REFERENCES networks(name) ON DELETE CASCADE,
		id TEXT NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		type TEXT NOT NULL,
		nature TEXT NOT NULL,
		strength INTEGER NOT NULL,
		mutual INTEGER NOT NULL DEFAULT 0,
		description TEXT,
		PRIMARY KEY (network, id),
		FOREIGN KEY (network, source) REFERENCES characters(network, id),
		FOREIGN KEY (network, target) REFERENCES characters(network, id)
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(network, source);
	CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(network, target);

	-- Conflicts (participants, links and timestamps stored as JSON arrays)
	CREATE TABLE IF NOT EXISTS conflicts (
		network TEXT NOT NULL REFERENCES networks(name) ON DELETE CASCADE,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		involved TEXT NOT NULL,
		subject TEXT NOT NULL,
		scope TEXT NOT NULL,
		phase TEXT NOT NULL,
		strength INTEGER NOT NULL,
		related TEXT,
		timestamps TEXT,
		PRIMARY KEY (network, id)
	);
	CREATE INDEX IF NOT EXISTS idx_conflicts_phase ON conflicts(network, phase);

	-- Snapshots (labeled copies of a network state)
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		network TEXT NOT NULL REFERENCES networks(name) ON DELETE CASCADE,
		label TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(network, label)
	);

	-- Audit log (tracks all actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		network TEXT NOT NULL,
		action TEXT NOT NULL,
		entity_type TEXT,
		entity_id TEXT,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_network ON audit_log(network);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveNetwork replaces the stored contents of the network in one transaction.
func (r *Repository) SaveNetwork(ctx context.Context, n *entities.Network) error {
	if n == nil {
		return entities.NewValidationError("network", "", "network is required")
	}
	state := n.State()

	relTypes, err := json.Marshal(state.RelationTypes)
	if err != nil {
		return fmt.Errorf("marshaling relationship types: %w", err)
	}
	subjects, err := json.Marshal(state.ConflictSubjects)
	if err != nil {
		return fmt.Errorf("marshaling conflict subjects: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := timeNow().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO networks (name, relation_types, conflict_subjects, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			relation_types = excluded.relation_types,
			conflict_subjects = excluded.conflict_subjects,
			updated_at = excluded.updated_at
	`, state.Name, string(relTypes), string(subjects), now, now)
	if err != nil {
		return fmt.Errorf("saving network: %w", err)
	}

	// Children first so the character foreign keys never dangle.
	for _, table := range []string{"conflicts", "relationships", "characters"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE network = ?", state.Name); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, c := range state.Characters {
		if err := insertCharacter(ctx, tx, state.Name, c); err != nil {
			return err
		}
	}
	for _, rel := range state.Relationships {
		if err := insertRelationship(ctx, tx, state.Name, rel); err != nil {
			return err
		}
	}
	for _, c := range state.Conflicts {
		if err := insertConflict(ctx, tx, state.Name, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing network: %w", err)
	}
	return nil
}

func insertCharacter(ctx context.Context, tx *sql.Tx, network string, c entities.Character) error {
	var profile sql.NullString
	if len(c.Profile) > 0 {
		data, err := json.Marshal(c.Profile)
		if err != nil {
			return fmt.Errorf("marshaling profile: %w", err)
		}
		profile = sql.NullString{String: string(data), Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO characters (network, id, name, description, profile)
		VALUES (?, ?, ?, ?, ?)
	`, network, c.ID, c.Name, nullString(c.Description), profile)
	if err != nil {
		return fmt.Errorf("saving character %s: %w", c.ID, err)
	}
	return nil
}

func insertRelationship(ctx context.Context, tx *sql.Tx, network string, rel entities.Relationship) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO relationships (network, id, source, target, type, nature, strength, mutual, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		network,
		rel.ID,
		rel.Source,
		rel.Target,
		string(rel.Type),
		string(rel.Nature),
		rel.Strength,
		rel.Mutual,
		nullString(rel.Description),
	)
	if err != nil {
		return fmt.Errorf("saving relationship %s: %w", rel.ID, err)
	}
	return nil
}

func insertConflict(ctx context.Context, tx *sql.Tx, network string, c entities.Conflict) error {
	involved, err := json.Marshal(c.InvolvedCharacters)
	if err != nil {
		return fmt.Errorf("marshaling involved characters: %w", err)
	}
	related, err := nullJSON(c.RelatedRelationships, len(c.RelatedRelationships))
	if err != nil {
		return fmt.Errorf("marshaling related relationships: %w", err)
	}
	stamps, err := nullJSON(c.Timestamps, len(c.Timestamps))
	if err != nil {
		return fmt.Errorf("marshaling timestamps: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conflicts (network, id, name, description, involved, subject, scope, phase, strength, related, timestamps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		network,
		c.ID,
		c.Name,
		nullString(c.Description),
		string(involved),
		string(c.Subject),
		string(c.Scope),
		string(c.Phase),
		c.Strength,
		related,
		stamps,
	)
	if err != nil {
		return fmt.Errorf("saving conflict %s: %w", c.ID, err)
	}
	return nil
}

// LoadNetwork loads a network and its snapshots. The stored rows are replayed
// through the validated add operations.
func (r *Repository) LoadNetwork(ctx context.Context, name string) (*entities.Network, error) {
	state := entities.NetworkState{Name: name}

	var relTypes, subjects string
	err := r.db.QueryRowContext(ctx,
		`SELECT relation_types, conflict_subjects FROM networks WHERE name = ?`, name,
	).Scan(&relTypes, &subjects)
	if err == sql.ErrNoRows {
		return nil, entities.NewNotFoundError("network", name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading network: %w", err)
	}
	if err := json.Unmarshal([]byte(relTypes), &state.RelationTypes); err != nil {
		return nil, fmt.Errorf("unmarshaling relationship types: %w", err)
	}
	if err := json.Unmarshal([]byte(subjects), &state.ConflictSubjects); err != nil {
		return nil, fmt.Errorf("unmarshaling conflict subjects: %w", err)
	}

	if state.Characters, err = r.loadCharacters(ctx, name); err != nil {
		return nil, err
	}
	if state.Relationships, err = r.loadRelationships(ctx, name); err != nil {
		return nil, err
	}
	if state.Conflicts, err = r.loadConflicts(ctx, name); err != nil {
		return nil, err
	}

	n, err := entities.NewNetworkFromState(state)
	if err != nil {
		return nil, fmt.Errorf("rebuilding network %s: %w", name, err)
	}

	snaps, err := r.ListSnapshots(ctx, name)
	if err != nil {
		return nil, err
	}
	n.RestoreSnapshots(snaps)

	return n, nil
}

func (r *Repository) loadCharacters(ctx context.Context, network string) ([]entities.Character, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, profile
		FROM characters
		WHERE network = ?
		ORDER BY id
	`, network)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	defer rows.Close()

	var out []entities.Character
	for rows.Next() {
		var c entities.Character
		var description, profile sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description, &profile); err != nil {
			return nil, fmt.Errorf("scanning character: %w", err)
		}
		c.Description = description.String
		if profile.Valid && profile.String != "" {
			if err := json.Unmarshal([]byte(profile.String), &c.Profile); err != nil {
				return nil, fmt.Errorf("unmarshaling profile: %w", err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) loadRelationships(ctx context.Context, network string) ([]entities.Relationship, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, target, type, nature, strength, mutual, description
		FROM relationships
		WHERE network = ?
		ORDER BY id
	`, network)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var out []entities.Relationship
	for rows.Next() {
		var rel entities.Relationship
		var relType, nature string
		var description sql.NullString
		if err := rows.Scan(
			&rel.ID,
			&rel.Source,
			&rel.Target,
			&relType,
			&nature,
			&rel.Strength,
			&rel.Mutual,
			&description,
		); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		rel.Type = entities.RelationType(relType)
		rel.Nature = entities.Nature(nature)
		rel.Description = description.String
		out = append(out, rel)
	}
	return out, rows.Err()
}

func (r *Repository) loadConflicts(ctx context.Context, network string) ([]entities.Conflict, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, involved, subject, scope, phase, strength, related, timestamps
		FROM conflicts
		WHERE network = ?
		ORDER BY id
	`, network)
	if err != nil {
		return nil, fmt.Errorf("querying conflicts: %w", err)
	}
	defer rows.Close()

	var out []entities.Conflict
	for rows.Next() {
		var c entities.Conflict
		var involved, subject, scope, phase string
		var description, related, stamps sql.NullString
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&description,
			&involved,
			&subject,
			&scope,
			&phase,
			&c.Strength,
			&related,
			&stamps,
		); err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		c.Description = description.String
		c.Subject = entities.ConflictSubject(subject)
		c.Scope = entities.Scope(scope)
		c.Phase = entities.Phase(phase)
		if err := json.Unmarshal([]byte(involved), &c.InvolvedCharacters); err != nil {
			return nil, fmt.Errorf("unmarshaling involved characters: %w", err)
		}
		if err := unmarshalNull(related, &c.RelatedRelationships); err != nil {
			return nil, fmt.Errorf("unmarshaling related relationships: %w", err)
		}
		if err := unmarshalNull(stamps, &c.Timestamps); err != nil {
			return nil, fmt.Errorf("unmarshaling timestamps: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListNetworks lists stored networks ordered by name.
func (r *Repository) ListNetworks(ctx context.Context) ([]ports.NetworkSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT n.name,
			(SELECT COUNT(*) FROM characters c WHERE c.network = n.name),
			(SELECT COUNT(*) FROM relationships r WHERE r.network = n.name),
			(SELECT COUNT(*) FROM conflicts k WHERE k.network = n.name),
			n.updated_at
		FROM networks n
		ORDER BY n.name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying networks: %w", err)
	}
	defer rows.Close()

	var out []ports.NetworkSummary
	for rows.Next() {
		var s ports.NetworkSummary
		if err := rows.Scan(&s.Name, &s.Characters, &s.Relationships, &s.Conflicts, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning network: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteNetwork removes a network with its snapshots and audit entries.
func (r *Repository) DeleteNetwork(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Children first; the cascade from networks does not order deletes
	// between relationships and characters.
	for _, table := range []string{"conflicts", "relationships", "characters", "snapshots", "audit_log"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE network = ?", name); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM networks WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting network: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return entities.NewNotFoundError("network", name)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// SaveSnapshot appends a snapshot to the network's history.
func (r *Repository) SaveSnapshot(ctx context.Context, network string, snap entities.Snapshot) error {
	data, err := json.Marshal(snap.State())
	if err != nil {
		return fmt.Errorf("marshaling snapshot state: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (network, label, state, created_at)
		VALUES (?, ?, ?, ?)
	`, network, snap.Label, string(data), snap.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the network's snapshots, oldest first.
func (r *Repository) ListSnapshots(ctx context.Context, network string) ([]entities.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT label, state, created_at
		FROM snapshots
		WHERE network = ?
		ORDER BY id
	`, network)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []entities.Snapshot
	for rows.Next() {
		var label, data string
		var createdAt time.Time
		if err := rows.Scan(&label, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		var state entities.NetworkState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			return nil, fmt.Errorf("unmarshaling snapshot %s: %w", label, err)
		}
		out = append(out, entities.NewSnapshot(label, createdAt, state))
	}
	return out, rows.Err()
}

// LogAction records an action in the audit log.
func (r *Repository) LogAction(ctx context.Context, entry entities.AuditEntry) error {
	var detailsJSON sql.NullString
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow()
	}

	query := `
		INSERT INTO audit_log (network, action, entity_type, entity_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.Network,
		entry.Action,
		nullString(entry.EntityType),
		nullString(entry.EntityID),
		detailsJSON,
		createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog returns the most recent audit entries for a network, newest
// first. A non-positive limit returns every entry.
func (r *Repository) FindAuditLog(ctx context.Context, network string, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, network, action, entity_type, entity_id, details, created_at
		FROM audit_log
		WHERE network = ?
		ORDER BY id DESC
		LIMIT ?
	`
	return r.queryAuditLog(ctx, query, network, limit)
}

// queryAuditLog is a helper to execute audit log queries.
func (r *Repository) queryAuditLog(ctx context.Context, query string, args ...any) ([]entities.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var entityType, entityID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Network,
			&entry.Action,
			&entityType,
			&entityID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.EntityType = entityType.String
		entry.EntityID = entityID.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(v any, n int) (sql.NullString, error) {
	if n == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalNull(s sql.NullString, dst any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), dst)
}
