package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists everything in a single SQLite file. Lists are stored as
// JSON text and timestamps as fixed-width RFC 3339 strings.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "//")
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			bedrooms INTEGER NOT NULL DEFAULT 0,
			bathrooms REAL NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			hero_image_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			amenities TEXT NOT NULL DEFAULT '[]',
			brand_voice TEXT NOT NULL DEFAULT '',
			brand_voice_summary TEXT NOT NULL DEFAULT '',
			use_brand_voice_default INTEGER NOT NULL DEFAULT 0,
			saved_hashtags TEXT NOT NULL DEFAULT '[]',
			host_signature TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS properties_owner_idx ON properties (owner_id)`,
		`CREATE TABLE IF NOT EXISTS property_photos (
			id TEXT PRIMARY KEY,
			property_id TEXT NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			is_primary INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS property_photos_one_primary ON property_photos (property_id) WHERE is_primary = 1`,
		`CREATE TABLE IF NOT EXISTS saved_content (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			property_id TEXT NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
			content_type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			keywords TEXT NOT NULL DEFAULT '[]',
			image_url TEXT NOT NULL DEFAULT '',
			brand_voice TEXT NOT NULL DEFAULT '',
			cta_enhancements TEXT NOT NULL DEFAULT '{}',
			fingerprint TEXT NOT NULL UNIQUE,
			generated_at TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS saved_content_owner_idx ON saved_content (owner_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// CreateUser inserts a user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, formatTime(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUserByEmail loads a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByID loads a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *SQLiteStore) getUser(ctx context.Context, query, arg string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// CreateProperty inserts a property.
func (s *SQLiteStore) CreateProperty(ctx context.Context, input Property) (Property, error) {
	prepareProperty(&input, time.Now().UTC())
	input.Photos = []Photo{}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (`+propertyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.ID, input.OwnerID, input.Name, input.Location, input.Bedrooms, input.Bathrooms,
		input.Description, input.HeroImageURL, string(input.Status), encodeList(input.Amenities),
		input.BrandVoice, input.BrandVoiceSummary, boolInt(input.UseBrandVoiceDefault),
		encodeList(input.SavedHashtags), input.HostSignature, formatTime(input.CreatedAt), formatTime(input.UpdatedAt))
	if err != nil {
		return Property{}, fmt.Errorf("insert property: %w", err)
	}
	return input, nil
}

// ListProperties returns the owner's properties, newest first.
func (s *SQLiteStore) ListProperties(ctx context.Context, ownerID string) ([]Property, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE (? = '' OR owner_id = ?) ORDER BY created_at DESC`,
		ownerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}

	properties := []Property{}
	for rows.Next() {
		p, err := scanSQLiteProperty(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range properties {
		photos, err := s.listPhotos(ctx, properties[i].ID)
		if err != nil {
			return nil, err
		}
		properties[i].Photos = photos
	}
	return properties, nil
}

// GetProperty returns a property by ID, including its photos.
func (s *SQLiteStore) GetProperty(ctx context.Context, id string) (Property, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)
	p, err := scanSQLiteProperty(row)
	if err != nil {
		return Property{}, err
	}
	if p.Photos, err = s.listPhotos(ctx, id); err != nil {
		return Property{}, err
	}
	return p, nil
}

// UpdateProperty replaces the editable fields of a property.
func (s *SQLiteStore) UpdateProperty(ctx context.Context, input Property) (Property, error) {
	prepareProperty(&input, time.Now().UTC())
	res, err := s.db.ExecContext(ctx,
		`UPDATE properties SET name = ?, location = ?, bedrooms = ?, bathrooms = ?, description = ?,
			hero_image_url = ?, status = ?, amenities = ?, brand_voice = ?, brand_voice_summary = ?,
			use_brand_voice_default = ?, saved_hashtags = ?, host_signature = ?, updated_at = ?
		WHERE id = ?`,
		input.Name, input.Location, input.Bedrooms, input.Bathrooms, input.Description, input.HeroImageURL,
		string(input.Status), encodeList(input.Amenities), input.BrandVoice, input.BrandVoiceSummary,
		boolInt(input.UseBrandVoiceDefault), encodeList(input.SavedHashtags), input.HostSignature,
		formatTime(input.UpdatedAt), input.ID)
	if err != nil {
		return Property{}, fmt.Errorf("update property: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Property{}, ErrNotFound
	}
	return s.GetProperty(ctx, input.ID)
}

// UpdateBrandVoice stores an analyzed brand voice on the property.
func (s *SQLiteStore) UpdateBrandVoice(ctx context.Context, id, voice, summary string) (Property, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE properties SET brand_voice = ?, brand_voice_summary = ?, updated_at = ? WHERE id = ?`,
		voice, summary, formatTime(time.Now().UTC()), id)
	if err != nil {
		return Property{}, fmt.Errorf("update brand voice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Property{}, ErrNotFound
	}
	return s.GetProperty(ctx, id)
}

// DeleteProperty removes a property. Photos and saved content cascade.
func (s *SQLiteStore) DeleteProperty(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPhoto inserts a photo; the first photo of a property becomes primary.
func (s *SQLiteStore) AddPhoto(ctx context.Context, propertyID string, photo Photo) (Photo, error) {
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	photo.PropertyID = propertyID
	photo.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Photo{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM properties WHERE id = ?`, propertyID).Scan(&exists); err != nil {
		return Photo{}, fmt.Errorf("check property: %w", err)
	}
	if exists == 0 {
		return Photo{}, ErrNotFound
	}

	var count, maxPosition int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*), COALESCE(max(position), -1) FROM property_photos WHERE property_id = ?`,
		propertyID).Scan(&count, &maxPosition); err != nil {
		return Photo{}, fmt.Errorf("count photos: %w", err)
	}
	photo.Position = maxPosition + 1
	if count == 0 {
		photo.IsPrimary = true
	}
	if photo.IsPrimary && count > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE property_photos SET is_primary = 0 WHERE property_id = ?`, propertyID); err != nil {
			return Photo{}, fmt.Errorf("clear primary: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO property_photos (id, property_id, url, name, is_primary, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		photo.ID, photo.PropertyID, photo.URL, photo.Name, boolInt(photo.IsPrimary), photo.Position,
		formatTime(photo.CreatedAt)); err != nil {
		return Photo{}, fmt.Errorf("insert photo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Photo{}, fmt.Errorf("commit photo: %w", err)
	}
	return photo, nil
}

// SetPrimaryPhoto marks one photo as primary inside a transaction.
func (s *SQLiteStore) SetPrimaryPhoto(ctx context.Context, propertyID, photoID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var found int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM property_photos WHERE property_id = ? AND id = ?`,
		propertyID, photoID).Scan(&found); err != nil {
		return fmt.Errorf("check photo: %w", err)
	}
	if found == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE property_photos SET is_primary = 0 WHERE property_id = ? AND id <> ?`,
		propertyID, photoID); err != nil {
		return fmt.Errorf("clear primary: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE property_photos SET is_primary = 1 WHERE property_id = ? AND id = ?`,
		propertyID, photoID); err != nil {
		return fmt.Errorf("set primary: %w", err)
	}
	return tx.Commit()
}

// DeletePhoto removes a photo, promoting the earliest remaining one if needed.
func (s *SQLiteStore) DeletePhoto(ctx context.Context, propertyID, photoID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var isPrimary int
	err = tx.QueryRowContext(ctx,
		`SELECT is_primary FROM property_photos WHERE property_id = ? AND id = ?`,
		propertyID, photoID).Scan(&isPrimary)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("load photo: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM property_photos WHERE id = ?`, photoID); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if isPrimary == 1 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE property_photos SET is_primary = 1
			WHERE id = (SELECT id FROM property_photos WHERE property_id = ? ORDER BY position LIMIT 1)`,
			propertyID); err != nil {
			return fmt.Errorf("promote photo: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) listPhotos(ctx context.Context, propertyID string) ([]Photo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, property_id, url, name, is_primary, position, created_at
		FROM property_photos WHERE property_id = ? ORDER BY position`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		var p Photo
		var primary int
		var created string
		if err := rows.Scan(&p.ID, &p.PropertyID, &p.URL, &p.Name, &primary, &p.Position, &created); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		p.IsPrimary = primary == 1
		p.CreatedAt = parseTime(created)
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// SaveContent inserts content unless the fingerprint already exists.
func (s *SQLiteStore) SaveContent(ctx context.Context, input SavedContent) (SavedContent, bool, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM properties WHERE id = ?`, input.PropertyID).Scan(&exists); err != nil {
		return SavedContent{}, false, fmt.Errorf("check property: %w", err)
	}
	if exists == 0 {
		return SavedContent{}, false, ErrNotFound
	}

	prepareContent(&input, time.Now().UTC())
	fingerprint := contentFingerprint(input)
	cta, err := json.Marshal(input.CTAEnhancements)
	if err != nil {
		return SavedContent{}, false, fmt.Errorf("encode cta: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_content (`+contentColumns+`, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (fingerprint) DO NOTHING`,
		input.ID, input.OwnerID, input.PropertyID, string(input.ContentType), input.Title, input.Content,
		encodeList(input.Keywords), input.ImageURL, input.BrandVoice, string(cta),
		formatTime(input.GeneratedAt), formatTime(input.CreatedAt), fingerprint)
	if err != nil {
		return SavedContent{}, false, fmt.Errorf("insert content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return input, true, nil
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM saved_content WHERE fingerprint = ?`, fingerprint)
	existing, err := scanSQLiteContent(row)
	if err != nil {
		return SavedContent{}, false, err
	}
	return existing, false, nil
}

// ListContent returns saved content newest first.
func (s *SQLiteStore) ListContent(ctx context.Context, filter ContentFilter) ([]SavedContent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM saved_content
		WHERE (? = '' OR owner_id = ?) AND (? = '' OR property_id = ?)
		ORDER BY created_at DESC`,
		filter.OwnerID, filter.OwnerID, filter.PropertyID, filter.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	out := []SavedContent{}
	for rows.Next() {
		c, err := scanSQLiteContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetContent returns saved content by ID.
func (s *SQLiteStore) GetContent(ctx context.Context, id string) (SavedContent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM saved_content WHERE id = ?`, id)
	return scanSQLiteContent(row)
}

// DeleteContent removes saved content by ID.
func (s *SQLiteStore) DeleteContent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_content WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProperty(row scanner) (Property, error) {
	var (
		p                Property
		status           string
		amenities, tags  string
		useDefault       int
		created, updated string
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Location, &p.Bedrooms, &p.Bathrooms, &p.Description,
		&p.HeroImageURL, &status, &amenities, &p.BrandVoice, &p.BrandVoiceSummary, &useDefault,
		&tags, &p.HostSignature, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Property{}, ErrNotFound
		}
		return Property{}, fmt.Errorf("scan property: %w", err)
	}
	p.Status = PropertyStatus(status)
	p.Amenities = decodeList(amenities)
	p.SavedHashtags = decodeList(tags)
	p.UseBrandVoiceDefault = useDefault == 1
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	p.Photos = []Photo{}
	return p, nil
}

func scanSQLiteContent(row scanner) (SavedContent, error) {
	var (
		c                  SavedContent
		contentType        string
		keywords, cta      string
		generated, created string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.PropertyID, &contentType, &c.Title, &c.Content, &keywords,
		&c.ImageURL, &c.BrandVoice, &cta, &generated, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SavedContent{}, ErrNotFound
		}
		return SavedContent{}, fmt.Errorf("scan content: %w", err)
	}
	c.ContentType = ContentType(contentType)
	c.Keywords = decodeList(keywords)
	_ = json.Unmarshal([]byte(cta), &c.CTAEnhancements)
	c.GeneratedAt = parseTime(generated)
	c.CreatedAt = parseTime(created)
	return c, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(raw string) []string {
	out := []string{}
	_ = json.Unmarshal([]byte(raw), &out)
	if out == nil {
		out = []string{}
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Fixed-width so that ORDER BY on the text column matches chronological order.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(sqliteTimeFormat, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
