package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists users, properties and saved content in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const propertyColumns = `id, owner_id, name, location, bedrooms, bathrooms, description, hero_image_url, status,
	amenities, brand_voice, brand_voice_summary, use_brand_voice_default, saved_hashtags, host_signature,
	created_at, updated_at`

const contentColumns = `id, owner_id, property_id, content_type, title, content, keywords, image_url, brand_voice,
	cta_enhancements, generated_at, created_at`

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}

// CreateUser inserts a user, mapping unique violations to ErrUserExists.
func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUserByEmail loads a user by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByID loads a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// CreateProperty stores the provided property in PostgreSQL.
func (s *PostgresStore) CreateProperty(ctx context.Context, input Property) (Property, error) {
	prepareProperty(&input, time.Now().UTC())
	input.Photos = []Photo{}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO properties (`+propertyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		input.ID, input.OwnerID, input.Name, input.Location, input.Bedrooms, input.Bathrooms,
		input.Description, input.HeroImageURL, string(input.Status), input.Amenities, input.BrandVoice,
		input.BrandVoiceSummary, input.UseBrandVoiceDefault, input.SavedHashtags, input.HostSignature,
		input.CreatedAt, input.UpdatedAt); err != nil {
		return Property{}, fmt.Errorf("insert property: %w", err)
	}
	return input, nil
}

// ListProperties returns the owner's properties, newest first.
func (s *PostgresStore) ListProperties(ctx context.Context, ownerID string) ([]Property, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE ($1 = '' OR owner_id = $1) ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	properties := []Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}

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
func (s *PostgresStore) GetProperty(ctx context.Context, id string) (Property, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if err != nil {
		return Property{}, err
	}
	if p.Photos, err = s.listPhotos(ctx, id); err != nil {
		return Property{}, err
	}
	return p, nil
}

// UpdateProperty replaces the editable fields of a property.
func (s *PostgresStore) UpdateProperty(ctx context.Context, input Property) (Property, error) {
	prepareProperty(&input, time.Now().UTC())
	tag, err := s.pool.Exec(ctx,
		`UPDATE properties SET name = $2, location = $3, bedrooms = $4, bathrooms = $5, description = $6,
			hero_image_url = $7, status = $8, amenities = $9, brand_voice = $10, brand_voice_summary = $11,
			use_brand_voice_default = $12, saved_hashtags = $13, host_signature = $14, updated_at = $15
		WHERE id = $1`,
		input.ID, input.Name, input.Location, input.Bedrooms, input.Bathrooms, input.Description,
		input.HeroImageURL, string(input.Status), input.Amenities, input.BrandVoice, input.BrandVoiceSummary,
		input.UseBrandVoiceDefault, input.SavedHashtags, input.HostSignature, input.UpdatedAt)
	if err != nil {
		return Property{}, fmt.Errorf("update property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Property{}, ErrNotFound
	}
	return s.GetProperty(ctx, input.ID)
}

// UpdateBrandVoice stores an analyzed brand voice on the property.
func (s *PostgresStore) UpdateBrandVoice(ctx context.Context, id, voice, summary string) (Property, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE properties SET brand_voice = $2, brand_voice_summary = $3, updated_at = now() WHERE id = $1`,
		id, voice, summary)
	if err != nil {
		return Property{}, fmt.Errorf("update brand voice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Property{}, ErrNotFound
	}
	return s.GetProperty(ctx, id)
}

// DeleteProperty removes a property. Photos and saved content cascade.
func (s *PostgresStore) DeleteProperty(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPhoto inserts a photo. The first photo of a property becomes primary; a
// concurrent insert that loses the race for the primary slot is stored as a
// regular photo.
func (s *PostgresStore) AddPhoto(ctx context.Context, propertyID string, photo Photo) (Photo, error) {
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	photo.PropertyID = propertyID
	photo.CreatedAt = time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Photo{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM properties WHERE id = $1)`, propertyID).Scan(&exists); err != nil {
		return Photo{}, fmt.Errorf("check property: %w", err)
	}
	if !exists {
		return Photo{}, ErrNotFound
	}

	var count, maxPosition int
	if err := tx.QueryRow(ctx,
		`SELECT count(*), COALESCE(max(position), -1) FROM property_photos WHERE property_id = $1`,
		propertyID).Scan(&count, &maxPosition); err != nil {
		return Photo{}, fmt.Errorf("count photos: %w", err)
	}
	photo.Position = maxPosition + 1
	if count == 0 {
		photo.IsPrimary = true
	}
	if photo.IsPrimary && count > 0 {
		if _, err := tx.Exec(ctx, `UPDATE property_photos SET is_primary = false WHERE property_id = $1 AND is_primary`, propertyID); err != nil {
			return Photo{}, fmt.Errorf("clear primary: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO property_photos (id, property_id, url, name, is_primary, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		photo.ID, photo.PropertyID, photo.URL, photo.Name, photo.IsPrimary, photo.Position, photo.CreatedAt); err != nil {
		if isDuplicate(err) && photo.IsPrimary {
			tx.Rollback(ctx)
			photo.IsPrimary = false
			return s.insertPlainPhoto(ctx, photo)
		}
		return Photo{}, fmt.Errorf("insert photo: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		if isDuplicate(err) && photo.IsPrimary {
			photo.IsPrimary = false
			return s.insertPlainPhoto(ctx, photo)
		}
		return Photo{}, fmt.Errorf("commit photo: %w", err)
	}
	return photo, nil
}

func (s *PostgresStore) insertPlainPhoto(ctx context.Context, photo Photo) (Photo, error) {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO property_photos (id, property_id, url, name, is_primary, position, created_at)
		VALUES ($1, $2, $3, $4, false, (SELECT COALESCE(max(position), -1) + 1 FROM property_photos WHERE property_id = $2), $5)`,
		photo.ID, photo.PropertyID, photo.URL, photo.Name, photo.CreatedAt); err != nil {
		return Photo{}, fmt.Errorf("insert photo: %w", err)
	}
	return photo, nil
}

// SetPrimaryPhoto marks one photo as primary inside a transaction.
func (s *PostgresStore) SetPrimaryPhoto(ctx context.Context, propertyID, photoID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE property_photos SET is_primary = false WHERE property_id = $1 AND is_primary AND id <> $2`,
		propertyID, photoID); err != nil {
		return fmt.Errorf("clear primary: %w", err)
	}
	tag, err := tx.Exec(ctx,
		`UPDATE property_photos SET is_primary = true WHERE property_id = $1 AND id = $2`,
		propertyID, photoID)
	if err != nil {
		return fmt.Errorf("set primary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// DeletePhoto removes a photo and promotes the earliest remaining one if the
// primary photo was deleted.
func (s *PostgresStore) DeletePhoto(ctx context.Context, propertyID, photoID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var wasPrimary bool
	err = tx.QueryRow(ctx,
		`DELETE FROM property_photos WHERE property_id = $1 AND id = $2 RETURNING is_primary`,
		propertyID, photoID).Scan(&wasPrimary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete photo: %w", err)
	}
	if wasPrimary {
		if _, err := tx.Exec(ctx,
			`UPDATE property_photos SET is_primary = true
			WHERE id = (SELECT id FROM property_photos WHERE property_id = $1 ORDER BY position LIMIT 1)`,
			propertyID); err != nil {
			return fmt.Errorf("promote photo: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) listPhotos(ctx context.Context, propertyID string) ([]Photo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, property_id, url, name, is_primary, position, created_at
		FROM property_photos WHERE property_id = $1 ORDER BY position`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.PropertyID, &p.URL, &p.Name, &p.IsPrimary, &p.Position, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// SaveContent inserts content, relying on the fingerprint constraint for the
// duplicate-save guard.
func (s *PostgresStore) SaveContent(ctx context.Context, input SavedContent) (SavedContent, bool, error) {
	prepareContent(&input, time.Now().UTC())
	fingerprint := contentFingerprint(input)

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO saved_content (`+contentColumns+`, fingerprint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (fingerprint) DO NOTHING`,
		input.ID, input.OwnerID, input.PropertyID, string(input.ContentType), input.Title, input.Content,
		input.Keywords, input.ImageURL, input.BrandVoice, input.CTAEnhancements, input.GeneratedAt,
		input.CreatedAt, fingerprint)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return SavedContent{}, false, ErrNotFound
		}
		return SavedContent{}, false, fmt.Errorf("insert content: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return input, true, nil
	}

	row := s.pool.QueryRow(ctx, `SELECT `+contentColumns+` FROM saved_content WHERE fingerprint = $1`, fingerprint)
	existing, err := scanContent(row)
	if err != nil {
		return SavedContent{}, false, err
	}
	return existing, false, nil
}

// ListContent returns saved content newest first.
func (s *PostgresStore) ListContent(ctx context.Context, filter ContentFilter) ([]SavedContent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contentColumns+` FROM saved_content
		WHERE ($1 = '' OR owner_id = $1) AND ($2 = '' OR property_id = $2)
		ORDER BY created_at DESC`, filter.OwnerID, filter.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	out := []SavedContent{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetContent returns saved content by ID.
func (s *PostgresStore) GetContent(ctx context.Context, id string) (SavedContent, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+contentColumns+` FROM saved_content WHERE id = $1`, id)
	return scanContent(row)
}

// DeleteContent removes saved content by ID.
func (s *PostgresStore) DeleteContent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_content WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases database resources.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	var status string
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Location, &p.Bedrooms, &p.Bathrooms, &p.Description,
		&p.HeroImageURL, &status, &p.Amenities, &p.BrandVoice, &p.BrandVoiceSummary, &p.UseBrandVoiceDefault,
		&p.SavedHashtags, &p.HostSignature, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Property{}, ErrNotFound
		}
		return Property{}, fmt.Errorf("scan property: %w", err)
	}
	p.Status = PropertyStatus(status)
	p.Photos = []Photo{}
	return p, nil
}

func scanContent(row pgx.Row) (SavedContent, error) {
	var c SavedContent
	var contentType string
	err := row.Scan(&c.ID, &c.OwnerID, &c.PropertyID, &contentType, &c.Title, &c.Content, &c.Keywords,
		&c.ImageURL, &c.BrandVoice, &c.CTAEnhancements, &c.GeneratedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SavedContent{}, ErrNotFound
		}
		return SavedContent{}, fmt.Errorf("scan content: %w", err)
	}
	c.ContentType = ContentType(contentType)
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	return c, nil
}
