package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that a record could not be located in the backing store.
var ErrNotFound = errors.New("record not found")

// ErrUserExists is returned when registering an email that is already taken.
var ErrUserExists = errors.New("user already exists")

// ContentType enumerates what a piece of generated copy is for.
type ContentType string

const (
	ContentSocialCaption      ContentType = "social_media_caption"
	ContentListingDescription ContentType = "listing_description"
	ContentWelcomeMessage     ContentType = "welcome_message"
	ContentHouseRules         ContentType = "house_rules"
	ContentGuestReengagement  ContentType = "guest_reengagement"
	ContentBookingGap         ContentType = "booking_gap_filler"
	// ContentBookingGapSpecial is the internal tag for gap fillers that carry
	// explicit dates. It is rendered from a template without a model call.
	ContentBookingGapSpecial ContentType = "booking_gap_filler_special"
)

var contentTypeLabels = map[ContentType]string{
	ContentSocialCaption:      "Social Media Caption",
	ContentListingDescription: "Listing Description",
	ContentWelcomeMessage:     "Welcome Message",
	ContentHouseRules:         "House Rules",
	ContentGuestReengagement:  "Guest Re-engagement",
	ContentBookingGap:         "Booking Gap Filler",
	ContentBookingGapSpecial:  "Booking Gap Filler",
}

// Valid reports whether the content type is one callers may request.
func (c ContentType) Valid() bool {
	_, ok := contentTypeLabels[c]
	return ok && c != ContentBookingGapSpecial
}

// Label returns the human readable name of the content type.
func (c ContentType) Label() string {
	if label, ok := contentTypeLabels[c]; ok {
		return label
	}
	return "Content"
}

// GuestFacing reports whether the copy is addressed to guests who already booked.
func (c ContentType) GuestFacing() bool {
	switch c {
	case ContentWelcomeMessage, ContentHouseRules, ContentGuestReengagement:
		return true
	}
	return false
}

// PropertyStatus tracks whether a property is listed.
type PropertyStatus string

const (
	StatusActive   PropertyStatus = "active"
	StatusInactive PropertyStatus = "inactive"
	StatusDraft    PropertyStatus = "draft"
)

// User is an account that owns properties and saved content.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Property is a short-term rental managed by a host.
type Property struct {
	ID                   string         `json:"id"`
	OwnerID              string         `json:"ownerId"`
	Name                 string         `json:"name"`
	Location             string         `json:"location"`
	Bedrooms             int            `json:"bedrooms"`
	Bathrooms            float64        `json:"bathrooms"`
	Description          string         `json:"description"`
	HeroImageURL         string         `json:"heroImageUrl,omitempty"`
	Status               PropertyStatus `json:"status"`
	Amenities            []string       `json:"amenities"`
	BrandVoice           string         `json:"brandVoice,omitempty"`
	BrandVoiceSummary    string         `json:"brandVoiceSummary,omitempty"`
	UseBrandVoiceDefault bool           `json:"useBrandVoiceDefault"`
	SavedHashtags        []string       `json:"savedHashtags"`
	HostSignature        string         `json:"hostSignature,omitempty"`
	Photos               []Photo        `json:"photos"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// Photo is an image attached to a property.
type Photo struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"propertyId"`
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	IsPrimary  bool      `json:"isPrimary"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CTAEnhancements toggles the call-to-action devices a piece of copy uses.
type CTAEnhancements struct {
	Urgency     bool `json:"urgency"`
	SocialProof bool `json:"socialProof"`
	Benefits    bool `json:"benefits"`
	DirectCTA   bool `json:"directCTA"`
}

// SavedContent is generated copy the host chose to keep.
type SavedContent struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"ownerId"`
	PropertyID      string          `json:"propertyId"`
	ContentType     ContentType     `json:"contentType"`
	Title           string          `json:"title"`
	Content         string          `json:"content"`
	Keywords        []string        `json:"keywords"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	BrandVoice      string          `json:"brandVoice,omitempty"`
	CTAEnhancements CTAEnhancements `json:"ctaEnhancements"`
	GeneratedAt     time.Time       `json:"generatedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ContentFilter narrows ListContent. Empty fields do not constrain the result.
type ContentFilter struct {
	OwnerID    string
	PropertyID string
}

// Store defines the persistence behaviors the application relies on.
type Store interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)

	CreateProperty(ctx context.Context, input Property) (Property, error)
	ListProperties(ctx context.Context, ownerID string) ([]Property, error)
	GetProperty(ctx context.Context, id string) (Property, error)
	UpdateProperty(ctx context.Context, input Property) (Property, error)
	UpdateBrandVoice(ctx context.Context, id, voice, summary string) (Property, error)
	DeleteProperty(ctx context.Context, id string) error

	AddPhoto(ctx context.Context, propertyID string, photo Photo) (Photo, error)
	SetPrimaryPhoto(ctx context.Context, propertyID, photoID string) error
	DeletePhoto(ctx context.Context, propertyID, photoID string) error

	// SaveContent persists content unless an identical record (same content,
	// title and property) exists, in which case that record is returned with
	// created set to false.
	SaveContent(ctx context.Context, input SavedContent) (saved SavedContent, created bool, err error)
	ListContent(ctx context.Context, filter ContentFilter) ([]SavedContent, error)
	GetContent(ctx context.Context, id string) (SavedContent, error)
	DeleteContent(ctx context.Context, id string) error

	Close()
}

// NewStore selects a backing store from the database URL. An empty URL yields
// an in-memory store, postgres URLs a PostgresStore and sqlite paths a SQLiteStore.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	switch {
	case databaseURL == "":
		return NewInMemoryStore(), nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return newPostgresStore(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite:"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(databaseURL, "sqlite:"))
	case strings.HasSuffix(databaseURL, ".db"), strings.HasSuffix(databaseURL, ".sqlite"):
		return NewSQLiteStore(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database url %q", databaseURL)
	}
}

func newPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensurePostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func ensurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			bedrooms INTEGER NOT NULL DEFAULT 0,
			bathrooms DOUBLE PRECISION NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			hero_image_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			amenities TEXT[] NOT NULL DEFAULT '{}',
			brand_voice TEXT NOT NULL DEFAULT '',
			brand_voice_summary TEXT NOT NULL DEFAULT '',
			use_brand_voice_default BOOLEAN NOT NULL DEFAULT false,
			saved_hashtags TEXT[] NOT NULL DEFAULT '{}',
			host_signature TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS properties_owner_idx ON properties (owner_id)`,
		`CREATE TABLE IF NOT EXISTS property_photos (
			id TEXT PRIMARY KEY,
			property_id TEXT NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			is_primary BOOLEAN NOT NULL DEFAULT false,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS property_photos_one_primary ON property_photos (property_id) WHERE is_primary`,
		`CREATE TABLE IF NOT EXISTS saved_content (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			property_id TEXT NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
			content_type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			keywords TEXT[] NOT NULL DEFAULT '{}',
			image_url TEXT NOT NULL DEFAULT '',
			brand_voice TEXT NOT NULL DEFAULT '',
			cta_enhancements JSONB NOT NULL DEFAULT '{}'::jsonb,
			fingerprint TEXT NOT NULL UNIQUE,
			generated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS saved_content_owner_idx ON saved_content (owner_id, created_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// OwnedProperty loads a property and hides it from everyone but its owner.
func OwnedProperty(ctx context.Context, s Store, ownerID, id string) (Property, error) {
	p, err := s.GetProperty(ctx, id)
	if err != nil {
		return Property{}, err
	}
	if p.OwnerID != ownerID {
		return Property{}, ErrNotFound
	}
	return p, nil
}
