package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a thread-safe store used when a database is not configured.
type InMemoryStore struct {
	mu         sync.RWMutex
	users      map[string]User
	properties []Property
	content    []SavedContent
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:      make(map[string]User),
		properties: make([]Property, 0),
		content:    make([]SavedContent, 0),
	}
}

// Close satisfies the Store interface.
func (s *InMemoryStore) Close() {}

// CreateUser registers a user keyed by lower-cased email.
func (s *InMemoryStore) CreateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return User{}, ErrUserExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	return user, nil
}

// GetUserByEmail looks a user up by email.
func (s *InMemoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// GetUserByID returns a user by ID.
func (s *InMemoryStore) GetUserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

// CreateProperty prepends a property to the in-memory slice.
func (s *InMemoryStore) CreateProperty(_ context.Context, input Property) (Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareProperty(&input, time.Now().UTC())
	input.Photos = []Photo{}
	s.properties = append([]Property{input}, s.properties...)
	return cloneProperty(input), nil
}

// ListProperties returns the owner's properties, newest first.
func (s *InMemoryStore) ListProperties(_ context.Context, ownerID string) ([]Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Property{}
	for _, p := range s.properties {
		if ownerID == "" || p.OwnerID == ownerID {
			out = append(out, cloneProperty(p))
		}
	}
	return out, nil
}

// GetProperty returns a property by ID.
func (s *InMemoryStore) GetProperty(_ context.Context, id string) (Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.propertyIndex(id); idx >= 0 {
		return cloneProperty(s.properties[idx]), nil
	}
	return Property{}, ErrNotFound
}

// UpdateProperty replaces the editable fields of a property. Photos and
// ownership are left untouched.
func (s *InMemoryStore) UpdateProperty(_ context.Context, input Property) (Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.propertyIndex(input.ID)
	if idx < 0 {
		return Property{}, ErrNotFound
	}
	current := s.properties[idx]
	input.OwnerID = current.OwnerID
	input.CreatedAt = current.CreatedAt
	prepareProperty(&input, time.Now().UTC())
	input.Photos = current.Photos
	s.properties[idx] = input
	return cloneProperty(input), nil
}

// UpdateBrandVoice stores an analyzed brand voice on the property.
func (s *InMemoryStore) UpdateBrandVoice(_ context.Context, id, voice, summary string) (Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.propertyIndex(id)
	if idx < 0 {
		return Property{}, ErrNotFound
	}
	s.properties[idx].BrandVoice = voice
	s.properties[idx].BrandVoiceSummary = summary
	s.properties[idx].UpdatedAt = time.Now().UTC()
	return cloneProperty(s.properties[idx]), nil
}

// DeleteProperty removes a property together with its saved content.
func (s *InMemoryStore) DeleteProperty(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.propertyIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.properties = append(s.properties[:idx], s.properties[idx+1:]...)

	kept := s.content[:0]
	for _, c := range s.content {
		if c.PropertyID != id {
			kept = append(kept, c)
		}
	}
	s.content = kept
	return nil
}

// AddPhoto appends a photo. The first photo of a property becomes primary.
func (s *InMemoryStore) AddPhoto(_ context.Context, propertyID string, photo Photo) (Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.propertyIndex(propertyID)
	if idx < 0 {
		return Photo{}, ErrNotFound
	}
	prop := &s.properties[idx]

	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	photo.PropertyID = propertyID
	photo.CreatedAt = time.Now().UTC()
	photo.Position = 0
	for _, existing := range prop.Photos {
		if existing.Position >= photo.Position {
			photo.Position = existing.Position + 1
		}
	}
	if len(prop.Photos) == 0 {
		photo.IsPrimary = true
	}
	if photo.IsPrimary {
		for i := range prop.Photos {
			prop.Photos[i].IsPrimary = false
		}
	}
	prop.Photos = append(prop.Photos, photo)
	return photo, nil
}

// SetPrimaryPhoto marks one photo as primary and clears the flag on the rest.
func (s *InMemoryStore) SetPrimaryPhoto(_ context.Context, propertyID, photoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.propertyIndex(propertyID)
	if idx < 0 {
		return ErrNotFound
	}
	prop := &s.properties[idx]

	found := false
	for _, p := range prop.Photos {
		if p.ID == photoID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}
	for i := range prop.Photos {
		prop.Photos[i].IsPrimary = prop.Photos[i].ID == photoID
	}
	return nil
}

// DeletePhoto removes a photo, promoting the earliest remaining one when the
// primary photo is deleted.
func (s *InMemoryStore) DeletePhoto(_ context.Context, propertyID, photoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.propertyIndex(propertyID)
	if idx < 0 {
		return ErrNotFound
	}
	prop := &s.properties[idx]

	for i, p := range prop.Photos {
		if p.ID != photoID {
			continue
		}
		prop.Photos = append(prop.Photos[:i], prop.Photos[i+1:]...)
		if p.IsPrimary && len(prop.Photos) > 0 {
			sortPhotos(prop.Photos)
			prop.Photos[0].IsPrimary = true
		}
		return nil
	}
	return ErrNotFound
}

// SaveContent stores content unless an identical record already exists.
func (s *InMemoryStore) SaveContent(_ context.Context, input SavedContent) (SavedContent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.propertyIndex(input.PropertyID) < 0 {
		return SavedContent{}, false, ErrNotFound
	}
	fingerprint := contentFingerprint(input)
	for _, existing := range s.content {
		if contentFingerprint(existing) == fingerprint {
			return cloneContent(existing), false, nil
		}
	}

	prepareContent(&input, time.Now().UTC())
	s.content = append([]SavedContent{input}, s.content...)
	return cloneContent(input), true, nil
}

// ListContent returns saved content newest first.
func (s *InMemoryStore) ListContent(_ context.Context, filter ContentFilter) ([]SavedContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []SavedContent{}
	for _, c := range s.content {
		if filter.OwnerID != "" && c.OwnerID != filter.OwnerID {
			continue
		}
		if filter.PropertyID != "" && c.PropertyID != filter.PropertyID {
			continue
		}
		out = append(out, cloneContent(c))
	}
	return out, nil
}

// GetContent returns saved content by ID.
func (s *InMemoryStore) GetContent(_ context.Context, id string) (SavedContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.content {
		if c.ID == id {
			return cloneContent(c), nil
		}
	}
	return SavedContent{}, ErrNotFound
}

// DeleteContent removes saved content by ID.
func (s *InMemoryStore) DeleteContent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for idx, c := range s.content {
		if c.ID == id {
			s.content = append(s.content[:idx], s.content[idx+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *InMemoryStore) propertyIndex(id string) int {
	for idx, p := range s.properties {
		if p.ID == id {
			return idx
		}
	}
	return -1
}

func cloneProperty(p Property) Property {
	p.Amenities = append([]string{}, p.Amenities...)
	p.SavedHashtags = append([]string{}, p.SavedHashtags...)
	p.Photos = append([]Photo{}, p.Photos...)
	sortPhotos(p.Photos)
	return p
}

func cloneContent(c SavedContent) SavedContent {
	c.Keywords = append([]string{}, c.Keywords...)
	return c
}
