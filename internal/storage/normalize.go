package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// NormalizeHashtags trims the leading '#', removes whitespace and drops
// case-insensitive duplicates while keeping the first spelling and order.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, tag)
		clean = strings.TrimLeft(clean, "#")
		if clean == "" {
			continue
		}
		key := strings.ToLower(clean)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, clean)
	}
	return out
}

func normalizeAmenities(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// prepareProperty applies the write-time invariants shared by every backend.
func prepareProperty(p *Property, now time.Time) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Location = strings.TrimSpace(p.Location)
	p.HostSignature = strings.TrimSpace(p.HostSignature)
	p.Amenities = normalizeAmenities(p.Amenities)
	p.SavedHashtags = NormalizeHashtags(p.SavedHashtags)
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Photos == nil {
		p.Photos = []Photo{}
	}
}

func prepareContent(c *SavedContent, now time.Time) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	if c.GeneratedAt.IsZero() {
		c.GeneratedAt = now
	}
	c.CreatedAt = now
}

// contentFingerprint identifies saved content for the duplicate-save guard.
func contentFingerprint(c SavedContent) string {
	h := sha256.New()
	h.Write([]byte(c.PropertyID))
	h.Write([]byte{0})
	h.Write([]byte(c.Title))
	h.Write([]byte{0})
	h.Write([]byte(c.Content))
	return hex.EncodeToString(h.Sum(nil))
}

func sortPhotos(photos []Photo) {
	sort.SliceStable(photos, func(i, j int) bool {
		return photos[i].Position < photos[j].Position
	})
}
