package chat

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxContentLength bounds message text, counted in characters.
const MaxContentLength = 5000

var allowedMediaTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"video/mp4":  {},
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.\-]+)`)

// Message is a chat message with its content in plaintext.
type Message struct {
	ID         int64
	RoomID     int64
	SenderID   int64
	SenderName string
	Content    string
	MediaURL   *string
	MediaType  *string
	Mentions   []int64
	ParentID   *int64
	Deleted    bool
	CreatedAt  time.Time
}

// Envelope is a message as stored: Ciphertext is the codec output of the content.
type Envelope struct {
	ID         int64
	RoomID     int64
	SenderID   int64
	SenderName string
	Ciphertext string
	MediaURL   *string
	MediaType  *string
	Mentions   []int64
	ParentID   *int64
	Deleted    bool
	CreatedAt  time.Time
}

// NewMessage trims and validates an inbound message. A message needs text or a
// media reference; media must be an absolute http(s) URL with a known type.
func NewMessage(m Message) (*Message, error) {
	m.Content = strings.TrimSpace(m.Content)
	m.MediaURL = trimOptional(m.MediaURL)
	m.MediaType = trimOptional(m.MediaType)

	if m.Content == "" && m.MediaURL == nil {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(m.Content) > MaxContentLength {
		return nil, ErrContentTooLong
	}
	if err := validateMedia(m.MediaURL, m.MediaType); err != nil {
		return nil, err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return &m, nil
}

func validateMedia(rawURL, mediaType *string) error {
	if rawURL == nil {
		if mediaType != nil {
			return ErrInvalidMedia
		}
		return nil
	}
	u, err := url.Parse(*rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidMedia
	}
	if mediaType == nil {
		return ErrInvalidMedia
	}
	if _, ok := allowedMediaTypes[*mediaType]; !ok {
		return ErrInvalidMedia
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// MentionedNames returns the distinct @names found in content, in order of appearance.
func MentionedNames(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimRight(m[1], ".-")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
