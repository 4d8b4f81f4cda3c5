package legacy

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/elliotchance/phpserialize"
	"github.com/goccy/go-json"
)

// Field aliases, tried in order; the first one present wins.
var (
	ratingAliases  = []string{"rating", "stars", "score", "rate"}
	commentAliases = []string{"feedback", "comment", "text", "message"}
	emailAliases   = []string{"email", "recipient", "recipient_email", "user_email"}
)

// Entry is one decoded feedback entry.
//
// An entry whose source value was not a map carrying at least one known field is Unrecognized:
// its fields stay empty and Raw holds the value as JSON for manual follow-up.
type Entry struct {
	Index        int
	Rating       *float64
	Comment      string
	Email        string
	Downloaded   bool
	Listened     bool
	Raw          string
	Unrecognized bool
}

// Err returns [shared.ErrUnrecognizedFeedback] for unrecognized entries.
func (e Entry) Err() error {
	if e.Unrecognized {
		return fmt.Errorf("%w: entry %d: %s", shared.ErrUnrecognizedFeedback, e.Index, e.Raw)
	}
	return nil
}

// DecodeFeedback unserializes a PHP-serialized feedback array into entries.
//
// The blob is either a list of entry arrays or a single entry array. An empty blob yields no
// entries. Anything that is not a serialized array fails with [shared.ErrUndecodableFeedback].
func DecodeFeedback(blob string) ([]Entry, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return nil, nil
	}

	top, err := phpserialize.UnmarshalAssociativeArray([]byte(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUndecodableFeedback, err)
	}

	if fields := stringKeys(top); hasKnownField(fields) {
		return []Entry{decodeEntry(0, top)}, nil
	}

	entries := make([]Entry, 0, len(top))
	for i, key := range sortedKeys(top) {
		entries = append(entries, decodeEntry(i, top[key]))
	}
	return entries, nil
}

func decodeEntry(index int, value any) Entry {
	entry := Entry{Index: index, Raw: rawJSON(value)}

	m, ok := value.(map[any]any)
	if !ok {
		entry.Unrecognized = true
		return entry
	}

	fields := stringKeys(m)
	if !hasKnownField(fields) {
		entry.Unrecognized = true
		return entry
	}

	if v, ok := firstPresent(fields, ratingAliases); ok {
		entry.Rating = toRating(v)
	}
	if v, ok := firstPresent(fields, commentAliases); ok {
		entry.Comment = strings.TrimSpace(toString(v))
	}
	if v, ok := firstPresent(fields, emailAliases); ok {
		entry.Email = shared.NormalizeEmail(toString(v))
	}
	entry.Downloaded = toBool(fields["downloaded"])
	entry.Listened = toBool(fields["listened"])

	return entry
}

// ToDemoFeedback builds the rows stored for a post's entries.
//
// Every row carries [models.ImportSentinelEmail] as its recipient so the next run can replace it;
// the reviewer's own address goes in ReviewerEmail.
func ToDemoFeedback(post Post, entries []Entry, now time.Time) []models.DemoFeedback {
	trackToken := post.TrackToken()
	rows := make([]models.DemoFeedback, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.DemoFeedback{
			ID:             shared.GenerateID(),
			Token:          FeedbackToken(trackToken, post.ID, e.Index),
			WPPostID:       post.ID,
			RecipientEmail: models.ImportSentinelEmail,
			ReviewerEmail:  e.Email,
			Rating:         e.Rating,
			Comment:        e.Comment,
			Downloaded:     e.Downloaded,
			Listened:       e.Listened,
			TrackToken:     trackToken,
			Raw:            e.Raw,
			CreatedAt:      now,
		})
	}
	return rows
}

// FeedbackToken builds {trackToken}-fb-{postID}-{index}-{random}.
func FeedbackToken(trackToken string, postID int64, index int) string {
	return fmt.Sprintf("%s-fb-%d-%d-%s", trackToken, postID, index, shared.RandomSuffix())
}

func stringKeys(m map[any]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(fmt.Sprint(k)))] = v
	}
	return out
}

func hasKnownField(fields map[string]any) bool {
	for _, aliases := range [][]string{ratingAliases, commentAliases, emailAliases, {"downloaded", "listened"}} {
		if _, ok := firstPresent(fields, aliases); ok {
			return true
		}
	}
	return false
}

func firstPresent(fields map[string]any, aliases []string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := fields[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// sortedKeys orders integer keys numerically ahead of string keys.
func sortedKeys(m map[any]any) []any {
	keys := make([]any, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b any) int {
		ai, aInt := asInt(a)
		bi, bInt := asInt(b)
		switch {
		case aInt && bInt:
			return int(ai - bi)
		case aInt:
			return -1
		case bInt:
			return 1
		}
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	})
	return keys
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func toRating(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case float64:
		f = val
	default:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(toString(v)), 64)
		if err != nil {
			return nil
		}
		f = parsed
	}
	if f < 0 || f > 10 {
		return nil
	}
	return &f
}

func toBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	}
	switch strings.ToLower(strings.TrimSpace(toString(v))) {
	case "1", "true", "yes", "on", "y":
		return true
	}
	return false
}

// rawJSON renders a decoded PHP value as JSON. PHP arrays become objects keyed by their
// stringified keys.
func rawJSON(v any) string {
	data, err := json.Marshal(jsonValue(v))
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return string(data)
}

func jsonValue(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[fmt.Sprint(k)] = jsonValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = jsonValue(inner)
		}
		return out
	case []byte:
		return string(val)
	}
	return v
}
