package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/projectly-api/internal/errors"
	"github.com/yukikurage/projectly-api/internal/services"
)

// fieldError is a malformed value in a request body.
type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string {
	return e.Message
}

func invalidField(key, format string) error {
	return &fieldError{Field: key, Message: fmt.Sprintf(format, key)}
}

// badBody answers 400 for an error from the body helpers, naming the
// offending field in the details.
func badBody(c *gin.Context, err error) {
	var fe *fieldError
	if errors.As(err, &fe) {
		apierrors.BadRequestWithDetails(c, fe.Message, gin.H{"field": fe.Field})
		return
	}
	apierrors.BadRequest(c, err.Error())
}

// body is a decoded JSON object. Keeping the raw map lets partial updates
// tell an omitted field from one explicitly set to "" or null.
type body map[string]any

func (b body) has(key string) bool {
	_, ok := b[key]
	return ok
}

// str returns the string at key, nil when the key is absent or null.
func (b body) str(key string) (*string, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, invalidField(key, "%s must be a string")
	}
	return &s, nil
}

// id returns the identifier at key. Numbers and numeric strings are
// accepted.
func (b body) id(key string) (*uint64, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return nil, nil
	}
	id, ok := toID(v)
	if !ok {
		return nil, invalidField(key, "%s must be a valid id")
	}
	return &id, nil
}

// ids returns the identifier list at key.
func (b body) ids(key string) (*[]uint64, error) {
	v, ok := b[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, invalidField(key, "%s must be a list of ids")
	}
	out := make([]uint64, 0, len(items))
	for _, item := range items {
		id, ok := toID(item)
		if !ok {
			return nil, invalidField(key, "%s must be a list of ids")
		}
		out = append(out, id)
	}
	return &out, nil
}

// dueDate returns the due date at key and whether it was explicitly
// cleared with null or "".
func (b body) dueDate(key string) (*time.Time, bool, error) {
	v, ok := b[key]
	if !ok {
		return nil, false, nil
	}
	if v == nil {
		return nil, true, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, false, invalidField(key, "%s must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return nil, true, nil
	}
	t, err := services.ParseDueDate(s)
	if err != nil {
		return nil, false, &fieldError{Field: key, Message: err.Error()}
	}
	return t, false, nil
}

func toID(v any) (uint64, bool) {
	switch v := v.(type) {
	case float64:
		if v <= 0 || v != float64(uint64(v)) {
			return 0, false
		}
		return uint64(v), true
	case string:
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		return id, err == nil && id > 0
	default:
		return 0, false
	}
}

// queryID parses an optional id query parameter.
func queryID(value string) (*uint64, error) {
	if value == "" {
		return nil, nil
	}
	id, ok := toID(value)
	if !ok {
		return nil, fmt.Errorf("invalid id %q", value)
	}
	return &id, nil
}
