package readstore

import (
	"encoding/base64"
	"strings"

	"todo-notifier/internal/pkg/errs"

	"github.com/google/uuid"
)

const CursorVersionV1 = "v1"

// Tasks are paged on id alone; creation time is not stable across web app imports.
func EncodeAfterCursor(id uuid.UUID) string {
	return base64.URLEncoding.EncodeToString([]byte(CursorVersionV1 + ":" + id.String()))
}

func DecodeAfterCursor(cursor string) (uuid.UUID, error) {
	if cursor == "" {
		return uuid.Nil, errs.Mark(errs.New("cursor cannot be empty"), errs.ErrInvalidCursor)
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return uuid.Nil, errs.Mark(errs.Wrap(err, "cursor is not base64url"), errs.ErrInvalidCursor)
	}

	payload, ok := strings.CutPrefix(string(decoded), CursorVersionV1+":")
	if !ok {
		return uuid.Nil, errs.Mark(errs.New("unsupported cursor version"), errs.ErrInvalidCursor)
	}

	id, err := uuid.Parse(payload)
	if err != nil {
		return uuid.Nil, errs.Mark(errs.Wrap(err, "invalid UUID"), errs.ErrInvalidCursor)
	}
	return id, nil
}
