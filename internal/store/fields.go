package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventcat/internal/domain"
)

func fieldsUUID(f Fields) (string, error) {
	raw, ok := f["uuid"]
	if !ok || raw == "" {
		return uuid.NewString(), nil
	}
	id, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("uuid field is %T, want string", raw)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("parse uuid %q: %w", id, err)
	}
	return id, nil
}

func fieldString(f Fields, key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func fieldTime(f Fields, key string) time.Time {
	if v, ok := f[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func fieldAttributes(f Fields) map[string]any {
	if v, ok := f["attributes"].(map[string]any); ok {
		return v
	}
	return nil
}

func catalogueFromFields(f Fields) (*domain.Catalogue, error) {
	id, err := fieldsUUID(f)
	if err != nil {
		return nil, err
	}
	name := fieldString(f, "name")
	if name == "" {
		return nil, fmt.Errorf("catalogue needs a name")
	}
	return &domain.Catalogue{
		UUID:       id,
		Name:       name,
		Author:     fieldString(f, "author"),
		Attributes: fieldAttributes(f),
	}, nil
}

func eventFromFields(f Fields) (*domain.Event, error) {
	id, err := fieldsUUID(f)
	if err != nil {
		return nil, err
	}
	start, stop := fieldTime(f, "start"), fieldTime(f, "stop")
	if start.IsZero() || stop.IsZero() {
		return nil, fmt.Errorf("event needs start and stop times")
	}
	if stop.Before(start) {
		return nil, fmt.Errorf("event stops before it starts")
	}
	return &domain.Event{
		UUID:       id,
		Start:      start,
		Stop:       stop,
		Author:     fieldString(f, "author"),
		Attributes: fieldAttributes(f),
	}, nil
}
