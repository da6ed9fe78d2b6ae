package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultImportTimeout bounds a single import when Options leaves it unset.
const DefaultImportTimeout = 2 * time.Minute

// Options configures a Service. Only the store is mandatory.
type Options struct {
	// Artifacts keeps raw uploads. Nil skips artifact storage.
	Artifacts ArtifactStore

	// Limiter bounds concurrent imports. Nil means unbounded.
	Limiter ImportLimiter

	// Suggester replaces SuggestMapping.
	Suggester Suggester

	// ImportTimeout bounds a single import.
	ImportTimeout time.Duration

	// Now replaces time.Now, for tests.
	Now func() time.Time
}

// Service provides the batch import and row query operations.
type Service struct {
	store         Store
	artifacts     ArtifactStore
	limiter       ImportLimiter
	suggest       Suggester
	validate      *validator.Validate
	importTimeout time.Duration
	now           func() time.Time
}

// NewService creates a Service over store.
func NewService(store Store, opts Options) (*Service, error) {
	if store == nil {
		return nil, errors.New("core: store is required")
	}

	s := &Service{
		store:         store,
		artifacts:     opts.Artifacts,
		limiter:       opts.Limiter,
		suggest:       opts.Suggester,
		validate:      newValidator(),
		importTimeout: opts.ImportTimeout,
		now:           opts.Now,
	}
	if s.suggest == nil {
		s.suggest = SuggestMapping
	}
	if s.importTimeout <= 0 {
		s.importTimeout = DefaultImportTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// Fields returns the system fields of a category.
func (s *Service) Fields(category string) ([]SystemField, error) {
	c, err := ResolveCategory(category)
	if err != nil {
		return nil, err
	}
	schema, _ := SchemaFor(c)
	return schema.Fields, nil
}

// SuggestMapping proposes a mapping of the category's fields onto headers
// and validates it. The mapping is returned even when validation fails so
// the caller can correct it.
func (s *Service) SuggestMapping(headers []string, category string) (FieldMapping, error) {
	fields, err := s.Fields(category)
	if err != nil {
		return nil, err
	}
	m := s.suggest(headers, fields)
	return m, ValidateMapping(fields, m)
}

// ValidateMapping checks m against the category's schema.
func (s *Service) ValidateMapping(category string, m FieldMapping) error {
	fields, err := s.Fields(category)
	if err != nil {
		return err
	}
	return ValidateMapping(fields, m)
}

// newValidator reports struct fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// checkStruct runs tag validation and converts failures to a ValidationError.
func (s *Service) checkStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %T: %w", v, err)
	}

	out := &ValidationError{Fields: make(map[string]Reason, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = ReasonInvalidValue
	}
	return out
}

// parseID treats malformed identifiers as missing entities.
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrUnauthorized
	}
	return nil
}
