package formatter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/strahe/catalog-sentinel/models"
)

// ErrUnresolvableEntity is returned when a change cannot be attributed to an entity.
var ErrUnresolvableEntity = errors.New("unresolvable entity reference")

// ReferenceResolver returns the type tag and fully qualified name of an entity.
type ReferenceResolver interface {
	ResolveReference(entity any) (models.EntityReference, error)
}

// ReferenceResolverFunc adapts a function to ReferenceResolver.
type ReferenceResolverFunc func(entity any) (models.EntityReference, error)

func (f ReferenceResolverFunc) ResolveReference(entity any) (models.EntityReference, error) {
	return f(entity)
}

// DefaultResolver understands entity references and anything implementing
// models.Referenceable, which includes *models.ChangeEvent.
var DefaultResolver ReferenceResolver = ReferenceResolverFunc(resolveReference)

func resolveReference(entity any) (models.EntityReference, error) {
	var ref models.EntityReference
	switch e := entity.(type) {
	case nil:
		return ref, fmt.Errorf("%w: nil entity", ErrUnresolvableEntity)
	case models.EntityReference:
		ref = e
	case *models.EntityReference:
		if e == nil {
			return ref, fmt.Errorf("%w: nil entity", ErrUnresolvableEntity)
		}
		ref = *e
	case models.Referenceable:
		ref = e.EntityReference()
	default:
		return ref, fmt.Errorf("%w: unsupported entity %T", ErrUnresolvableEntity, entity)
	}

	if ref.FullyQualifiedName == "" {
		ref.FullyQualifiedName = ref.Name
	}
	if ref.Type == "" || ref.FullyQualifiedName == "" {
		return ref, fmt.Errorf("%w: type %q, fully qualified name %q", ErrUnresolvableEntity, ref.Type, ref.FullyQualifiedName)
	}
	return ref, nil
}

// maxLinkSegments is the deepest field path a link can address:
// field, array field name and array field value.
const maxLinkSegments = 3

// LinkFor resolves a dotted field name against an entity reference. Paths deeper than
// three segments are truncated to the first three.
//
//	description                    -> field description
//	columns.description            -> field columns, array field description
//	columns.customer_id.tags       -> field columns, array field customer_id, value tags
func LinkFor(ref models.EntityReference, fieldName string) models.EntityLink {
	link := models.EntityLink{
		EntityType: ref.Type,
		EntityFQN:  ref.FullyQualifiedName,
	}

	parts := strings.Split(fieldName, ".")
	if len(parts) > maxLinkSegments {
		parts = parts[:maxLinkSegments]
	}
	link.FieldName = parts[0]
	if len(parts) > 1 {
		link.ArrayFieldName = parts[1]
	}
	if len(parts) > 2 {
		link.ArrayFieldValue = parts[2]
	}
	return link
}

// ResolveLink resolves the entity through the formatter's resolver and returns the link
// of fieldName on it.
func (f *Formatter) ResolveLink(fieldName string, entity any) (models.EntityLink, error) {
	ref, err := f.resolver.ResolveReference(entity)
	if err != nil {
		return models.EntityLink{}, err
	}
	return LinkFor(ref, fieldName), nil
}
