package models

import "strings"

// EntityReference identifies an entity by its type tag and fully qualified name.
type EntityReference struct {
	ID                 string `json:"id,omitempty"`
	Type               string `json:"type"`
	Name               string `json:"name,omitempty"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
	DisplayName        string `json:"displayName,omitempty"`
}

// Referenceable is implemented by entities that know their own reference.
type Referenceable interface {
	EntityReference() EntityReference
}

// EntityLink is the stable address of a change: a field of an entity, optionally
// narrowed to a field inside an array element. Empty optional fields mean absent.
type EntityLink struct {
	EntityType      string `json:"entityType"`
	EntityFQN       string `json:"entityFQN"`
	FieldName       string `json:"fieldName"`
	ArrayFieldName  string `json:"arrayFieldName,omitempty"`
	ArrayFieldValue string `json:"arrayFieldValue,omitempty"`
}

const linkSeparator = "::"

// String renders the link in the catalog's link syntax, e.g.
// <#E::table::db.schema.orders::columns::customer_id::description>.
func (l EntityLink) String() string {
	parts := []string{"<#E", l.EntityType, l.EntityFQN}
	if l.FieldName != "" {
		parts = append(parts, l.FieldName)
		if l.ArrayFieldName != "" {
			parts = append(parts, l.ArrayFieldName)
			if l.ArrayFieldValue != "" {
				parts = append(parts, l.ArrayFieldValue)
			}
		}
	}
	return strings.Join(parts, linkSeparator) + ">"
}
