// Package formatter turns the change description of a catalog entity into one
// human-readable message per changed location of that entity.
//
// Messages are Markdown-like text: line breaks are written as <br/> and inline diffs as
// <span class="diff-added"> and <span class="diff-removed"> spans. Rendering them is left
// to the sinks.
package formatter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/strahe/catalog-sentinel/models"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (l *noopLogger) Debugf(format string, args ...any) {}
func (l *noopLogger) Infof(format string, args ...any)  {}
func (l *noopLogger) Warnf(format string, args ...any)  {}
func (l *noopLogger) Errorf(format string, args ...any) {}

// Formatter holds no state between calls and is safe for concurrent use.
type Formatter struct {
	resolver ReferenceResolver
	logger   Logger
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithResolver sets how entities are turned into references.
func WithResolver(resolver ReferenceResolver) Option {
	return func(f *Formatter) {
		if resolver != nil {
			f.resolver = resolver
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(f *Formatter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func New(options ...Option) *Formatter {
	f := &Formatter{
		resolver: DefaultResolver,
		logger:   &noopLogger{},
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// FormatMessages returns a message per entity link for all changes in desc. Updated
// fields are formatted first, then added and deleted fields, merging pairs that share a
// name into updates. When two changes resolve to the same link the later one wins.
//
// The only error is an entity that cannot be resolved; nothing is returned in that case.
func (f *Formatter) FormatMessages(desc *models.ChangeDescription, entity any, currentVersion float64) (map[models.EntityLink]string, error) {
	ref, err := f.resolver.ResolveReference(entity)
	if err != nil {
		return nil, err
	}

	messages := map[models.EntityLink]string{}
	if desc == nil {
		return messages, nil
	}

	previousVersion := desc.PreviousVersion
	for _, field := range desc.FieldsUpdated {
		f.put(messages, ref, classified(models.ChangeTypeUpdate, field), previousVersion, currentVersion)
	}
	for _, change := range ClassifyChanges(desc.FieldsAdded, desc.FieldsDeleted) {
		f.put(messages, ref, change, previousVersion, currentVersion)
	}
	return messages, nil
}

func (f *Formatter) put(messages map[models.EntityLink]string, ref models.EntityReference, change ClassifiedChange, previousVersion, currentVersion float64) {
	link := LinkFor(ref, change.Name)
	message := FormatMessage(link, change.Type, change.Name, change.OldValue, change.NewValue, previousVersion, currentVersion)
	if message == "" {
		f.logger.Warnf("no message template for %s change of %s", change.Type, change.Name)
		return
	}
	if _, ok := messages[link]; ok {
		f.logger.Debugf("message for %s replaced by %s change of %s", link, change.Type, change.Name)
	}
	messages[link] = message
}

// FormatEvent formats a whole change event into notifications ordered by link. Created
// and deleted entities without field changes get a single entity level notification.
func (f *Formatter) FormatEvent(event *models.ChangeEvent) ([]*models.Notification, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: nil event", ErrUnresolvableEntity)
	}
	ref, err := f.resolver.ResolveReference(event)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", event.ID, err)
	}

	var messages map[models.EntityLink]string
	if event.ChangeDescription.IsEmpty() {
		messages = lifecycleMessage(ref, event)
	} else {
		messages, err = f.FormatMessages(event.ChangeDescription, ref, event.CurrentVersion)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", event.ID, err)
		}
	}

	links := lo.Keys(messages)
	slices.SortFunc(links, func(a, b models.EntityLink) int {
		return strings.Compare(a.String(), b.String())
	})

	notifications := make([]*models.Notification, 0, len(links))
	for _, link := range links {
		notifications = append(notifications, &models.Notification{
			EventID:   event.ID,
			EventType: event.EventType,
			Entity:    ref,
			Link:      link,
			Message:   messages[link],
			UserName:  event.UserName,
			Timestamp: event.Time(),
		})
	}
	f.logger.Debugf("event %s on %s %s: %d notifications", event.ID, ref.Type, ref.FullyQualifiedName, len(notifications))
	return notifications, nil
}

func lifecycleMessage(ref models.EntityReference, event *models.ChangeEvent) map[models.EntityLink]string {
	link := models.EntityLink{EntityType: ref.Type, EntityFQN: ref.FullyQualifiedName}
	switch event.EventType {
	case models.EntityCreated:
		return map[models.EntityLink]string{link: fmt.Sprintf("Created %s `%s`", ref.Type, ref.FullyQualifiedName)}
	case models.EntitySoftDeleted:
		return map[models.EntityLink]string{link: fmt.Sprintf("Soft deleted %s `%s`", ref.Type, ref.FullyQualifiedName)}
	case models.EntityDeleted:
		return map[models.EntityLink]string{link: fmt.Sprintf("Deleted %s `%s`", ref.Type, ref.FullyQualifiedName)}
	default:
		return map[models.EntityLink]string{}
	}
}
