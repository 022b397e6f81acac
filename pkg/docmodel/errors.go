// Package docmodel provides custom error types for better error handling and reporting.
package docmodel

import (
	"errors"
	"fmt"
)

// DuplicateTypeError is returned when a node type name is registered twice.
type DuplicateTypeError struct {
	TypeName string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("node type %q is already registered", e.TypeName)
}

// NewDuplicateTypeError creates a new duplicate type error
func NewDuplicateTypeError(typeName string) error {
	return &DuplicateTypeError{TypeName: typeName}
}

// UnknownTypeError is returned when a type name has no registered definition.
type UnknownTypeError struct {
	TypeName string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown node type %q", e.TypeName)
}

// NewUnknownTypeError creates a new unknown type error
func NewUnknownTypeError(typeName string) error {
	return &UnknownTypeError{TypeName: typeName}
}

// NoMatchingTypeError is returned when decoding meets an element that none of
// the candidate type definitions match. It is terminal for that subtree.
type NoMatchingTypeError struct {
	Element    string
	Candidates []string
}

func (e *NoMatchingTypeError) Error() string {
	return fmt.Sprintf("element <%s> matches none of the candidate types %v", e.Element, e.Candidates)
}

// NewNoMatchingTypeError creates a new no-matching-type error
func NewNoMatchingTypeError(element string, candidates []string) error {
	return &NoMatchingTypeError{Element: element, Candidates: candidates}
}

// StructuralRepairError is returned when the tree repair pass cannot legalize
// a tree into a single root, or does not converge within the configured
// number of passes.
type StructuralRepairError struct {
	RootType string
	Roots    int
	Message  string
}

func (e *StructuralRepairError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("structural repair of %q failed: %s", e.RootType, e.Message)
	}
	return fmt.Sprintf("structural repair of %q produced %d top-level nodes, want exactly 1", e.RootType, e.Roots)
}

// DuplicatePartError is returned when a part location already exists in a package.
type DuplicatePartError struct {
	Location string
}

func (e *DuplicatePartError) Error() string {
	return fmt.Sprintf("part %q already exists in package", e.Location)
}

// NewDuplicatePartError creates a new duplicate part error
func NewDuplicatePartError(location string) error {
	return &DuplicatePartError{Location: location}
}

// UnresolvedContentTypeError is returned when neither an override nor an
// extension default yields a content type for a part.
type UnresolvedContentTypeError struct {
	Location string
}

func (e *UnresolvedContentTypeError) Error() string {
	return fmt.Sprintf("no content type resolvable for part %q", e.Location)
}

// MalformedChangeMetadataError is returned when a tracked-change element is
// missing a required attribute or carries an unparseable date. It is fatal
// for that node but does not abort sibling decoding.
type MalformedChangeMetadataError struct {
	Attribute string
	Value     string
	Cause     error
}

func (e *MalformedChangeMetadataError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed change metadata: attribute %q value %q: %v", e.Attribute, e.Value, e.Cause)
	}
	return fmt.Sprintf("malformed change metadata: missing required attribute %q", e.Attribute)
}

func (e *MalformedChangeMetadataError) Unwrap() error {
	return e.Cause
}

// InvalidParameterError is returned when a nested props structure holds a
// numeric field with a not-a-number (or infinite) value. Path identifies the
// offending field, e.g. "spacing.before" or "tabs[2].pos".
type InvalidParameterError struct {
	Path  string
	Value float64
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid numeric value %v at props path %q", e.Value, e.Path)
}

// RegistryFrozenError is returned when Register is called after the registry
// has served its first encode or decode.
type RegistryFrozenError struct {
	TypeName string
}

func (e *RegistryFrozenError) Error() string {
	return fmt.Sprintf("cannot register node type %q: registry is frozen after first use", e.TypeName)
}

// DocumentError represents an error during package-level document operations
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Path, e.Cause)
	} else if e.Path != "" {
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Path)
	} else if e.Cause != nil {
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{Operation: operation, Path: path, Cause: cause}
}

// IsDuplicateTypeError checks if an error is a duplicate type error
func IsDuplicateTypeError(err error) bool {
	var e *DuplicateTypeError
	return errors.As(err, &e)
}

// IsUnknownTypeError checks if an error is an unknown type error
func IsUnknownTypeError(err error) bool {
	var e *UnknownTypeError
	return errors.As(err, &e)
}

// IsNoMatchingTypeError checks if an error is a no-matching-type error
func IsNoMatchingTypeError(err error) bool {
	var e *NoMatchingTypeError
	return errors.As(err, &e)
}

// IsStructuralRepairError checks if an error is a structural repair error
func IsStructuralRepairError(err error) bool {
	var e *StructuralRepairError
	return errors.As(err, &e)
}

// IsDuplicatePartError checks if an error is a duplicate part error
func IsDuplicatePartError(err error) bool {
	var e *DuplicatePartError
	return errors.As(err, &e)
}

// IsUnresolvedContentTypeError checks if an error is an unresolved content type error
func IsUnresolvedContentTypeError(err error) bool {
	var e *UnresolvedContentTypeError
	return errors.As(err, &e)
}

// IsMalformedChangeMetadataError checks if an error is a malformed change metadata error
func IsMalformedChangeMetadataError(err error) bool {
	var e *MalformedChangeMetadataError
	return errors.As(err, &e)
}

// IsInvalidParameterError checks if an error is an invalid parameter error
func IsInvalidParameterError(err error) bool {
	var e *InvalidParameterError
	return errors.As(err, &e)
}
