package reduce

import "fmt"

// Code categorizes a rejection. Codes are a closed enumeration; the
// wire form of a rejection is "CODE: detail".
type Code string

const (
	CodeEntityAlreadyExists      Code = "ENTITY_ALREADY_EXISTS"
	CodeEntityNotFound           Code = "ENTITY_NOT_FOUND"
	CodeRequiredFieldMissing     Code = "REQUIRED_FIELD_MISSING"
	CodeTypeMismatch             Code = "TYPE_MISMATCH"
	CodeCollectionAlreadyExists  Code = "COLLECTION_ALREADY_EXISTS"
	CodeCollectionNotFound       Code = "COLLECTION_NOT_FOUND"
	CodeFieldAlreadyExists       Code = "FIELD_ALREADY_EXISTS"
	CodeFieldNotFound            Code = "FIELD_NOT_FOUND"
	CodeRequiredFieldNoDefault   Code = "REQUIRED_FIELD_NO_DEFAULT"
	CodeIncompatibleTypeChange   Code = "INCOMPATIBLE_TYPE_CHANGE"
	CodeBlockTypeMissing         Code = "BLOCK_TYPE_MISSING"
	CodeBlockNotFound            Code = "BLOCK_NOT_FOUND"
	CodeBlockCycle               Code = "BLOCK_CYCLE"
	CodeCantRemoveRoot           Code = "CANT_REMOVE_ROOT"
	CodeViewAlreadyExists        Code = "VIEW_ALREADY_EXISTS"
	CodeViewNotFound             Code = "VIEW_NOT_FOUND"
	CodeStrictConstraintViolated Code = "STRICT_CONSTRAINT_VIOLATED"
	CodeUnknownPrimitive         Code = "UNKNOWN_PRIMITIVE"
	CodeInvalidPayload           Code = "INVALID_PAYLOAD"
)

// Warning codes. Warnings never block application except
// WarnStrictConstraintViolated, which the reducer converts into a
// rejection of the whole operation.
const (
	WarnUnknownFieldIgnored      = "UNKNOWN_FIELD_IGNORED"
	WarnAlreadyRemoved           = "ALREADY_REMOVED"
	WarnConstraintViolated       = "CONSTRAINT_VIOLATED"
	WarnStrictConstraintViolated = "STRICT_CONSTRAINT_VIOLATED"
	WarnLossyTypeConversion      = "LOSSY_TYPE_CONVERSION"
	WarnViewFieldMissing         = "VIEW_FIELD_MISSING"
	WarnEntitiesUpdated          = "ENTITIES_UPDATED"
)

// Error is a rejection: an ordinary return value, never a panic.
type Error struct {
	Code   Code
	Detail string
}

// Error implements the error interface with the wire form
// "CODE: detail". The detail may be empty ("CANT_REMOVE_ROOT: ").
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func reject(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Warning is a non-fatal annotation surfaced alongside a result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
