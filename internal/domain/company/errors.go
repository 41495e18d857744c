package company

import "errors"

var (
	ErrCompanyNotFound      = errors.New("company not found")
	ErrCompanyCodeNotFound  = errors.New("company code not found")
	ErrAlreadyInCompany     = errors.New("already in a company")
	ErrMemberNotFound       = errors.New("member not found")
	ErrOwnerMustLeaveLast   = errors.New("owner can leave only when no other members remain")
	ErrCodeGenerationFailed = errors.New("company code generation failed")
)

// InputError reports an invalid request field.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return e.Field + ": " + e.Message
}
