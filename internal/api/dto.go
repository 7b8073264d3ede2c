package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mwestall/shopfront/internal/siteservice"
)

// SetStatusRequest is the body of POST /api/status. Status is a pointer
// so a missing or non-boolean field is distinguishable from false.
type SetStatusRequest struct {
	Password string `json:"password"`
	Status   *bool  `json:"status"`
	Notice   string `json:"notice"`
}

// Validate checks field presence and the notice length. The password is
// checked by the admin gate, not here.
func (r *SetStatusRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.NotNil.Error("status must be a boolean")),
		validation.Field(&r.Notice, validation.RuneLength(0, siteservice.MaxNoticeLength).
			Error("notice exceeds 500 characters")),
	)
}

// PasswordRequest is the body of the DELETE endpoints.
type PasswordRequest struct {
	Password string `json:"password"`
}
