package dto

// UpdateProfileRequest is a partial update: absent fields are left alone and
// an empty image clears it.
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}
