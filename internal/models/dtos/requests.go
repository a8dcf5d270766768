package dtos

// SignupRequest is the body for sign-up and withdraw calls.
type SignupRequest struct {
	UserID int `json:"userId"`
}

// DetailUpdateRequest carries the loosely typed detail payload from the API.
// The concrete shape is validated by the detail codec against the activity's
// template.
type DetailUpdateRequest struct {
	UserID int                    `json:"userId"`
	Detail map[string]interface{} `json:"detail"`
}
