package api

// ProfileUpdateRequest представляет частичное обновление профиля
// nil-поля не изменяются; email и role через этот запрос не меняются
type ProfileUpdateRequest struct {
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}
