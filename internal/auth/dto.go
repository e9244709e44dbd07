package auth

type LoginInput struct {
	Password string `json:"password" form:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}
