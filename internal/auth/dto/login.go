package dto

type LoginInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	IPAddress string `json:"-"`
}

type AuthOutput struct {
	Token string     `json:"token"`
	User  UserOutput `json:"user"`
}
