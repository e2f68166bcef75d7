package model

type AccessToken struct {
	Address string `json:"address"`
}
