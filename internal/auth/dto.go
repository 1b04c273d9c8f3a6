package auth

import "errors"

type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if dto.Username == "" {
		return errors.New("usuário é obrigatório")
	}
	if dto.Password == "" {
		return errors.New("senha é obrigatória")
	}
	return nil
}
