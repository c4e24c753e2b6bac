package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code       int      `json:"code" example:"400"`
	Category   string   `json:"category" example:"VALIDATION_ERROR"`
	Message    string   `json:"message" example:"Erro de Validação: produto 'TSHIRT-01' inválido"`
	Violations []string `json:"violations,omitempty"`
}
