package dto

// ErrorResponse cuerpo de error HTTP con código de máquina.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OkResponse respuesta genérica de éxito.
type OkResponse struct {
	Ok bool `json:"ok"`
}
