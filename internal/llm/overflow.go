package llm

import (
	"errors"
	"strings"
)

// ErrContextOverflow indica que el prompt supero la ventana de contexto del modelo.
var ErrContextOverflow = errors.New("llm context overflow")

// IsContextOverflow reporta si err corresponde a un exceso de contexto, ya sea por
// el error tipado o por el texto de la falla.
func IsContextOverflow(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrContextOverflow) {
		return true
	}
	return IsContextOverflowMessage(err.Error())
}

// IsContextOverflowMessage aplica la heuristica textual del proveedor
// ("The input token count (N) exceeds the maximum ..."). Depende del wording
// del proveedor y puede dejar de coincidir entre versiones.
func IsContextOverflowMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "token count") && strings.Contains(lower, "exceeds")
}
