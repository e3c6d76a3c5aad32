package aws

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

// goneCodes são os códigos de erro do S3 que indicam que o alvo não existe
// mais; reentregar o evento não resolveria.
var goneCodes = map[string]bool{
	"NoSuchKey":     true,
	"NoSuchBucket":  true,
	"NoSuchVersion": true,
	"NotFound":      true,
}

// errorCode retorna o código de erro da API, ou "" se err não vier da API.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// classifyError marca erros de alvo inexistente com types.ErrTargetGone.
// Os demais (AccessDenied, throttling após os retries do SDK) seguem como
// estão para que a invocação falhe e a plataforma reentregue.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if goneCodes[errorCode(err)] {
		return fmt.Errorf("%s: %w: %w", op, types.ErrTargetGone, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
