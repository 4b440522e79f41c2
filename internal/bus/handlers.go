package bus

import (
	"context"
	"encoding/json"
	"log"

	"chatauth/internal/models"
	"chatauth/internal/services"
)

// VerifyRequestHandler — декодирует verify-request и отдаёт в сервис.
// Битый JSON отвечать некому (correlation id не извлечь) — логируем и ackаем.
func VerifyRequestHandler(svc *services.VerificationService) HandlerFunc {
	return func(ctx context.Context, key, value []byte) error {
		var req models.VerifyRequest
		if err := json.Unmarshal(value, &req); err != nil {
			log.Printf("[bus][verify-request][err] key=%s malformed payload: %v", string(key), err)
			return nil
		}
		return svc.ProcessVerifyRequest(ctx, &req)
	}
}

func RevokeResponseHandler(svc *services.VerificationService) HandlerFunc {
	return func(ctx context.Context, key, value []byte) error {
		var resp models.RevokeResponse
		if err := json.Unmarshal(value, &resp); err != nil {
			log.Printf("[bus][revoke-response][err] key=%s malformed payload: %v", string(key), err)
			return nil
		}
		return svc.HandleRevokeResponse(ctx, &resp)
	}
}
