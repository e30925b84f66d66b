package ports

import "context"

// IdempotencyStore recuerda la respuesta de una operación por clave de idempotencia.
//
// Begin reserva la clave. started=true si el caller debe ejecutar la operación;
// si no, cached trae la respuesta ya registrada, o es nil si otra petición con la misma
// clave sigue en curso.
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (cached []byte, started bool, err error)
	Complete(ctx context.Context, key string, response []byte) error
	Abort(ctx context.Context, key string) error
}
