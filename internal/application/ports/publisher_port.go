package ports

import "context"

// Message mensaje de notificación. Key agrupa mensajes del mismo recurso en el transporte.
type Message struct {
	Topic   string
	Subject string
	Key     string
	Body    []byte
}

// Publisher publica mensajes en un tópico (best-effort, fire-and-forget para el caller).
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}
