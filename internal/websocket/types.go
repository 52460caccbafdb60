package websocket

const bufferSize = 1024

type Message struct {
	Type int
	Data []byte
}

type Writer interface {
	WriteMessage(Message)
	Error(string)
}

type wsWriter struct {
	writer chan Message
	error  chan string
}

// WriteMessage never blocks: a client that stops reading loses updates
// instead of wedging the goroutine that produced them.
func (w wsWriter) WriteMessage(msg Message) {
	select {
	case w.writer <- msg:
	default:
	}
}

func (w wsWriter) Error(err string) {
	select {
	case w.error <- err:
	default:
	}
}
